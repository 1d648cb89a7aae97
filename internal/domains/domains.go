// Package domains stores the legacy domain records of an installation in
// postgres.
package domains

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/danprince/noopener/internal/errors"
	"github.com/lib/pq"
)

//go:embed schema.sql
var Schema string

var ErrDomainTaken = errors.New("domain already exists")

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

// Load returns the visible domain records in the order they were added.
func Load(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT domain_name FROM domains
		WHERE hidden = false
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("could not query domains: %w", err)
	}

	defer rows.Close()

	var domains []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("could not scan domain: %w", err)
		}
		domains = append(domains, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate domains: %w", err)
	}

	return domains, nil
}

// Add inserts a domain record, a host optionally followed by a path.
func Add(ctx context.Context, db *sql.DB, name string, hidden bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("domain name is empty")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO domains (domain_name, hidden)
		VALUES ($1, $2)`, name, hidden)
	if isUniqueViolation(err) {
		return ErrDomainTaken
	}

	if err != nil {
		return fmt.Errorf("could not insert domain: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var e *pq.Error
	return errors.As(err, &e) && e.Code.Name() == "unique_violation"
}

// Table is a links.DomainTable backed by the database. Every call reads the
// table again, so a dev server picks up new records on its next build.
type Table struct {
	DB *sql.DB
}

func (t Table) Domains() ([]string, error) {
	return Load(context.Background(), t.DB)
}
