package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/danprince/noopener/internal/builder"
	"github.com/danprince/noopener/internal/domains"
	"github.com/danprince/noopener/internal/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()

	var (
		shouldServe bool
		addr        string
		verbose     bool
		domainsDSN  string
		addDomain   string
	)

	flag.BoolVar(&shouldServe, "serve", false, "Serve & rebuild the site")
	flag.StringVar(&addr, "addr", ":8000", "Address to serve the site on")
	flag.BoolVar(&verbose, "v", false, "Log every link that gets patched")
	flag.StringVar(&domainsDSN, "domains-db", os.Getenv("NOOPENER_DOMAINS_DSN"), "Postgres database with legacy domain records")
	flag.StringVar(&addDomain, "add-domain", "", "Add a domain record to the database and exit")
	flag.Parse()
	args := flag.Args()

	logger := newLogger(verbose)
	rootDir, _ := os.Getwd()
	pagesDir := rootDir

	if len(args) == 1 {
		pagesDir = path.Join(rootDir, args[0])
	}

	b := builder.New(pagesDir)
	b.Logger = logger

	if domainsDSN != "" {
		db, err := openDomains(domainsDSN)
		if err != nil {
			level.Error(logger).Log("msg", "could not open domains database", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		if addDomain != "" {
			if err := domains.Add(context.Background(), db, addDomain, false); err != nil {
				level.Error(logger).Log("msg", "could not add domain", "domain", addDomain, "err", err)
				os.Exit(1)
			}
			level.Info(logger).Log("msg", "added domain", "domain", addDomain)
			return
		}

		b.DomainTable = domains.Table{DB: db}
	} else if addDomain != "" {
		level.Error(logger).Log("msg", "-add-domain needs -domains-db")
		os.Exit(2)
	}

	if shouldServe {
		serve(b, addr, logger)
		return
	}

	start := time.Now()
	err := b.Build()

	if err != nil {
		fmt.Fprintln(os.Stderr, errors.FmtError(err))
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "built site", "pages", b.Pages(), "duration", time.Since(start))
}

func newLogger(verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}

	return level.NewFilter(logger, level.AllowInfo())
}

// Opens the database and makes sure the domains table exists.
func openDomains(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := domains.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
