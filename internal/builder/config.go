package builder

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/chroma/styles"
	"github.com/danprince/noopener/internal/errors"
	"github.com/danprince/noopener/internal/links"
	"github.com/danprince/noopener/internal/mdext"
	"github.com/danprince/noopener/internal/rel"
)

type Config struct {
	SyntaxColor string
	DateFormat  string
	// Wrap headings in permalinks to themselves.
	HeadingAnchors Flag
	// Canonical url of the site. Its path is where the site is mounted.
	BaseURL string
	// Hosts of every site in the installation. Domains is used when this is
	// empty.
	Sites []string
	// Legacy domain records, a host with an optional path.
	Domains []string
	Rel     RelSettings
}

// RelSettings is the site wide part of the rel configuration. Pages can
// override any of it with a "rel" map in their front matter.
type RelSettings struct {
	// Add "noopener noreferrer", on unless set to a false value.
	Noopener *Flag
	// More tokens for the same links, space separated or a list.
	Extra Tokens
	// Read tokens from rel-<token> classes.
	ClassHints Flag
	// Remove rel-<token> classes after reading them.
	StripClasses Flag
}

var defaultConfig = Config{
	SyntaxColor: "algol_nu",
	DateFormat:  "2006-1-2",
}

func (c *Config) load(file string) error {
	data, err := os.ReadFile(file)

	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	err = json.Unmarshal(data, c)

	if err != nil {
		return errors.JsonParseError(err, file, string(data))
	}

	// The "css" theme isn't part of chroma, but we use it to enable the
	// "WithClasses" option internally.
	if !mdext.HasStyle(c.SyntaxColor) {
		allowed := []string{mdext.CSSStyle}

		for s := range styles.Registry {
			allowed = append(allowed, s)
		}

		return errors.ConfigError{
			File:    file,
			Key:     "SyntaxColor",
			Value:   c.SyntaxColor,
			Allowed: allowed,
		}
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.ConfigError{
				File:    file,
				Key:     "BaseURL",
				Value:   c.BaseURL,
				Allowed: []string{"an absolute http(s) url"},
			}
		}
	}

	return nil
}

// Builds the installation context from the base url. extraDomains are
// added to the domain table.
func (c *Config) installation(extraDomains []string) *links.Installation {
	inst := &links.Installation{
		SitePath: "/",
		BaseURL:  c.BaseURL,
	}

	// The site path is a directory, "/docs" would also match "/docsearch".
	if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
		inst.Host = u.Host
		inst.SitePath = strings.TrimSuffix(u.Path, "/") + "/"
		u.Path = inst.SitePath
		inst.BaseURL = u.String()
	}

	if len(c.Sites) > 0 {
		inst.Registry = links.Sites(c.Sites)
	}

	domains := append(append([]string{}, c.Domains...), extraDomains...)
	if len(domains) > 0 {
		inst.Domains = links.DomainList(domains)
	}

	return inst
}

// Resolves the settings for one page. overrides is the page's "rel" front
// matter, which may be nil.
func (s RelSettings) resolve(overrides any) (rel.Config, error) {
	noopener := s.Noopener == nil || bool(*s.Noopener)
	extra := []string(s.Extra)
	classHints := bool(s.ClassHints)
	stripClasses := bool(s.StripClasses)

	values, err := toMap(overrides)
	if err != nil {
		return rel.Config{}, err
	}

	for key, value := range values {
		var err error

		switch strings.ToLower(key) {
		case "noopener":
			noopener, err = parseFlag(value)
		case "extra":
			extra, err = parseTokens(value)
		case "classhints":
			classHints, err = parseFlag(value)
		case "stripclasses":
			stripClasses, err = parseFlag(value)
		default:
			err = fmt.Errorf("unknown setting")
		}

		if err != nil {
			return rel.Config{}, fmt.Errorf("rel.%s: %w", key, err)
		}
	}

	config := rel.Config{
		Extra:            extra,
		ClassHints:       classHints,
		StripHintClasses: stripClasses,
		Allowed:          rel.LinkTypes,
	}

	if noopener {
		config.Defaults = rel.DefaultTokens
	}

	return config, nil
}

// Front matter maps come out of yaml with interface keys.
func toMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rel: expected a map of settings, got %T", v)
	}
}
