// Package links decides whether a link target belongs to the current
// installation of the site.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Installation describes where the site is mounted and which hosts belong
// to it.
type Installation struct {
	// Path the site is mounted under, e.g. "/" or "/docs/".
	SitePath string
	// Host of the current request, including the port if there is one.
	Host string
	// Canonical base url of the site, e.g. "https://example.com/docs/".
	BaseURL string
	// Registry of every site in the installation, nil if there is none.
	Registry Registry
	// Legacy domain records, consulted when the registry is missing or
	// fails.
	Domains DomainTable
}

var schemeRegex = regexp.MustCompile(`^https?://`)

// Classifier implements the internal link checks. The zero value is ready
// to use.
type Classifier struct {
	Logger log.Logger
}

// IsInternal reports whether url stays within the installation. Anything
// that can't be parsed is treated as external.
func (c *Classifier) IsInternal(url string, inst *Installation) bool {
	if inst == nil {
		inst = &Installation{}
	}
	return isRelative(url, inst.SitePath) ||
		inCurrentDomain(url, inst) ||
		c.inKnownDomain(url, inst)
}

func (c *Classifier) logger() log.Logger {
	if c == nil || c.Logger == nil {
		return log.NewNopLogger()
	}
	return c.Logger
}

// Strips control characters and surrounding whitespace, then parses. An
// empty result means the url is unusable. Backslashes are read as slashes,
// the way browsers read them in http(s) urls.
func normalize(raw string) *url.URL {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		if r == '\\' {
			return '/'
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return nil
	}

	u, err := url.Parse(cleaned)
	if err != nil {
		return nil
	}

	return u
}

// A url without scheme and host is internal, unless it's root relative and
// escapes the path the site is mounted under.
func isRelative(raw, sitePath string) bool {
	u := normalize(raw)

	if u == nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return false
	}

	if !strings.HasPrefix(u.Path, "/") {
		return true
	}

	return strings.HasPrefix(u.Path, sitePath)
}

// Ignores the scheme and checks the url against the current host and the
// site's base url.
func inCurrentDomain(raw string, inst *Installation) bool {
	if inst.Host == "" {
		return false
	}

	withoutScheme := schemeRegex.ReplaceAllString(raw, "")
	baseWithoutScheme := schemeRegex.ReplaceAllString(inst.BaseURL, "")

	return strings.HasPrefix(withoutScheme+"/", inst.Host+"/") &&
		strings.HasPrefix(withoutScheme, baseWithoutScheme)
}

func (c *Classifier) inKnownDomain(raw string, inst *Installation) bool {
	u := normalize(raw)

	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	host := u.Hostname()

	if host == "" {
		return false
	}

	if inst.Registry != nil {
		hosts, err := inst.Registry.Hosts()

		if err == nil {
			for _, h := range hosts {
				if h == host {
					return true
				}
			}
			return false
		}

		level.Debug(c.logger()).Log("msg", "site registry unavailable, using domain table", "host", host, "err", err)
	}

	return inDomainTable(inst.Domains, host, u.Path)
}
