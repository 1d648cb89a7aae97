package links

import (
	"regexp"
	"strings"
)

// Registry lists the hosts of every site that belongs to the installation.
type Registry interface {
	Hosts() ([]string, error)
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func() ([]string, error)

func (f RegistryFunc) Hosts() ([]string, error) {
	return f()
}

// Sites is an in-memory registry of site hosts.
type Sites []string

func (s Sites) Hosts() ([]string, error) {
	return s, nil
}

// DomainTable lists legacy domain records. A record is a host optionally
// followed by a path, e.g. "example.com/docs/".
type DomainTable interface {
	Domains() ([]string, error)
}

// DomainList is an in-memory domain table.
type DomainList []string

func (d DomainList) Domains() ([]string, error) {
	return d, nil
}

// Matches the last path segment along with any slashes in front of it.
var lastSegmentRegex = regexp.MustCompile(`/+[^/]*$`)

// A record matches when it (without trailing slashes) is a prefix of the
// host joined with the url's directory.
func inDomainTable(table DomainTable, host, path string) bool {
	if table == nil {
		return false
	}

	domains, err := table.Domains()
	if err != nil {
		return false
	}

	dir := lastSegmentRegex.ReplaceAllString(path, "")
	key := host + dir + "/"

	for _, domain := range domains {
		name := strings.TrimRight(domain, "/")
		if name == "" {
			continue
		}
		if strings.HasPrefix(key, name+"/") {
			return true
		}
	}

	return false
}
