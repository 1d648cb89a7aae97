package builder

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/danprince/noopener/internal/links"
	"github.com/danprince/noopener/internal/rel"
)

func TestParseFlag(t *testing.T) {
	tests := map[any]bool{
		true:    true,
		false:   false,
		"1":     true,
		"0":     false,
		"true":  true,
		"FALSE": false,
		"on":    true,
		"off":   false,
		"yes":   true,
		"no":    false,
		"":      false,
		" 1 ":   true,
		1:       true,
		0:       false,
		2.0:     true,
		0.0:     false,
	}

	for input, expected := range tests {
		actual, err := parseFlag(input)

		if err != nil {
			t.Errorf(`unexpected error for %#v: %s`, input, err)
		} else if actual != expected {
			t.Errorf(`expected %#v to parse as %v`, input, expected)
		}
	}

	if _, err := parseFlag("sometimes"); err == nil {
		t.Errorf(`expected an error for "sometimes"`)
	}
}

func TestRelSettingsFromJSON(t *testing.T) {
	var settings RelSettings

	data := `{"Noopener": "0", "Extra": ["nofollow", "ugc sponsored"], "ClassHints": 1}`

	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		t.Fatal(err)
	}

	if settings.Noopener == nil || bool(*settings.Noopener) {
		t.Errorf("expected noopener to be off")
	}

	if !reflect.DeepEqual([]string(settings.Extra), []string{"nofollow", "ugc", "sponsored"}) {
		t.Errorf(`unexpected extra tokens "%v"`, settings.Extra)
	}

	if !settings.ClassHints || settings.StripClasses {
		t.Errorf("expected only class hints to be on")
	}
}

func TestResolve(t *testing.T) {
	off := Flag(false)

	tests := map[string]struct {
		settings  RelSettings
		overrides any
		expect    rel.Config
	}{
		"defaults": {
			expect: rel.Config{Defaults: rel.DefaultTokens, Allowed: rel.LinkTypes},
		},
		"site settings": {
			settings: RelSettings{Noopener: &off, Extra: Tokens{"nofollow"}, ClassHints: true},
			expect:   rel.Config{Extra: []string{"nofollow"}, ClassHints: true, Allowed: rel.LinkTypes},
		},
		"page overrides": {
			settings:  RelSettings{Noopener: &off},
			overrides: map[string]any{"noopener": "yes", "extra": "ugc", "stripClasses": true},
			expect:    rel.Config{Defaults: rel.DefaultTokens, Extra: []string{"ugc"}, StripHintClasses: true, Allowed: rel.LinkTypes},
		},
		"yaml overrides": {
			overrides: map[any]any{"noopener": false, "ClassHints": "on"},
			expect:    rel.Config{ClassHints: true, Allowed: rel.LinkTypes},
		},
	}

	for name, test := range tests {
		actual, err := test.settings.resolve(test.overrides)

		if err != nil {
			t.Errorf("%s: unexpected error: %s", name, err)
			continue
		}

		if !reflect.DeepEqual(actual, test.expect) {
			t.Errorf("%s: expected %+v, got %+v", name, test.expect, actual)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	tests := map[string]any{
		"not a map":   "noopener",
		"unknown key": map[string]any{"colour": "red"},
		"bad flag":    map[string]any{"classHints": "maybe"},
		"bad tokens":  map[string]any{"extra": []any{1, 2}},
	}

	for name, overrides := range tests {
		if _, err := (RelSettings{}).resolve(overrides); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestInstallation(t *testing.T) {
	tests := map[string]struct {
		config Config
		extra  []string
		expect links.Installation
	}{
		"empty": {
			expect: links.Installation{SitePath: "/"},
		},
		"root": {
			config: Config{BaseURL: "https://example.com"},
			expect: links.Installation{SitePath: "/", Host: "example.com", BaseURL: "https://example.com/"},
		},
		"mounted": {
			config: Config{BaseURL: "http://localhost:8000/docs/"},
			expect: links.Installation{SitePath: "/docs/", Host: "localhost:8000", BaseURL: "http://localhost:8000/docs/"},
		},
		"mounted without a trailing slash": {
			config: Config{BaseURL: "https://example.com/docs"},
			expect: links.Installation{SitePath: "/docs/", Host: "example.com", BaseURL: "https://example.com/docs/"},
		},
		"sites and domains": {
			config: Config{BaseURL: "https://example.com/", Sites: []string{"a.com"}, Domains: []string{"b.com"}},
			extra:  []string{"c.com/x/"},
			expect: links.Installation{
				SitePath: "/",
				Host:     "example.com",
				BaseURL:  "https://example.com/",
				Registry: links.Sites{"a.com"},
				Domains:  links.DomainList{"b.com", "c.com/x/"},
			},
		},
	}

	for name, test := range tests {
		actual := test.config.installation(test.extra)

		if !reflect.DeepEqual(*actual, test.expect) {
			t.Errorf("%s: expected %+v, got %+v", name, test.expect, *actual)
		}
	}
}

func TestInstallationSitePathIsADirectory(t *testing.T) {
	config := Config{BaseURL: "https://example.com/docs"}
	inst := config.installation(nil)
	c := links.Classifier{}

	tests := map[string]bool{
		"/docs/page.html":                 true,
		"/docs/":                          true,
		"/docsearch":                      false,
		"/docs-old/page":                  false,
		"https://example.com/docs/a.html": true,
		"https://example.com/docsearch":   false,
	}

	for input, expected := range tests {
		if actual := c.IsInternal(input, inst); actual != expected {
			t.Errorf(`expected IsInternal("%s") to be %v`, input, expected)
		}
	}
}
