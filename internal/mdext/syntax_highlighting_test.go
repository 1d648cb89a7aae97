package mdext

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
)

func TestParseHighlightRanges(t *testing.T) {
	type lines = []lineRange
	type result struct {
		lang   string
		ranges []lineRange
	}

	tests := map[string]result{
		"js":               {"js", lines{}},
		"js/":              {"js", lines{}},
		"js/0-1":           {"js", lines{}},
		"js/5-4":           {"js", lines{{4, 4}}},
		"js/5 - ":          {"js", lines{{4, 4}}},
		"js/5":             {"js", lines{{4, 4}}},
		"py/1-5":           {"py", lines{{0, 4}}},
		"rs/1,4":           {"rs", lines{{0, 0}, {3, 3}}},
		"tsx/1-2, 5, 9-20": {"tsx", lines{{0, 1}, {4, 4}, {8, 19}}},
		"tsx/1-2-3":        {"tsx", lines{{0, 1}}},
	}

	for input, expected := range tests {
		actualLang, actualRanges := parseHighlightRanges(input)

		if actualLang != expected.lang {
			t.Errorf(`expected language in "%s" to be "%s" but got "%s"`, input, expected.lang, actualLang)
		}

		if !reflect.DeepEqual(expected.ranges, actualRanges) {
			t.Errorf(`expected ranges in "%s" to be "%v" but got "%v"`, input, expected.ranges, actualRanges)
		}
	}
}

func TestHasStyle(t *testing.T) {
	tests := map[string]bool{
		"algol_nu":  true,
		"css":       true,
		"doom-one":  true,
		"not-a-one": false,
	}

	for input, expected := range tests {
		if actual := HasStyle(input); actual != expected {
			t.Errorf(`expected HasStyle("%s") to be %v`, input, expected)
		}
	}
}

func TestSyntaxHighlightingWithClasses(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(NewSyntaxHighlighting(CSSStyle)))
	actual := convert(t, md, "```go\npackage main\n```")

	if !strings.Contains(actual, `class="chroma"`) {
		t.Errorf(`expected highlighted output to use classes, got "%s"`, actual)
	}

	if strings.Contains(actual, "style=") {
		t.Errorf(`expected no inline styles, got "%s"`, actual)
	}
}
