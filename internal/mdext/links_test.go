package mdext

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/danprince/noopener/internal/links"
	"github.com/danprince/noopener/internal/rel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

func newHook() *rel.Hook {
	return rel.NewHook(rel.DefaultConfig(), &links.Installation{
		SitePath: "/",
		Host:     "example.com",
		BaseURL:  "https://example.com/",
	}, nil)
}

func convert(t *testing.T, md goldmark.Markdown, input string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := md.Convert([]byte(input), &buf); err != nil {
		t.Errorf("unexpected markdown error: %s", err)
	}

	return strings.TrimSpace(buf.String())
}

func TestLinks(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(NewLinks(newHook())))

	tests := map[string]string{
		// Internal links
		`[relative](./rel.html)`:                    `<a href="./rel.html">relative</a>`,
		`[absolute](/abs.html)`:                     `<a href="/abs.html">absolute</a>`,
		`[same host](https://example.com/page)`:     `<a href="https://example.com/page">same host</a>`,
		`[fragment](#heading)`:                      `<a href="#heading">fragment</a>`,
		`[page](./posts/hello.md)`:                  `<a href="./posts/hello.html">page</a>`,
		`[index](./posts/index.md)`:                 `<a href="./posts/">index</a>`,

		// External links
		`[ext](http://ext.com)`:                     `<a rel="noopener noreferrer" href="http://ext.com">ext</a>`,
		`[ext](https://ext.com)`:                    `<a rel="noopener noreferrer" href="https://ext.com">ext</a>`,
		`[ext](//ext.com)`:                          `<a rel="noopener noreferrer" href="//ext.com">ext</a>`,
		`[ext](https://ext.com "Title")`:            `<a rel="noopener noreferrer" href="https://ext.com" title="Title">ext</a>`,
		`[ext](https://ext.com "a &amp; b")`:        `<a rel="noopener noreferrer" href="https://ext.com" title="a &amp; b">ext</a>`,
		`[readme](https://ext.com/README.md)`:       `<a rel="noopener noreferrer" href="https://ext.com/README.md">readme</a>`,
		`[bad](javascript:alert(1))`:                `<a rel="noopener noreferrer" href="">bad</a>`,
		`<https://ext.com>`:                         `<a rel="noopener noreferrer" href="https://ext.com">https://ext.com</a>`,
		`<me@ext.com>`:                              `<a rel="noopener noreferrer" href="mailto:me@ext.com">me@ext.com</a>`,

		// Raw html isn't rendered without the unsafe option
		`<a href="https://ext.com">raw</a>`:         `<!-- raw HTML omitted -->raw<!-- raw HTML omitted -->`,
	}

	for input, expected := range tests {
		actual := convert(t, md, input)
		expected = fmt.Sprintf(`<p>%s</p>`, expected)

		if actual != expected {
			t.Errorf(`expected "%s", got "%s"`, expected, actual)
		}
	}
}

func TestLinksInRawHTML(t *testing.T) {
	md := goldmark.New(
		goldmark.WithExtensions(NewLinks(newHook())),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	tests := map[string]string{
		`Inline <a href="https://ext.com">raw</a>`:                 `<p>Inline <a rel="noopener noreferrer" href="https://ext.com">raw</a></p>`,
		`Inline <a href="/local" class="x">raw</a>`:                `<p>Inline <a href="/local" class="x">raw</a></p>`,
		`<div><a href="https://ext.com" rel="nofollow">x</a></div>`: `<div><a href="https://ext.com" rel="noopener noreferrer nofollow">x</a></div>`,
		"<div>\n<a href='/local'>x</a>\n</div>":                    "<div>\n<a href='/local'>x</a>\n</div>",
	}

	for input, expected := range tests {
		actual := convert(t, md, input)

		if actual != expected {
			t.Errorf(`expected "%s", got "%s"`, expected, actual)
		}
	}
}

func TestLinksWithGFM(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM, NewLinks(newHook())))

	actual := convert(t, md, "visit https://ext.com today")
	expected := `<p>visit <a rel="noopener noreferrer" href="https://ext.com">https://ext.com</a> today</p>`

	if actual != expected {
		t.Errorf(`expected "%s", got "%s"`, expected, actual)
	}
}

func TestLinksWithoutHook(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(NewLinks(nil)))

	actual := convert(t, md, `[ext](https://ext.com)`)
	expected := `<p><a href="https://ext.com">ext</a></p>`

	if actual != expected {
		t.Errorf(`expected "%s", got "%s"`, expected, actual)
	}
}

func TestLinksWithClassHints(t *testing.T) {
	config := rel.DefaultConfig()
	config.ClassHints = true
	config.StripHintClasses = true

	hook := rel.NewHook(config, &links.Installation{SitePath: "/"}, nil)
	md := goldmark.New(
		goldmark.WithExtensions(NewLinks(hook)),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	actual := convert(t, md, `<a class="button rel-nofollow" href="https://ext.com">x</a>`)
	expected := `<p><a rel="noopener noreferrer nofollow" class="button" href="https://ext.com">x</a></p>`

	if actual != expected {
		t.Errorf(`expected "%s", got "%s"`, expected, actual)
	}
}

func TestIsPagePath(t *testing.T) {
	tests := map[string]bool{
		"./a.md":                 true,
		"/posts/index.md":        true,
		"a.md#heading":           false,
		"https://ext.com/a.md":   false,
		"./a.html":               false,
		"%zz.md":                 false,
	}

	for input, expected := range tests {
		if actual := isPagePath(input); actual != expected {
			t.Errorf(`expected isPagePath("%s") to be %v`, input, expected)
		}
	}
}
