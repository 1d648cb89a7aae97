package rel

import (
	"io"
	"strings"

	"github.com/danprince/noopener/internal/links"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is a single anchor on its way to the page.
type Link struct {
	// Url the anchor points to.
	URL string
	// Structured form of the opening tag, parsed from Markup if nil.
	Tag *Tag
	// Serialized opening tag. Only rewritten when the tag changes.
	Markup string
}

// Hook classifies links and patches their rel attributes. A hook is safe
// for concurrent use once configured.
type Hook struct {
	Config       Config
	Installation *links.Installation
	Classifier   *links.Classifier
	Logger       log.Logger
}

func NewHook(config Config, inst *links.Installation, logger log.Logger) *Hook {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Hook{
		Config:       config,
		Installation: inst,
		Classifier:   &links.Classifier{Logger: logger},
		Logger:       logger,
	}
}

func (h *Hook) logger() log.Logger {
	if h.Logger == nil {
		return log.NewNopLogger()
	}
	return h.Logger
}

// Run updates link in place. Links that can't be handled are left as they
// are.
func (h *Hook) Run(link *Link) {
	if link.Tag == nil {
		tag, err := ParseTag(link.Markup)
		if err != nil {
			level.Debug(h.logger()).Log("msg", "skipping link", "url", link.URL, "err", err)
			return
		}
		link.Tag = tag
	}

	internal := h.Classifier.IsInternal(link.URL, h.Installation)
	patch := h.Config.Compose(link.Tag, internal)

	if !patch.Changed {
		if link.Markup == "" {
			link.Markup = link.Tag.String()
		}
		return
	}

	level.Debug(h.logger()).Log("msg", "patched link", "url", link.URL, "internal", internal, "rel", strings.Join(patch.Tokens, " "))
	link.Tag = patch.Tag
	link.Markup = patch.Tag.String()
}

// RewriteHTML runs the hook for every anchor in a fragment of html. Text
// outside of the anchors' opening tags is copied through byte for byte.
func (h *Hook) RewriteHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	consumed := 0

	for {
		tt := z.Next()

		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				level.Debug(h.logger()).Log("msg", "could not tokenize html", "err", z.Err())
			}
			break
		}

		raw := string(z.Raw())
		consumed += len(raw)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}

		tok := z.Token()
		if tok.DataAtom != atom.A {
			b.WriteString(raw)
			continue
		}

		tag := tagFromToken(tok)
		href, _ := tag.Get("href")
		link := &Link{URL: href, Tag: tag, Markup: raw}
		h.Run(link)
		b.WriteString(link.Markup)
	}

	// Anything the tokenizer gave up on
	if consumed < len(fragment) {
		b.WriteString(fragment[consumed:])
	}

	return b.String()
}
