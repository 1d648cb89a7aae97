package rel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

var ErrNotStartTag = errors.New("markup is not an opening tag")

// Tag is an opening tag with its attributes in source order.
type Tag struct {
	Name        string
	Attrs       []html.Attribute
	SelfClosing bool
}

// Parses the first token of markup, which must be an opening tag.
func ParseTag(markup string) (*Tag, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	tt := z.Next()

	if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
		return nil, fmt.Errorf("parse %q: %w", markup, ErrNotStartTag)
	}

	return tagFromToken(z.Token()), nil
}

func tagFromToken(tok html.Token) *Tag {
	return &Tag{
		Name:        tok.Data,
		Attrs:       tok.Attr,
		SelfClosing: tok.Type == html.SelfClosingTagToken,
	}
}

// Get returns the value of the first attribute called key.
func (t *Tag) Get(key string) (string, bool) {
	for _, attr := range t.Attrs {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Set replaces the value of key where it already is, or adds it as the
// first attribute.
func (t *Tag) Set(key, val string) {
	for i, attr := range t.Attrs {
		if attr.Namespace == "" && attr.Key == key {
			t.Attrs[i].Val = val
			return
		}
	}

	attrs := make([]html.Attribute, 0, len(t.Attrs)+1)
	attrs = append(attrs, html.Attribute{Key: key, Val: val})
	t.Attrs = append(attrs, t.Attrs...)
}

// Add is like Set, but new attributes go at the end.
func (t *Tag) Add(key, val string) {
	if _, ok := t.Get(key); ok {
		t.Set(key, val)
		return
	}
	t.Attrs = append(t.Attrs, html.Attribute{Key: key, Val: val})
}

// Remove drops every attribute called key.
func (t *Tag) Remove(key string) {
	attrs := t.Attrs[:0]
	for _, attr := range t.Attrs {
		if attr.Namespace != "" || attr.Key != key {
			attrs = append(attrs, attr)
		}
	}
	t.Attrs = attrs
}

// Clone makes a copy that can be modified without touching t.
func (t *Tag) Clone() *Tag {
	c := *t
	c.Attrs = append([]html.Attribute(nil), t.Attrs...)
	return &c
}

func (t *Tag) String() string {
	var b strings.Builder

	b.WriteByte('<')
	b.WriteString(t.Name)

	for _, attr := range t.Attrs {
		b.WriteByte(' ')
		if attr.Namespace != "" {
			b.WriteString(attr.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.Write(util.EscapeHTML([]byte(attr.Val)))
		b.WriteByte('"')
	}

	if t.SelfClosing {
		b.WriteString(" /")
	}

	b.WriteByte('>')
	return b.String()
}
