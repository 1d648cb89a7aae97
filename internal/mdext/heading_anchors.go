package mdext

import (
	"fmt"

	"github.com/danprince/noopener/internal/rel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type headingAnchors struct {
	hook *rel.Hook
}

// Wraps each heading in an anchor linking to itself. The permalinks go
// through hook like every other anchor on the page.
func NewHeadingAnchors(hook *rel.Hook) goldmark.Extender {
	return &headingAnchors{hook: hook}
}

func (h *headingAnchors) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithAutoHeadingID(),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(h, 200)),
	)
}

func (h *headingAnchors) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, h.renderHeading)
}

func (h *headingAnchors) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	name := fmt.Sprintf("h%d", n.Level)
	id := ""
	if v, ok := node.AttributeString("id"); ok {
		if b, ok := v.([]byte); ok {
			id = string(b)
		}
	}
	autolink := n.FirstChild() == nil || n.FirstChild().Kind() != ast.KindLink

	if autolink && entering {
		href := "#" + id
		tag := &rel.Tag{Name: "a"}
		tag.Add("href", href)
		tag.Add("class", "permalink")

		link := &rel.Link{URL: href, Tag: tag}
		if h.hook != nil {
			h.hook.Run(link)
		}

		w.WriteString(link.Tag.String())
		w.WriteString(fmt.Sprintf(`<%s id="%s">`, name, util.EscapeHTML([]byte(id))))
	} else if autolink {
		w.WriteString(fmt.Sprintf("</%s>", name))
		w.WriteString("</a>\n")
	} else if entering {
		w.WriteString(fmt.Sprintf(`<%s>`, name))
	} else {
		w.WriteString(fmt.Sprintf("</%s>\n", name))
	}

	return ast.WalkContinue, nil
}
