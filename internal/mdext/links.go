package mdext

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/danprince/noopener/internal/rel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type linksExtension struct {
	hook *rel.Hook
}

// Points links at markdown pages to their html output and passes every
// anchor through hook on the way out. Anchors in raw html are included when
// the renderer is allowed to output raw html.
func NewLinks(hook *rel.Hook) goldmark.Extender {
	return &linksExtension{hook: hook}
}

func (e *linksExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&pageLinks{}, 200),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&linkRenderer{Config: html.NewConfig(), hook: e.hook}, 200),
	))
}

type pageLinks struct {
}

func (t *pageLinks) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindLink {
			return ast.WalkContinue, nil
		}

		link := n.(*ast.Link)
		src := string(link.Destination)

		if isPagePath(src) {
			src = strings.Replace(src, ".md", ".html", 1)
			src = strings.Replace(src, "index.html", "", 1)
			link.Destination = []byte(src)
		}

		return ast.WalkContinue, nil
	})
}

// Only local paths to markdown files are rewritten, a README.md on another
// site stays as it is.
func isPagePath(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return strings.HasSuffix(u.Path, ".md") && u.RawQuery == "" && u.Fragment == ""
}

type linkRenderer struct {
	html.Config
	hook *rel.Hook
}

func (r *linkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

// Runs the hook and writes the opening tag.
func (r *linkRenderer) writeTag(w util.BufWriter, dest string, tag *rel.Tag) {
	link := &rel.Link{URL: dest, Tag: tag}

	if r.hook != nil {
		r.hook.Run(link)
	}

	w.WriteString(link.Tag.String())
}

func (r *linkRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)

	if !entering {
		w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	tag := &rel.Tag{Name: "a"}
	href := ""

	if r.Unsafe || !html.IsDangerousURL(n.Destination) {
		href = string(util.URLEscape(n.Destination, true))
	}

	tag.Add("href", href)

	if n.Title != nil {
		tag.Add("title", string(unescape(n.Title)))
	}

	copyAttributes(tag, n)
	r.writeTag(w, string(n.Destination), tag)

	return ast.WalkContinue, nil
}

func (r *linkRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.AutoLink)

	if !entering {
		return ast.WalkContinue, nil
	}

	dest := n.URL(source)
	label := n.Label(source)

	if n.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(dest), []byte("mailto:")) {
		dest = append([]byte("mailto:"), dest...)
	}

	tag := &rel.Tag{Name: "a"}
	tag.Add("href", string(util.URLEscape(dest, false)))
	copyAttributes(tag, n)
	r.writeTag(w, string(dest), tag)

	w.Write(util.EscapeHTML(label))
	w.WriteString("</a>")

	return ast.WalkContinue, nil
}

func (r *linkRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}

	if !r.Unsafe {
		w.WriteString("<!-- raw HTML omitted -->")
		return ast.WalkSkipChildren, nil
	}

	n := node.(*ast.RawHTML)
	var buf bytes.Buffer

	for i := 0; i < n.Segments.Len(); i++ {
		segment := n.Segments.At(i)
		buf.Write(segment.Value(source))
	}

	w.WriteString(r.rewrite(buf.String()))
	return ast.WalkSkipChildren, nil
}

func (r *linkRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.HTMLBlock)

	if !r.Unsafe {
		if entering || n.HasClosure() {
			w.WriteString("<!-- raw HTML omitted -->\n")
		}
		return ast.WalkContinue, nil
	}

	var buf bytes.Buffer

	if entering {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}
	} else if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(source))
	}

	w.WriteString(r.rewrite(buf.String()))
	return ast.WalkContinue, nil
}

func (r *linkRenderer) rewrite(fragment string) string {
	if r.hook == nil {
		return fragment
	}
	return r.hook.RewriteHTML(fragment)
}

var dataPrefix = []byte("data-")

// Copies the attributes goldmark would render for a link onto tag.
func copyAttributes(tag *rel.Tag, node ast.Node) {
	for _, attr := range node.Attributes() {
		if !html.LinkAttributeFilter.Contains(attr.Name) && !bytes.HasPrefix(attr.Name, dataPrefix) {
			continue
		}

		var val string

		switch v := attr.Value.(type) {
		case []byte:
			val = string(v)
		case string:
			val = v
		default:
			val = fmt.Sprint(v)
		}

		tag.Add(string(attr.Name), val)
	}
}

// Resolves backslash escapes and entity references in a link title, the
// same way goldmark does before escaping it again.
func unescape(s []byte) []byte {
	s = util.UnescapePunctuations(s)
	s = util.ResolveNumericReferences(s)
	return util.ResolveEntityNames(s)
}
