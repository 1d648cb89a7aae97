package mdext

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// CSSStyle is a pseudo style that emits classes instead of inline colours.
const CSSStyle = "css"

type syntaxHighlighting struct {
	style   *chroma.Style
	classes bool
	options []html.Option
}

func (e *syntaxHighlighting) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(e, 200),
	))
}

// Highlights fenced code blocks with chroma. Unknown styles fall back to
// chroma's default.
func NewSyntaxHighlighting(style string, options ...html.Option) goldmark.Extender {
	classes := style == CSSStyle

	if classes {
		style = "github"
	}

	return &syntaxHighlighting{
		style:   styles.Get(style),
		classes: classes,
		options: options,
	}
}

// HasStyle reports whether style can be passed to NewSyntaxHighlighting.
func HasStyle(style string) bool {
	_, ok := styles.Registry[style]
	return ok || style == CSSStyle
}

func (r *syntaxHighlighting) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *syntaxHighlighting) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)

	if !entering {
		return ast.WalkContinue, nil
	}

	language, highlights := parseHighlightRanges(string(n.Language(source)))

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, err
	}

	options := append([]html.Option{
		html.Standalone(false),
		html.HighlightLines(highlights),
		html.WithClasses(r.classes),
	}, r.options...)

	if err := html.New(options...).Format(w, r.style, iterator); err != nil {
		return ast.WalkStop, err
	}

	return ast.WalkContinue, nil
}

type lineRange = [2]int

// Parses highlight line ranges from a fenced codeblock language name in
// the prismjs format: https://prismjs.com/plugins/line-highlight/#how-to-use
func parseHighlightRanges(s string) (string, []lineRange) {
	lang, rest, found := strings.Cut(s, "/")

	if !found {
		return s, []lineRange{}
	}

	parts := strings.Split(strings.ReplaceAll(rest, " ", ""), ",")
	ranges := make([]lineRange, 0, len(parts))

	for _, part := range parts {
		nums := strings.Split(part, "-")
		start, _ := strconv.Atoi(nums[0])
		end := -1

		if len(nums) >= 2 {
			end, _ = strconv.Atoi(nums[1])
		}

		if end < start {
			end = start
		}

		// Chroma wants zero based indexes
		if start -= 1; start >= 0 {
			ranges = append(ranges, lineRange{start, end - 1})
		}
	}

	return lang, ranges
}
