package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	errorColor      = "\033[1;31m"
	errorFocusColor = "\033[1m"
	errorLineColor  = "\033[2m"
	resetColor      = "\033[0m"
)

// Re-exported so callers only need one errors import.
var (
	New = stderrors.New
	Is  = stderrors.Is
	As  = stderrors.As
)

var yamlLineErrorRegex = regexp.MustCompile(`yaml: line (\d+): `)
var templateParseErrorRegex = regexp.MustCompile(`template: .+:(\d+): `)
var templateExecErrorRegex = regexp.MustCompile(`template: .+:(\d+):(\d+): .+ <(.+?)>: `)
var colorRegex = regexp.MustCompile("\033\\[[0-9;]*m")

type codeFrameError struct {
	summary string
	err     error
	msg     string
	src     string
	line    int
	column  int
	file    string
	offset  int
}

func (e *codeFrameError) Unwrap() error {
	return e.err
}

func (e *codeFrameError) Error() string {
	lines := strings.Split(e.src, "\n")
	line := e.line - 1 // make line zero-based
	startLine := max(line-3, 0)
	endLine := min(line+3, len(lines)-1)

	var b strings.Builder

	if e.file != "" {
		lineNumber := e.offset + line + 1
		b.WriteString(fmt.Sprintf("%s%s:%d%s\n", errorFocusColor, e.file, lineNumber, resetColor))
	}

	for i := startLine; i <= endLine; i++ {
		lineColor := errorLineColor

		if i == line {
			lineColor = errorFocusColor
		}

		lineNumber := e.offset + i + 1
		b.WriteString(fmt.Sprintf("%s%3d%s %s\n", lineColor, lineNumber, resetColor, lines[i]))

		if i == line {
			underline := strings.Repeat("^", max(len(lines[line]), 1))
			b.WriteString(fmt.Sprintf("    %s%s%s\n", errorColor, underline, resetColor))
			b.WriteString(fmt.Sprintf("    %s%s%s\n", errorColor, e.msg, resetColor))
		}
	}

	return b.String()
}

// Converts a byte offset in src to a one-based line and column.
func loc(src string, offset int) (int, int) {
	offset = min(max(offset, 0), len(src))
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return line, col
}

func YamlParseError(err error, file string, src string) error {
	matches := yamlLineErrorRegex.FindStringSubmatch(err.Error())

	if len(matches) < 2 {
		return err
	}

	line, _ := strconv.Atoi(matches[1])
	msg := yamlLineErrorRegex.ReplaceAllString(err.Error(), "")
	return &codeFrameError{
		summary: "front matter parse error",
		file:    file,
		line:    line,
		src:     src,
		err:     err,
		msg:     msg,
	}
}

func TemplateParseError(err error, file string, src string, offset int) error {
	matches := templateParseErrorRegex.FindStringSubmatch(err.Error())

	if len(matches) < 2 {
		return err
	}

	line, _ := strconv.Atoi(matches[1])
	msg := templateParseErrorRegex.ReplaceAllString(err.Error(), "")
	return &codeFrameError{
		summary: "template parse error",
		file:    file,
		line:    line,
		offset:  offset,
		src:     src,
		err:     err,
		msg:     msg,
	}
}

func TemplateExecError(err error, file string, src string, offset int) error {
	matches := templateExecErrorRegex.FindStringSubmatch(err.Error())

	if len(matches) < 3 {
		return err
	}

	line, _ := strconv.Atoi(matches[1])
	column, _ := strconv.Atoi(matches[2])
	msg := templateExecErrorRegex.ReplaceAllString(err.Error(), "")
	return &codeFrameError{
		summary: "template evaluation error",
		file:    file,
		line:    line,
		offset:  offset,
		column:  column,
		src:     src,
		err:     err,
		msg:     msg,
	}
}

func JsonParseError(err error, file string, src string) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	if As(err, &syntaxErr) {
		line, col := loc(src, int(syntaxErr.Offset))

		return &codeFrameError{
			summary: "json parse error",
			file:    file,
			line:    line,
			column:  col,
			src:     src,
			err:     err,
			msg:     syntaxErr.Error(),
		}
	}

	if As(err, &typeErr) {
		line, col := loc(src, int(typeErr.Offset))

		return &codeFrameError{
			summary: "json invalid type",
			file:    file,
			line:    line,
			column:  col,
			src:     src,
			err:     err,
			msg:     fmt.Sprintf("expected %s to be a %s", typeErr.Field, typeErr.Type),
		}
	}

	return err
}

// ConfigError is an invalid value for a setting that only accepts a fixed
// set of values.
type ConfigError struct {
	File    string
	Key     string
	Value   string
	Allowed []string
}

func (e ConfigError) Error() string {
	allowed := append([]string(nil), e.Allowed...)
	sort.Strings(allowed)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: invalid value for %s: %q", e.File, e.Key, e.Value))

	if len(allowed) > 0 {
		b.WriteString("\n\nAllowed values:\n")
		for _, s := range allowed {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}

	return b.String()
}

func FmtError(err error) string {
	var cferr *codeFrameError

	if As(err, &cferr) {
		return fmt.Sprintf("%serror:%s %s\n\n%s", errorColor, resetColor, cferr.summary, cferr)
	} else {
		return fmt.Sprintf("%serror:%s %s", errorColor, resetColor, err)
	}
}

// NoColor formats err without terminal colours.
func NoColor(err error) string {
	return colorRegex.ReplaceAllString(FmtError(err), "")
}

var htmlColorCodes = map[string]string{
	errorColor:      `<span style="color: #e41010; font-weight: bold">`,
	errorLineColor:  `<span style="color: #adadad">`,
	errorFocusColor: `<span style="font-weight: bold">`,
	resetColor:      `</span>`,
}

func FmtErrorHtml(err error) string {
	str := FmtError(err)
	str = html.EscapeString(str)

	for color, tag := range htmlColorCodes {
		str = strings.ReplaceAll(str, color, tag)
	}

	var style strings.Builder
	style.WriteString("overflow-x: auto;")
	style.WriteString("font-family: Consolas,Menlo,Monaco,monospace;")
	style.WriteString("border-radius:8px;")
	style.WriteString("margin: 32px;")
	style.WriteString("border: solid 3px #e41010;")
	style.WriteString("padding: 16px;")
	return fmt.Sprintf(`<pre style="%s">%s</pre>`, style.String(), str)
}
