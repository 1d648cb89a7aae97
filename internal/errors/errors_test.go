package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLoc(t *testing.T) {
	type test struct {
		input  string
		offset int
		line   int
		col    int
	}

	tests := []test{
		{
			input:  "hello\nworld",
			offset: 0,
			line:   1,
			col:    1,
		},
		{
			input:  "hello\nworld",
			offset: 6,
			line:   2,
			col:    1,
		},
		{
			input:  "hello\nworld",
			offset: 8,
			line:   2,
			col:    3,
		},
	}

	for _, tc := range tests {
		line, col := loc(tc.input, tc.offset)
		if line != tc.line || col != tc.col {
			t.Errorf("expected %d:%d, got %d:%d", tc.line, tc.col, line, col)
		}
	}
}

func TestJsonParseError(t *testing.T) {
	src := "{\n  \"BaseURL\": \"https://example.com\",\n  \"Sites\": [1]\n}"
	var config struct {
		BaseURL string
		Sites   []string
	}

	err := JsonParseError(json.Unmarshal([]byte(src), &config), ".noopener.json", src)
	actual := NoColor(err)

	if !strings.HasPrefix(actual, "error: json invalid type") {
		t.Errorf("expected a json type error, got %s", actual)
	}

	if !strings.Contains(actual, ".noopener.json:3") {
		t.Errorf("expected the error to point at line 3, got %s", actual)
	}
}

func TestJsonSyntaxError(t *testing.T) {
	src := "{\n  \"BaseURL\": \n}"
	var config struct{ BaseURL string }

	err := JsonParseError(json.Unmarshal([]byte(src), &config), "site.json", src)

	var syntaxErr *json.SyntaxError
	if !As(err, &syntaxErr) {
		t.Errorf("expected the syntax error to be wrapped, got %v", err)
	}

	if actual := NoColor(err); !strings.HasPrefix(actual, "error: json parse error") {
		t.Errorf("expected a json parse error, got %s", actual)
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError{
		File:    "site.json",
		Key:     "SyntaxColor",
		Value:   "nope",
		Allowed: []string{"css", "algol_nu"},
	}

	expected := "error: site.json: invalid value for SyntaxColor: \"nope\"\n\nAllowed values:\n- algol_nu\n- css\n"

	if actual := NoColor(err); actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}
