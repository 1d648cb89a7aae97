package builder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danprince/noopener/internal/rel"
)

// Flag is a boolean setting that also accepts the strings and numbers
// people tend to write instead, like "0" or "false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any

	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	b, err := parseFlag(v)
	if err != nil {
		return err
	}

	*f = Flag(b)
	return nil
}

func parseFlag(v any) (bool, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "off", "no":
			return false, nil
		case "1", "true", "on", "yes":
			return true, nil
		}
	}

	return false, fmt.Errorf("expected a boolean, got %v", v)
}

// Tokens is a list of rel tokens written as a space separated string or a
// list of strings.
type Tokens []string

func (t *Tokens) UnmarshalJSON(data []byte) error {
	var v any

	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	tokens, err := parseTokens(v)
	if err != nil {
		return err
	}

	*t = tokens
	return nil
}

func parseTokens(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return rel.Fields(v), nil
	case []string:
		return v, nil
	case []any:
		var tokens []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %v", item)
			}
			tokens = append(tokens, rel.Fields(s)...)
		}
		return tokens, nil
	}

	return nil, fmt.Errorf("expected a string or a list of strings, got %v", v)
}
