package rel

import "strings"

// TypeSet is a vocabulary of accepted link types.
type TypeSet map[string]bool

func NewTypeSet(types ...string) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// LinkTypes are the link types that make sense on an anchor, from the HTML
// standard plus the ones search engines recognise.
var LinkTypes = NewTypeSet(
	"alternate",
	"author",
	"bookmark",
	"external",
	"help",
	"license",
	"next",
	"nofollow",
	"noopener",
	"noreferrer",
	"opener",
	"prev",
	"privacy-policy",
	"search",
	"sponsored",
	"tag",
	"terms-of-service",
	"ugc",
)

// DefaultTokens are added to every external link and every link that opens
// a new browsing context.
var DefaultTokens = []string{"noopener", "noreferrer"}

// Joins token lists, keeping the first occurrence of each token.
func union(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}

	for _, list := range lists {
		for _, token := range list {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, token)
		}
	}

	return out
}

// Fields splits an attribute value into tokens on ASCII whitespace.
func Fields(s string) []string {
	return strings.FieldsFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}

// Removes the tokens in drop from a space separated value, leaving the
// whitespace in front of every kept token as it was.
func removeTokens(value string, drop map[string]bool) string {
	var b strings.Builder
	i := 0

	for i < len(value) {
		start := i
		for i < len(value) && isSpace(rune(value[i])) {
			i++
		}
		tokenStart := i
		for i < len(value) && !isSpace(rune(value[i])) {
			i++
		}

		token := value[tokenStart:i]
		if token == "" {
			// trailing whitespace
			b.WriteString(value[start:i])
			continue
		}
		if !drop[token] {
			b.WriteString(value[start:i])
		}
	}

	out := b.String()

	// Don't leave whitespace in front of the first token unless the value
	// started with it.
	if len(value) > 0 && !isSpace(rune(value[0])) {
		out = strings.TrimLeftFunc(out, isSpace)
	}

	return out
}
