// Package rel adds link relation tokens to the anchors of rendered pages.
//
// A link gets the configured tokens when it opens in a new browsing context
// (target="_blank") or when it points outside of the installation. Tokens
// that are already on the link are kept, after the added ones, and no token
// appears twice.
package rel

import "strings"

const hintPrefix = "rel-"

// Config controls which tokens are added to a link.
type Config struct {
	// Tokens for external and _blank links, empty to disable them.
	Defaults []string
	// Tokens added alongside the defaults.
	Extra []string
	// Read tokens from classes named rel-<token>.
	ClassHints bool
	// Remove the rel-<token> classes once they've been read.
	StripHintClasses bool
	// Tokens accepted from class hints. Defaults to LinkTypes when nil.
	Allowed TypeSet
}

// DefaultConfig adds "noopener noreferrer" and nothing else.
func DefaultConfig() Config {
	return Config{
		Defaults: DefaultTokens,
		Allowed:  LinkTypes,
	}
}

// Patch is the result of composing a tag.
type Patch struct {
	// The patched tag, the original if nothing changed.
	Tag *Tag
	// Tokens in the final rel attribute, nil if the link was left alone.
	Tokens  []string
	Changed bool
}

// Compose works out the rel tokens for tag and returns a patched copy.
// internal is the classification of the link's url. Internal links that
// open in the same browsing context are returned untouched.
func (c *Config) Compose(tag *Tag, internal bool) Patch {
	target, _ := tag.Get("target")

	if target != "_blank" && internal {
		return Patch{Tag: tag}
	}

	out := tag.Clone()
	tokens := union(c.Defaults, c.Extra)

	if c.ClassHints {
		tokens = union(tokens, c.readHints(out))
	}

	if existing, ok := allRels(out); ok {
		tokens = union(tokens, existing)
		out.Set("rel", strings.Join(tokens, " "))
		dropRepeated(out, "rel")
	} else if len(tokens) > 0 {
		out.Set("rel", strings.Join(tokens, " "))
	}

	return Patch{
		Tag:     out,
		Tokens:  tokens,
		Changed: out.String() != tag.String(),
	}
}

// Collects tokens from rel-<token> classes, removing the classes from the
// tag when configured to.
func (c *Config) readHints(tag *Tag) []string {
	class, ok := tag.Get("class")
	if !ok {
		return nil
	}

	allowed := c.Allowed
	if allowed == nil {
		allowed = LinkTypes
	}

	var tokens []string
	extracted := map[string]bool{}

	for _, name := range Fields(class) {
		token, ok := strings.CutPrefix(name, hintPrefix)
		if !ok || !allowed[token] {
			continue
		}
		tokens = append(tokens, token)
		extracted[name] = true
	}

	if c.StripHintClasses && len(extracted) > 0 {
		class = removeTokens(class, extracted)
		if strings.TrimSpace(class) == "" {
			tag.Remove("class")
		} else {
			tag.Set("class", class)
		}
	}

	return tokens
}

// Collects the tokens of every rel attribute, browsers only read the first
// but the others are still on the tag.
func allRels(tag *Tag) ([]string, bool) {
	var tokens []string
	found := false

	for _, attr := range tag.Attrs {
		if attr.Namespace == "" && attr.Key == "rel" {
			tokens = append(tokens, Fields(attr.Val)...)
			found = true
		}
	}

	return tokens, found
}

// Keeps the first attribute called key and drops the rest.
func dropRepeated(tag *Tag, key string) {
	attrs := tag.Attrs[:0]
	seen := false

	for _, attr := range tag.Attrs {
		if attr.Namespace == "" && attr.Key == key {
			if seen {
				continue
			}
			seen = true
		}
		attrs = append(attrs, attr)
	}

	tag.Attrs = attrs
}
