package urlfilter

import (
	"slices"
	"strings"
)

var schemes = []string{"http://", "https://"}

// Filter decides whether a text is a link worth summarizing.
type Filter struct {
	allow []string
	deny  []string
}

func New(allow, deny []string) *Filter {
	return &Filter{
		allow: slices.Clone(allow),
		deny:  slices.Clone(deny),
	}
}

// Accepts reports whether text is an http(s) URL that passes the allow-list
// and is not matched by the deny-list. Deny wins over allow.
func (f *Filter) Accepts(text string) bool {
	text = strings.TrimSpace(text)

	if !hasAnyPrefix(text, schemes) {
		return false
	}

	if len(f.allow) > 0 && !hasAnyPrefix(text, f.allow) {
		return false
	}

	return !hasAnyPrefix(text, f.deny)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(prefix string) bool {
		return strings.HasPrefix(s, prefix)
	})
}
