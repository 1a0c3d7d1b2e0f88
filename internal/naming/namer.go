// Package naming turns classified elements into stable test-hook identifiers.
//
// A slug is a pure function of (role, text hint, ordinal): no randomness, no
// clock and no environment, so identical inputs give byte-identical output
// across runs and machines.
package naming

import (
	"strconv"
	"strings"
)

const (
	// MaxWords caps how many words of the text hint reach the slug.
	MaxWords = 5
	// MaxLength caps the slug length in bytes.
	MaxLength = 60
	// Separator joins slug tokens.
	Separator = '-'
)

// LinkRole is the token used for anchor elements.
const LinkRole = "link"

// Namer builds slugs. The zero value is not usable; use DefaultNamer.
type Namer struct {
	MaxWords  int
	MaxLength int
}

// DefaultNamer returns a Namer with the package limits.
func DefaultNamer() Namer {
	return Namer{MaxWords: MaxWords, MaxLength: MaxLength}
}

// Slug names an element with the default limits.
func Slug(role, textHint string, ordinal int) string {
	return DefaultNamer().Slug(role, textHint, ordinal)
}

// RoleToken maps an element role to its slug token.
func RoleToken(role string) string {
	switch strings.ToLower(role) {
	case "a", "link-anchor":
		return LinkRole
	}
	return role
}

// Slug builds `<role>-<text>-<ordinal>`, normalized to [a-z0-9-].
//
// The ordinal suffix always survives truncation, so slugs from one run stay
// unique even when long hints are cut.
func (n Namer) Slug(role, textHint string, ordinal int) string {
	tokens := make([]string, 0, 3)
	tokens = append(tokens, RoleToken(role))
	if text := n.truncateWords(textHint); text != "" {
		tokens = append(tokens, text)
	}
	head := normalize(strings.Join(tokens, string(Separator)))
	tail := normalize(strconv.Itoa(ordinal))

	limit := n.MaxLength
	if limit <= 0 {
		limit = MaxLength
	}
	if head == "" {
		return clip(tail, limit)
	}
	if len(head)+1+len(tail) > limit {
		head = strings.TrimRight(clip(head, limit-1-len(tail)), string(Separator))
	}
	if head == "" {
		return clip(tail, limit)
	}
	return head + string(Separator) + tail
}

// truncateWords keeps the first line of s and at most MaxWords of its words.
func (n Namer) truncateWords(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	words := strings.Fields(s)
	max := n.MaxWords
	if max <= 0 {
		max = MaxWords
	}
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}

// normalize lowercases s, collapses every run of characters outside
// [a-z0-9] into one separator and trims separators from both ends.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte(Separator)
			}
			pending = false
			b.WriteByte(c)
			continue
		}
		pending = true
	}
	return b.String()
}

func clip(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Valid reports whether s looks like a slug the default Namer produces.
func Valid(s string) bool {
	return DefaultNamer().Valid(s)
}

// Valid reports whether s looks like a slug n produces.
func (n Namer) Valid(s string) bool {
	limit := n.MaxLength
	if limit <= 0 {
		limit = MaxLength
	}
	if s == "" || len(s) > limit {
		return false
	}
	if s[0] == Separator || s[len(s)-1] == Separator {
		return false
	}
	prevSep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSep = false
		case c == Separator:
			if prevSep {
				return false
			}
			prevSep = true
		default:
			return false
		}
	}
	return true
}
