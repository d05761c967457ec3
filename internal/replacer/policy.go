package replacer

import (
	"fmt"
	"regexp"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticPool holds transformer chains; a transform.Transformer carries state and
// must not be shared between goroutines.
var diacriticPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// StripDiacritics removes combining marks, so "B̊ad" and "Bad" compare equal.
func StripDiacritics(s string) string {
	if s == "" {
		return s
	}
	t := diacriticPool.Get().(transform.Transformer)
	defer diacriticPool.Put(t)
	t.Reset()

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Gate decides whether a search or replacement phrase may be used. It is read-only
// after construction and safe for concurrent use.
type Gate struct {
	patterns []*regexp.Regexp
}

// NewGate compiles the block-list. Each pattern is stripped of diacritics and matched
// case-insensitively.
func NewGate(patterns []string) (*Gate, error) {
	g := &Gate{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + StripDiacritics(p))
		if err != nil {
			return nil, fmt.Errorf("invalid blocked search phrase %d (%q): %w", i, p, err)
		}
		g.patterns = append(g.patterns, re)
	}
	return g, nil
}

// IsBlocked reports whether phrase matches any block-list pattern.
func (g *Gate) IsBlocked(phrase string) bool {
	if g == nil || len(g.patterns) == 0 {
		return false
	}
	phrase = StripDiacritics(phrase)
	for _, re := range g.patterns {
		if re.MatchString(phrase) {
			return true
		}
	}
	return false
}
