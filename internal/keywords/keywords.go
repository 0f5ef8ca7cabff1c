// Package keywords finds dictionary terms in article text in a single pass.
package keywords

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Matcher reports which of a fixed set of keywords occur as substrings of a text.
// Keywords and text are compared in lowercase.
type Matcher struct {
	mu       sync.Mutex // ahocorasick.Matcher keeps per-call state
	matcher  *ahocorasick.Matcher
	keywords []string
	whole    bool
}

// NewMatcher builds the automaton. Empty and repeated keywords are dropped.
func NewMatcher(words []string) *Matcher {
	return newMatcher(words, false)
}

// NewWordMatcher is like NewMatcher but only reports keywords that start and
// end on word boundaries, so "cor" does not hit inside "court". Plural endings
// are folded on both sides: "drivers" hits "driver", "penalties" hits "penalty".
func NewWordMatcher(words []string) *Matcher {
	return newMatcher(words, true)
}

func newMatcher(words []string, whole bool) *Matcher {
	seen := make(map[string]struct{}, len(words))
	m := &Matcher{keywords: make([]string, 0, len(words)), whole: whole}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if whole {
			w = joinWords(w)
		}
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		m.keywords = append(m.keywords, w)
	}
	if len(m.keywords) > 0 {
		dict := m.keywords
		if whole {
			dict = make([]string, len(m.keywords))
			for i, w := range m.keywords {
				dict[i] = " " + w + " "
			}
		}
		m.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return m
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// joinWords splits s into words, folds plurals and joins them with single spaces.
func joinWords(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = singular(w)
	}
	return strings.Join(words, " ")
}

// singular strips the common English plural endings. Words of three letters
// or fewer are left alone ("bus", "cor").
func singular(w string) string {
	n := len(w)
	switch {
	case n > 4 && strings.HasSuffix(w, "ies"):
		return w[:n-3] + "y"
	case n > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is"):
		return w[:n-1]
	}
	return w
}

// Hits returns every keyword found in text, each once, in dictionary order.
func (m *Matcher) Hits(text string) []string {
	if m == nil || m.matcher == nil || text == "" {
		return nil
	}

	text = strings.ToLower(text)
	if m.whole {
		text = " " + joinWords(text) + " "
	}

	m.mu.Lock()
	idx := m.matcher.Match([]byte(text))
	m.mu.Unlock()

	sort.Ints(idx)
	hits := make([]string, 0, len(idx))
	last := -1
	for _, i := range idx {
		if i == last || i >= len(m.keywords) {
			continue
		}
		last = i
		hits = append(hits, m.keywords[i])
	}
	return hits
}

// Count is len(Hits(text)).
func (m *Matcher) Count(text string) int {
	return len(m.Hits(text))
}

// Keywords returns the normalized dictionary.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}
