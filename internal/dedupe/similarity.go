package dedupe

import (
	"strings"
	"unicode"

	"github.com/deusflow/haulnews/internal/news"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "by": true, "from": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "has": true, "have": true, "had": true,
	"it": true, "its": true, "this": true, "that": true, "as": true, "will": true,
	"after": true, "over": true, "into": true, "about": true, "than": true,
	"their": true, "they": true, "he": true, "she": true, "we": true, "you": true,
	"not": true, "can": true, "all": true, "more": true, "up": true, "out": true,
}

// tokens splits normalized text into words on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(news.Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// wordSet keeps words longer than minLen runes.
func wordSet(s string, minLen int) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range tokens(s) {
		if len([]rune(w)) <= minLen {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Jaccard is |A ∩ B| / |A ∪ B|; two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Levenshtein is the unit-cost edit distance between a and b, in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NormalizedLevenshtein divides the distance by max(len(a), len(b), 1).
func NormalizedLevenshtein(a, b string) float64 {
	d := Levenshtein(a, b)
	longest := max(len([]rune(a)), len([]rune(b)), 1)
	return float64(d) / float64(longest)
}

// Similarity blends word-set Jaccard and character edit similarity:
// jw*Jaccard + (1-jw)*(1-normalizedLevenshtein), over normalized text.
func Similarity(a, b string, jaccardWeight float64, minWordLen int) float64 {
	na, nb := news.Normalize(a), news.Normalize(b)
	j := Jaccard(wordSet(na, minWordLen), wordSet(nb, minWordLen))
	lev := 1 - NormalizedLevenshtein(na, nb)
	return jaccardWeight*j + (1-jaccardWeight)*lev
}

// KeyPhrases maps every 3-word window of the text to the up-to-6-word phrase
// starting there. Windows with two or more stopwords, or whose 3-word core is
// not longer than minLen characters, are skipped.
func KeyPhrases(text string, minLen int) map[string]string {
	words := tokens(text)
	phrases := map[string]string{}
	for i := 0; i+3 <= len(words); i++ {
		core := words[i : i+3]
		stops := 0
		for _, w := range core {
			if stopWords[w] {
				stops++
			}
		}
		if stops >= 2 {
			continue
		}
		key := strings.Join(core, " ")
		if len([]rune(key)) <= minLen {
			continue
		}
		if _, seen := phrases[key]; seen {
			continue
		}
		phrases[key] = strings.Join(words[i:min(i+6, len(words))], " ")
	}
	return phrases
}

// PhraseOverlap is matching cores / max(len(a), len(b), 1).
func PhraseOverlap(a, b map[string]string) float64 {
	matches := 0
	for k := range a {
		if _, ok := b[k]; ok {
			matches++
		}
	}
	return float64(matches) / float64(max(len(a), len(b), 1))
}
