package news

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var punctuationReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"…", "...",
)

// Normalize lowercases text, folds curly quotes and the ellipsis character
// and collapses every run of whitespace to one space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = punctuationReplacer.Replace(s)
	s = cases.Lower(language.English).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// ContentHash is the archive dedup key: a digest of the normalized title and URL.
func ContentHash(title, link string) string {
	normalizedTitle := Normalize(title)
	normalizedLink := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(link)), "/")

	h := sha256.New()
	h.Write([]byte(normalizedTitle + "|" + normalizedLink))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
