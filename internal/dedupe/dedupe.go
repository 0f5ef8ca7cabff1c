// Package dedupe removes near-duplicate articles.
//
// Within a batch every article is compared with each one already kept, using
// checks ordered from cheapest to most expensive. Against the archive only the
// content hash is used unless fuzzy archive matching is switched on.
package dedupe

import (
	"log/slog"
	"strings"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
)

// CheckName identifies which comparison flagged a duplicate.
type CheckName string

const (
	CheckNone        CheckName = ""
	CheckURL         CheckName = "url"
	CheckTitle       CheckName = "title"
	CheckTitleFuzzy  CheckName = "title_similarity"
	CheckContent     CheckName = "content_similarity"
	CheckKeyPhrases  CheckName = "key_phrases"
	CheckContentHash CheckName = "content_hash"
)

// ArchiveMode selects how new articles are compared with the archive.
type ArchiveMode string

const (
	ArchiveHash  ArchiveMode = "hash"
	ArchiveFuzzy ArchiveMode = "fuzzy"
)

// Thresholds are the tunables of the similarity checks. A pair is a duplicate
// when its score is strictly greater than the threshold.
type Thresholds struct {
	Title          float64
	Content        float64
	KeyPhrase      float64
	JaccardWeight  float64
	MinWordLen     int
	MinPhraseChars int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Title:          0.85,
		Content:        0.75,
		KeyPhrase:      0.3,
		JaccardWeight:  0.7,
		MinWordLen:     3,
		MinPhraseChars: 15,
	}
}

// Match is the outcome of comparing two articles.
type Match struct {
	Duplicate bool
	Check     CheckName
	Score     float64
}

// Deduplicator compares articles pairwise.
type Deduplicator struct {
	th  Thresholds
	log *slog.Logger
}

func New(th Thresholds) *Deduplicator {
	return &Deduplicator{th: th, log: logger.With("dedupe")}
}

// Check compares a with b, stopping at the first check that fires.
func (d *Deduplicator) Check(a, b news.Article) Match {
	if a.URL != "" && a.URL == b.URL {
		return Match{Duplicate: true, Check: CheckURL, Score: 1}
	}

	ta := strings.ToLower(strings.TrimSpace(a.Title))
	tb := strings.ToLower(strings.TrimSpace(b.Title))
	if ta != "" && ta == tb {
		return Match{Duplicate: true, Check: CheckTitle, Score: 1}
	}

	if s := Similarity(a.Title, b.Title, d.th.JaccardWeight, d.th.MinWordLen); s > d.th.Title {
		return Match{Duplicate: true, Check: CheckTitleFuzzy, Score: s}
	}

	ca := a.Title + " " + a.Summary
	cb := b.Title + " " + b.Summary
	if s := Similarity(ca, cb, d.th.JaccardWeight, d.th.MinWordLen); s > d.th.Content {
		return Match{Duplicate: true, Check: CheckContent, Score: s}
	}

	overlap := PhraseOverlap(KeyPhrases(ca, d.th.MinPhraseChars), KeyPhrases(cb, d.th.MinPhraseChars))
	if overlap > d.th.KeyPhrase {
		return Match{Duplicate: true, Check: CheckKeyPhrases, Score: overlap}
	}

	return Match{}
}

// Dedupe keeps the first article of every duplicate group, in input order.
func (d *Deduplicator) Dedupe(articles []news.Article) []news.Article {
	return d.DedupeAgainst(articles, nil)
}

// DedupeAgainst is Dedupe with existing articles pre-seeded as already kept;
// they are compared against but never returned.
func (d *Deduplicator) DedupeAgainst(articles, existing []news.Article) []news.Article {
	kept := make([]news.Article, 0, len(existing)+len(articles))
	kept = append(kept, existing...)
	unique := make([]news.Article, 0, len(articles))

	for _, a := range articles {
		duplicate := false
		for _, u := range kept {
			if m := d.Check(a, u); m.Duplicate {
				d.log.Debug("duplicate dropped", "title", a.Title, "matches", u.Title, "check", m.Check, "score", m.Score)
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, a)
		unique = append(unique, a)
	}
	return unique
}

// FilterKnown drops articles whose content hash is in known or repeats an
// earlier article in the same slice.
func FilterKnown(articles []news.Article, known []string) []news.Article {
	seen := make(map[string]struct{}, len(known)+len(articles))
	for _, h := range known {
		seen[h] = struct{}{}
	}

	out := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		hash := a.ContentHash
		if hash == "" {
			hash = news.ContentHash(a.Title, a.URL)
			a.ContentHash = hash
		}
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, a)
	}
	return out
}
