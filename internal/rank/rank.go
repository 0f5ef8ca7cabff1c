// Package rank assigns categories and audience segments to articles and
// orders them for a newsletter edition.
package rank

import (
	"sort"
	"strings"

	"github.com/deusflow/haulnews/internal/keywords"
	"github.com/deusflow/haulnews/internal/news"
)

type category struct {
	name    string
	matcher *keywords.Matcher
}

// Ranker holds the compiled keyword tables. Safe for concurrent use.
type Ranker struct {
	t          Tables
	categories []category
	pro        *keywords.Matcher
	driver     *keywords.Matcher
}

func New(t Tables) *Ranker {
	def := DefaultTables()
	if t.Fallback == "" {
		t.Fallback = def.Fallback
	}
	if t.Priorities == nil {
		t.Priorities = def.Priorities
	}
	if t.DefaultPriority == 0 {
		t.DefaultPriority = def.DefaultPriority
	}
	if t.PriorityWeight == 0 && t.RelevanceWeight == 0 {
		t.PriorityWeight, t.RelevanceWeight = def.PriorityWeight, def.RelevanceWeight
	}

	r := &Ranker{
		t:      t,
		pro:    keywords.NewWordMatcher(t.ProKeywords),
		driver: keywords.NewWordMatcher(t.DriverKeywords),
	}
	for _, c := range t.Categories {
		r.categories = append(r.categories, category{name: c.Name, matcher: keywords.NewMatcher(c.Keywords)})
	}
	return r
}

var defaultRanker = New(DefaultTables())

// Categorize uses the built-in tables.
func Categorize(a news.Article) string { return defaultRanker.Categorize(a) }

// Rank uses the built-in tables.
func Rank(articles []news.Article) []news.RankedArticle { return defaultRanker.Rank(articles) }

// TagSegment uses the built-in tables.
func TagSegment(a news.Article) news.Segment { return defaultRanker.TagSegment(a) }

// Categorize scores the article against every category list, one point per
// distinct keyword found. The single highest list wins; a tie at the top or
// no hits at all gives the fallback category.
func (r *Ranker) Categorize(a news.Article) string {
	content := a.Content()

	best, bestScore, tied := r.t.Fallback, 0, false
	for _, c := range r.categories {
		score := c.matcher.Count(content)
		switch {
		case score > bestScore:
			best, bestScore, tied = c.name, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return r.t.Fallback
	}
	return best
}

// Priority is the category weight used in the composite score.
func (r *Ranker) Priority(category string) int {
	if p, ok := r.t.Priorities[category]; ok {
		return p
	}
	return r.t.DefaultPriority
}

// Rank returns new ranked values sorted by composite score, highest first.
// Equal scores keep their input order. The input slice is not modified.
func (r *Ranker) Rank(articles []news.Article) []news.RankedArticle {
	ranked := make([]news.RankedArticle, len(articles))
	for i, a := range articles {
		p := r.Priority(a.Category)
		ranked[i] = news.RankedArticle{
			Article:          a,
			CategoryPriority: p,
			CompositeScore:   float64(p)*r.t.PriorityWeight + float64(a.RelevanceScore)*r.t.RelevanceWeight,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}

// TagSegment compares professional and driver keyword counts. A side with
// hits wins outright when the other side has none; otherwise it must lead by
// more than the margin. Everything else is both.
func (r *Ranker) TagSegment(a news.Article) news.Segment {
	content := a.Content()
	pro := r.pro.Count(content)
	driver := r.driver.Count(content)

	switch {
	case pro > 0 && driver == 0:
		return news.SegmentPro
	case driver > 0 && pro == 0:
		return news.SegmentDriver
	case pro-driver > r.t.SegmentMargin:
		return news.SegmentPro
	case driver-pro > r.t.SegmentMargin:
		return news.SegmentDriver
	}
	return news.SegmentBoth
}

// FilterSegment keeps articles tagged both or exactly the requested segment.
// With compound set, tags that contain the segment name also match, which
// archive rows written by older tooling may carry ("pro,driver").
// Requesting both keeps everything.
func FilterSegment(articles []news.Article, segment news.Segment, compound bool) []news.Article {
	out := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if MatchesSegment(a.Segment, segment, compound) {
			out = append(out, a)
		}
	}
	return out
}

// MatchesSegment is the predicate behind FilterSegment.
func MatchesSegment(tag, segment news.Segment, compound bool) bool {
	switch {
	case segment == news.SegmentBoth || segment == "":
		return true
	case tag == news.SegmentBoth || tag == segment:
		return true
	case compound:
		return strings.Contains(strings.ToLower(string(tag)), string(segment))
	}
	return false
}
