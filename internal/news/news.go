// Package news holds the article model shared by every stage of the pipeline.
package news

import (
	"strings"
	"time"
)

// Segment is the audience a newsletter edition is written for.
type Segment string

const (
	SegmentPro    Segment = "pro"
	SegmentDriver Segment = "driver"
	SegmentBoth   Segment = "both"
)

// ParseSegment accepts "pro", "driver" or "both" in any case.
func ParseSegment(s string) (Segment, bool) {
	switch Segment(strings.ToLower(strings.TrimSpace(s))) {
	case SegmentPro:
		return SegmentPro, true
	case SegmentDriver:
		return SegmentDriver, true
	case SegmentBoth:
		return SegmentBoth, true
	}
	return "", false
}

// Source is a configured news website. Immutable for the run.
type Source struct {
	Name     string    `yaml:"name" json:"name"`
	URL      string    `yaml:"url" json:"url"`
	Kind     string    `yaml:"kind" json:"kind"` // "html" (default) or "feed"
	Priority int       `yaml:"priority" json:"priority"`
	Category string    `yaml:"category" json:"category"`
	Enabled  bool      `yaml:"-" json:"enabled"` // set by config.LoadSources
	Selector Selectors `yaml:"selectors" json:"selectors"`
}

// Selectors are the source-specific CSS hints tried before the generic fallbacks.
type Selectors struct {
	Container string `yaml:"container" json:"container"`
	Title     string `yaml:"title" json:"title"`
	Link      string `yaml:"link" json:"link"`
	Summary   string `yaml:"summary" json:"summary"`
}

// IsFeed reports whether the source publishes RSS/Atom instead of HTML listings.
func (s Source) IsFeed() bool {
	return strings.EqualFold(s.Kind, "feed")
}

// Candidate is an unvalidated title/url/summary triple pulled from a page.
type Candidate struct {
	Title    string
	URL      string
	Summary  string
	Source   string
	Category string
	Priority int
}

// Article is a candidate that passed validation.
type Article struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Summary        string    `json:"summary"`
	Source         string    `json:"source"`
	SourceCategory string    `json:"source_category"`
	Category       string    `json:"category"`
	RelevanceScore int       `json:"relevance_score"`
	Segment        Segment   `json:"segment"`
	ContentHash    string    `json:"content_hash"`
	CollectedAt    time.Time `json:"collected_at"`
	UsedInIssue    string    `json:"used_in_issue,omitempty"`
}

// Content is the title and summary joined the way keyword matching sees them.
func (a Article) Content() string {
	return Normalize(a.Title + " " + a.Summary)
}

// RankedArticle pairs an article with the scores used to order it.
type RankedArticle struct {
	Article
	CategoryPriority int     `json:"category_priority"`
	CompositeScore   float64 `json:"composite_score"`
}
