package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/haulnews/internal/news"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		summary string
		want    string
	}{
		{"safety", "Truck rollover crash closes Hume Highway", "", CategorySafetyAlert},
		{"enforcement", "Operator fined after roadside blitz", "Magistrates court hears case", CategoryEnforcementAction},
		{"regulatory", "HVNL reform consultation opens", "", CategoryRegulatoryUpdate},
		{"technical", "Telematics and electronic work diary uptake", "", CategoryTechnicalUpdate},
		{"wellness", "Sleep and health checks for long-haul crews", "", CategoryDriverWellness},
		{"tie goes to fallback", "Crash case heard in court", "", CategoryIndustryNews},
		{"no hits", "Freight volumes steady in September", "", CategoryIndustryNews},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(news.Article{Title: tt.title, Summary: tt.summary})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankComposite(t *testing.T) {
	articles := []news.Article{
		{Title: "industry", Category: CategoryIndustryNews, RelevanceScore: 20},
		{Title: "safety", Category: CategorySafetyAlert, RelevanceScore: 5},
	}

	ranked := Rank(articles)
	require.Len(t, ranked, 2)

	assert.Equal(t, "safety", ranked[0].Title)
	assert.Equal(t, 100, ranked[0].CategoryPriority)
	assert.InDelta(t, 73.5, ranked[0].CompositeScore, 1e-9)

	assert.Equal(t, "industry", ranked[1].Title)
	assert.InDelta(t, 48.0, ranked[1].CompositeScore, 1e-9)

	// input untouched
	assert.Equal(t, "industry", articles[0].Title)
}

func TestRankStableAndDefaultPriority(t *testing.T) {
	ranked := Rank([]news.Article{
		{Title: "first", Category: "Unknown", RelevanceScore: 10},
		{Title: "second", Category: "Also unknown", RelevanceScore: 10},
		{Title: "wellness", Category: CategoryDriverWellness, RelevanceScore: 3},
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "wellness", ranked[0].Title)
	assert.Equal(t, 95, ranked[0].CategoryPriority)
	assert.Equal(t, "first", ranked[1].Title)
	assert.Equal(t, "second", ranked[2].Title)
	assert.Equal(t, 50, ranked[1].CategoryPriority)
	assert.InDelta(t, 38.0, ranked[1].CompositeScore, 1e-9)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestTagSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want news.Segment
	}{
		{"chain of responsibility only", "Operators reminded of chain of responsibility obligations", news.SegmentPro},
		{"driver only", "Practical tips for a pre-trip vehicle check", news.SegmentDriver},
		{"equal counts", "NHVR safety campaign", news.SegmentBoth},
		{"lead of one", "Audit and compliance of driver logs", news.SegmentBoth},
		{"lead of two", "Court penalty over fatigue compliance audit", news.SegmentPro},
		{"nothing", "Freight volumes steady", news.SegmentBoth},
		{"whole words only", "Court record shows defined routes", news.SegmentPro},
		{"driver plurals", "Drivers urged to check tyres and brakes before winter runs", news.SegmentDriver},
		{"pro plurals", "Operators hit with fines and penalties after audits", news.SegmentPro},
		{"cor not in corridor", "Corridor upgrade finished on the Hume", news.SegmentBoth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TagSegment(news.Article{Title: tt.text}))
		})
	}
}

func TestFilterSegment(t *testing.T) {
	articles := []news.Article{
		{ID: "1", Segment: news.SegmentPro},
		{ID: "2", Segment: news.SegmentDriver},
		{ID: "3", Segment: news.SegmentBoth},
		{ID: "4", Segment: "pro,driver"},
	}

	ids := func(in []news.Article) []string {
		var out []string
		for _, a := range in {
			out = append(out, a.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "3"}, ids(FilterSegment(articles, news.SegmentPro, false)))
	assert.Equal(t, []string{"1", "3", "4"}, ids(FilterSegment(articles, news.SegmentPro, true)))
	assert.Equal(t, []string{"2", "3", "4"}, ids(FilterSegment(articles, news.SegmentDriver, true)))
	assert.Len(t, FilterSegment(articles, news.SegmentBoth, false), 4)
}

func TestCustomTables(t *testing.T) {
	r := New(Tables{
		Categories:     []CategoryRule{{Name: "Ports", Keywords: []string{"port", "container"}}},
		ProKeywords:    []string{"tender"},
		DriverKeywords: []string{"queue"},
		SegmentMargin:  1,
	})

	a := news.Article{Title: "Port container queue grows", RelevanceScore: 10}
	assert.Equal(t, "Ports", r.Categorize(a))
	assert.Equal(t, news.SegmentDriver, r.TagSegment(a))
	assert.Equal(t, 50, r.Priority("Ports"))
}
