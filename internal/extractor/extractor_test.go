package extractor

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/haulnews/internal/news"
)

func testSource() news.Source {
	return news.Source{
		Name:     "NHVR",
		URL:      "https://www.nhvr.gov.au/news",
		Priority: 10,
		Category: "regulatory",
		Enabled:  true,
	}
}

func TestExtractUsesSourceSelectorFirst(t *testing.T) {
	t.Parallel()

	page := `
	<html><body>
	  <div class="media-release">
	    <span class="headline">NHVR releases new fatigue guidance for operators</span>
	    <a class="more" href="/news/fatigue-guidance">Read more</a>
	    <div class="intro">Operators must review their fatigue plans.</div>
	  </div>
	  <article><h2><a href="/news/other">Article fallback that should be ignored</a></h2></article>
	</body></html>`

	src := testSource()
	src.Selector = news.Selectors{Container: ".media-release", Title: ".headline", Link: "a.more", Summary: ".intro"}

	got := New(20).Extract(page, src)
	require.Len(t, got, 1)
	assert.Equal(t, "NHVR releases new fatigue guidance for operators", got[0].Title)
	assert.Equal(t, "https://www.nhvr.gov.au/news/fatigue-guidance", got[0].URL)
	assert.Equal(t, "Operators must review their fatigue plans.", got[0].Summary)
	assert.Equal(t, "NHVR", got[0].Source)
	assert.Equal(t, "regulatory", got[0].Category)
	assert.Equal(t, 10, got[0].Priority)
}

func TestExtractFirstMatchingStrategyWins(t *testing.T) {
	t.Parallel()

	page := `
	<html><body>
	  <article><h3>Roadside inspections ramp up in NSW</h3><a href="https://www.nhvr.gov.au/a">x</a><p>Summary A</p></article>
	  <div class="post"><h3>Post that must not be merged</h3><a href="https://www.nhvr.gov.au/b">y</a></div>
	</body></html>`

	got := New(20).Extract(page, testSource())
	require.Len(t, got, 1)
	assert.Equal(t, "Roadside inspections ramp up in NSW", got[0].Title)
	assert.Equal(t, "Summary A", got[0].Summary)
}

func TestExtractFallsBackThroughStrategies(t *testing.T) {
	t.Parallel()

	page := `
	<html><body>
	  <div class="news-item"><a href="story-1" title="Heavy vehicle charges rise from July">link</a></div>
	</body></html>`

	src := testSource()
	src.Selector.Container = ".does-not-exist"

	got := New(20).Extract(page, src)
	require.Len(t, got, 1)
	assert.Equal(t, "Heavy vehicle charges rise from July", got[0].Title)
	assert.Equal(t, "https://www.nhvr.gov.au/story-1", got[0].URL)
}

func TestExtractHeadingLinks(t *testing.T) {
	t.Parallel()

	page := `<html><body><h2><a href="//www.nhvr.gov.au/news/x">Bridge limits change for B-doubles</a></h2><p>Detail text</p></body></html>`

	got := New(20).Extract(page, testSource())
	require.Len(t, got, 1)
	assert.Equal(t, "Bridge limits change for B-doubles", got[0].Title)
	assert.Equal(t, "https://www.nhvr.gov.au/news/x", got[0].URL)
	assert.Equal(t, "Detail text", got[0].Summary)
}

func TestExtractCapsPerSource(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<article><h2>Story number %d about trucks</h2><a href="/s/%d">more</a></article>`, i, i)
	}
	b.WriteString("</body></html>")

	assert.Len(t, New(5).Extract(b.String(), testSource()), 5)
	assert.Len(t, New(0).Extract(b.String(), testSource()), DefaultMaxArticlesPerSource)
}

func TestExtractMalformedLinkYieldsEmptyURL(t *testing.T) {
	t.Parallel()

	page := `<html><body><article><h2>Title with a broken link here</h2><a href="http://[::1">x</a></article></body></html>`

	got := New(20).Extract(page, testSource())
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].URL)
}

func TestExtractFeedSource(t *testing.T) {
	t.Parallel()

	feed := `<?xml version="1.0"?>
	<rss version="2.0"><channel><title>Big Rigs</title>
	  <item><title>Chain of responsibility case lands in court</title>
	        <link>https://bigrigs.com.au/2024/05/01/cor-case/</link>
	        <description>&lt;p&gt;A Victorian operator faces &lt;b&gt;charges&lt;/b&gt;.&lt;/p&gt;</description></item>
	</channel></rss>`

	src := news.Source{Name: "Big Rigs", URL: "https://bigrigs.com.au/feed", Kind: "feed", Priority: 6, Category: "industry"}

	got := New(20).Extract(feed, src)
	require.Len(t, got, 1)
	assert.Equal(t, "Chain of responsibility case lands in court", got[0].Title)
	assert.Equal(t, "https://bigrigs.com.au/2024/05/01/cor-case/", got[0].URL)
	assert.Equal(t, "A Victorian operator faces charges.", got[0].Summary)
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://www.fullyloaded.com.au/industry-news/latest")
	require.NoError(t, err)

	tests := []struct {
		name string
		href string
		want string
	}{
		{"absolute passthrough", "http://example.com/a", "http://example.com/a"},
		{"protocol relative", "//cdn.fullyloaded.com.au/x", "https://cdn.fullyloaded.com.au/x"},
		{"root relative", "/news/1", "https://www.fullyloaded.com.au/news/1"},
		{"relative", "story-2", "https://www.fullyloaded.com.au/industry-news/story-2"},
		{"parent relative", "../about", "https://www.fullyloaded.com.au/about"},
		{"empty", "  ", ""},
		{"fragment only", "#top", ""},
		{"mailto", "mailto:editor@example.com", ""},
		{"malformed", "http://[::1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(tt.href, base))
		})
	}

	assert.Equal(t, "", ResolveURL("/news/1", nil))
}
