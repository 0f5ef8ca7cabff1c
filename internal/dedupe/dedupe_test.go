package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/haulnews/internal/news"
)

func article(title, url, summary string) news.Article {
	return news.Article{
		Title:       title,
		URL:         url,
		Summary:     summary,
		ContentHash: news.ContentHash(title, url),
	}
}

func TestCheckOrder(t *testing.T) {
	d := New(DefaultThresholds())

	base := article("Hume Highway closed after B-double rollover", "https://example.com/a", "Traffic diverted near Goulburn.")

	tests := []struct {
		name  string
		other news.Article
		want  CheckName
	}{
		{
			name:  "same url",
			other: article("Completely different headline here", "https://example.com/a", "Other text."),
			want:  CheckURL,
		},
		{
			name:  "same title different case",
			other: article("  HUME HIGHWAY CLOSED AFTER B-DOUBLE ROLLOVER ", "https://example.com/b", "Other text."),
			want:  CheckTitle,
		},
		{
			name:  "near identical title",
			other: article("Hume Highway closed after B-double rollover!!", "https://example.com/c", "Other text."),
			want:  CheckTitleFuzzy,
		},
		{
			name:  "unrelated",
			other: article("NHVR opens consultation on work diary exemptions", "https://example.com/d", "Operators have until March to respond."),
			want:  CheckNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := d.Check(tt.other, base)
			assert.Equal(t, tt.want, m.Check)
			assert.Equal(t, tt.want != CheckNone, m.Duplicate)
		})
	}
}

func TestCheckKeyPhrases(t *testing.T) {
	d := New(DefaultThresholds())

	summary := "Heavy vehicle national law reform package introduces mandatory electronic work diaries for long haul operators from next July."
	a := article("Ministers sign off on transport overhaul", "https://example.com/1", summary)
	b := article("Industry reacts: what the changes mean for your fleet and drivers", "https://example.com/2", summary+" Associations have welcomed the move.")

	m := d.Check(a, b)
	require.True(t, m.Duplicate)
	assert.Equal(t, CheckKeyPhrases, m.Check)
	assert.InDelta(t, 0.56, m.Score, 0.01)
}

func TestCheckContent(t *testing.T) {
	d := New(DefaultThresholds())

	summary := "Heavy vehicle national law reform package introduces mandatory electronic work diaries for long haul operators from next July, with fines for missing entries."
	a := article("Work diaries go electronic next July", "https://example.com/1", summary)
	b := article("Paper logbooks on the way out for long haul", "https://example.com/2", summary)

	assert.Less(t, Similarity(a.Title, b.Title, 0.7, 3), 0.85)

	m := d.Check(a, b)
	require.True(t, m.Duplicate)
	assert.Equal(t, CheckContent, m.Check)
	assert.Greater(t, m.Score, 0.75)
}

func TestDedupeCollapsesPunctuationVariants(t *testing.T) {
	d := New(DefaultThresholds())

	out := d.Dedupe([]news.Article{
		article("NHVR Announces New Fatigue Rules", "https://example.com/one", ""),
		article("NHVR announces new fatigue rules!!", "https://example.com/two", ""),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/one", out[0].URL)
}

func TestDedupeKeepsFirstInOrder(t *testing.T) {
	d := New(DefaultThresholds())

	in := []news.Article{
		article("Queensland roadworks delay freight on Bruce Highway", "https://a.example/1", "Night closures scheduled."),
		article("Tyre pressure checks before long runs", "https://a.example/2", "Simple walkaround advice."),
		article("Queensland roadworks delay freight on Bruce Highway", "https://b.example/9", "Night closures scheduled."),
		article("Court fines operator over chain of responsibility breach", "https://a.example/1", "Different story, same link."),
	}

	out := d.Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].URL, out[0].URL)
	assert.Equal(t, in[1].URL, out[1].URL)
}

func TestDedupeAgainstExisting(t *testing.T) {
	d := New(DefaultThresholds())

	existing := []news.Article{article("NHVR Announces New Fatigue Rules", "https://old.example/x", "")}
	out := d.DedupeAgainst([]news.Article{
		article("NHVR announces new fatigue rules!!", "https://new.example/y", ""),
		article("Port of Melbourne container backlog eases", "https://new.example/z", ""),
	}, existing)

	require.Len(t, out, 1)
	assert.Equal(t, "https://new.example/z", out[0].URL)
}

func TestFilterKnown(t *testing.T) {
	a := article("Weighbridge blitz on Pacific Highway", "https://example.com/wb", "")
	b := article("New rest area opens near Gundagai", "https://example.com/rest", "")
	c := article("Weighbridge blitz on Pacific Highway", "https://example.com/wb/", "")

	out := FilterKnown([]news.Article{a, b, c}, []string{b.ContentHash})

	require.Len(t, out, 1)
	assert.Equal(t, a.URL, out[0].URL)
}

func TestFilterKnownComputesMissingHash(t *testing.T) {
	a := news.Article{Title: "Weighbridge blitz", URL: "https://example.com/wb"}
	out := FilterKnown([]news.Article{a}, []string{news.ContentHash(a.Title, a.URL)})
	assert.Empty(t, out)
}
