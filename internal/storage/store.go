// Package storage persists the article archive.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/haulnews/internal/news"
)

// Store is the article archive consumed by the pipeline. Implementations
// must make SaveArticles idempotent on content hash so that overlapping runs
// never write the same article twice.
type Store interface {
	// GetExistingHashes returns the content hash of every archived article.
	GetExistingHashes(ctx context.Context) ([]string, error)
	// SaveArticles appends articles whose hash is not archived yet and
	// returns the ones actually written, with IDs assigned.
	SaveArticles(ctx context.Context, articles []news.Article) ([]news.Article, error)
	// GetRecentArticles returns unused articles collected in the last days
	// whose segment is both, the requested one, or a compound tag naming it.
	GetRecentArticles(ctx context.Context, days int, segment news.Segment) ([]news.Article, error)
	// MarkArticlesAsUsed stamps issueID on the given articles and reports
	// how many rows changed.
	MarkArticlesAsUsed(ctx context.Context, ids []string, issueID string) (int, error)
	Close() error
}

// prepare fills in the fields a store owns before the first write.
func prepare(a news.Article, now time.Time) news.Article {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ContentHash == "" {
		a.ContentHash = news.ContentHash(a.Title, a.URL)
	}
	if a.CollectedAt.IsZero() {
		a.CollectedAt = now
	}
	if a.Segment == "" {
		a.Segment = news.SegmentBoth
	}
	a.UsedInIssue = ""
	return a
}

func cutoff(now time.Time, days int) time.Time {
	if days <= 0 {
		days = 1
	}
	return now.AddDate(0, 0, -days)
}
