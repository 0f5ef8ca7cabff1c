// Package rewrite turns archived articles into newsletter copy through an
// external text service, guarding the parts the service must not change.
package rewrite

import (
	"context"
	"strings"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
)

// Item is one rewritten article. Items line up 1:1 with the input slice.
type Item struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Tip       string `json:"tip"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Category  string `json:"category"`
	ArticleID string `json:"-" yaml:"-"`
}

// Rewriter is the rewriting service.
type Rewriter interface {
	Rewrite(ctx context.Context, articles []news.Article, segment news.Segment) ([]Item, error)
}

// Reconcile aligns items with originals by index. Every original gets an
// item: missing or empty fields fall back to the original, an altered URL is
// restored, and the original ID is attached. Extra items are dropped.
func Reconcile(originals []news.Article, items []Item) []Item {
	out := make([]Item, len(originals))
	for i, orig := range originals {
		var it Item
		if i < len(items) {
			it = items[i]
		}

		if strings.TrimSpace(it.Title) == "" {
			it.Title = orig.Title
		}
		if strings.TrimSpace(it.Summary) == "" {
			it.Summary = orig.Summary
		}
		if it.URL != orig.URL {
			if it.URL != "" {
				logger.Warn("rewrite altered article url, restoring", "article_id", orig.ID, "got", it.URL, "want", orig.URL)
			}
			it.URL = orig.URL
		}
		if it.Source == "" {
			it.Source = orig.Source
		}
		if it.Category == "" {
			it.Category = orig.Category
		}
		it.ArticleID = orig.ID
		out[i] = it
	}
	if len(items) > len(originals) {
		logger.Warn("rewrite returned extra items", "got", len(items), "want", len(originals))
	}
	return out
}

// Passthrough returns the articles unchanged. Used when no service is configured.
type Passthrough struct{}

func (Passthrough) Rewrite(_ context.Context, articles []news.Article, _ news.Segment) ([]Item, error) {
	return Reconcile(articles, nil), nil
}
