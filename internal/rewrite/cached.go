package rewrite

import (
	"context"
	"errors"
	"time"

	"github.com/deusflow/haulnews/internal/cache"
	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/metrics"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/ratelimit"
)

// Cached memoizes rewrites per article and segment and spends one budget
// unit per call to the wrapped service. When the budget is spent the
// uncached articles pass through unchanged.
type Cached struct {
	next   Rewriter
	cache  *cache.Cache[Item]
	budget *ratelimit.Budget
	ttl    time.Duration
	path   string
}

func NewCached(next Rewriter, c *cache.Cache[Item], budget *ratelimit.Budget, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, budget: budget, ttl: ttl}
}

func cacheKey(a news.Article, segment news.Segment) string {
	hash := a.ContentHash
	if hash == "" {
		hash = news.ContentHash(a.Title, a.URL)
	}
	return string(segment) + ":" + hash
}

func (c *Cached) Rewrite(ctx context.Context, articles []news.Article, segment news.Segment) ([]Item, error) {
	defer func() {
		if err := c.save(); err != nil {
			logger.Warn("failed to save rewrite state", "path", c.path, "error", err)
		}
	}()

	items := make([]Item, len(articles))
	var (
		missing    []news.Article
		missingIdx []int
	)
	for i, a := range articles {
		if it, ok := c.cache.Get(cacheKey(a, segment)); ok {
			items[i] = it
			c.budget.RecordCacheHit()
			metrics.IncRewrite("cache_hit")
			continue
		}
		missing = append(missing, a)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		fresh, err := c.fetch(ctx, missing, segment)
		if err != nil {
			return nil, err
		}
		for j, it := range fresh {
			items[missingIdx[j]] = it
		}
	}
	return Reconcile(articles, items), nil
}

func (c *Cached) fetch(ctx context.Context, articles []news.Article, segment news.Segment) ([]Item, error) {
	if err := c.budget.Use(); err != nil {
		if errors.Is(err, ratelimit.ErrBudgetExhausted) {
			logger.Warn("rewrite budget exhausted, using original copy", "articles", len(articles))
			metrics.IncRewrite("skipped")
			return Reconcile(articles, nil), nil
		}
		return nil, err
	}

	raw, err := c.next.Rewrite(ctx, articles, segment)
	if err != nil {
		metrics.IncRewrite("error")
		return nil, err
	}
	metrics.IncRewrite("ok")

	fresh := Reconcile(articles, raw)
	for i, a := range articles {
		c.cache.Set(cacheKey(a, segment), fresh[i], c.ttl)
	}
	return fresh, nil
}
