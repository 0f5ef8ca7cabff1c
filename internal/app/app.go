// Package app builds a pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/deusflow/haulnews/internal/cache"
	"github.com/deusflow/haulnews/internal/config"
	"github.com/deusflow/haulnews/internal/dedupe"
	"github.com/deusflow/haulnews/internal/extractor"
	"github.com/deusflow/haulnews/internal/fetcher"
	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/metrics"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/pipeline"
	"github.com/deusflow/haulnews/internal/rank"
	"github.com/deusflow/haulnews/internal/ratelimit"
	"github.com/deusflow/haulnews/internal/rewrite"
	"github.com/deusflow/haulnews/internal/storage"
	"github.com/deusflow/haulnews/internal/validate"
)

type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Budget   *ratelimit.Budget

	store  storage.Store
	gemini *rewrite.Gemini
	cancel context.CancelFunc
}

// New opens the store and wires every stage. Close releases them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bg, cancel := context.WithCancel(context.Background())
	a := &App{
		Config: cfg,
		Budget: ratelimit.NewBudget("gemini", cfg.MaxRewriteRequests, 24*time.Hour),
		store:  store,
		cancel: cancel,
	}

	var rw rewrite.Rewriter = rewrite.Passthrough{}
	if cfg.GeminiAPIKey != "" {
		g, err := rewrite.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gemini = g
		if rw, err = a.cached(bg, g); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, issues will use original copy")
	}

	rules := validate.DefaultRules()
	rules.MinTitleLength = cfg.MinTitleLength
	rules.MaxTitleLength = cfg.MaxTitleLength
	rules.MinScore = cfg.MinRelevanceScore

	a.Pipeline = pipeline.New(pipeline.Deps{
		Fetcher: fetcher.New(nil, fetcher.Config{
			Timeout:       cfg.RequestTimeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			SourceDelay:   cfg.SourceDelay,
		}),
		Extractor: extractor.New(cfg.MaxArticlesPerSource),
		Validator: validate.New(rules),
		Dedupe:    dedupe.New(dedupe.DefaultThresholds()),
		Ranker:    rank.New(rank.DefaultTables()),
		Store:     store,
		Rewriter:  rw,
	}, pipeline.Options{
		ArchiveMode:  dedupe.ArchiveMode(cfg.ArchiveDedupMode),
		LookbackDays: cfg.LookbackDays,
		MinArticles:  cfg.MinArticles,
		MaxArticles:  cfg.MaxArticlesPerIssue,
	})
	return a, nil
}

// cached wraps svc with the rewrite memo and request budget, restoring both
// from the state file left by earlier runs.
func (a *App) cached(ctx context.Context, svc rewrite.Rewriter) (*rewrite.Cached, error) {
	ttl := time.Duration(a.Config.RewriteCacheTTLHours) * time.Hour
	c := rewrite.NewCached(svc, cache.New[rewrite.Item](ctx, time.Hour), a.Budget, ttl)
	if a.Config.RewriteStatePath == "" {
		return c, nil
	}
	if err := c.Persist(a.Config.RewriteStatePath); err != nil {
		return nil, err
	}
	return c, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "file":
		return storage.NewFileStore(cfg.CacheFilePath)
	case "sqlite", "postgres":
		return storage.NewSQLStore(ctx, cfg.StoreDriver, cfg.StoreDSN)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// Sources loads the enabled sources from the configured YAML file.
func (a *App) Sources() ([]news.Source, error) {
	sources, err := config.LoadSources(a.Config.SourcesConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled sources in %s", a.Config.SourcesConfigPath)
	}
	return sources, nil
}

// ScrapeAndSave runs one collection pass and archives the new articles.
func (a *App) ScrapeAndSave(ctx context.Context) (pipeline.Report, []news.Article, error) {
	sources, err := a.Sources()
	if err != nil {
		metrics.Global.SetError(err.Error())
		return pipeline.Report{}, nil, err
	}

	report, err := a.Pipeline.Scrape(ctx, sources)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return report, nil, err
	}
	for _, f := range report.Failures {
		logger.Warn("source skipped", "source", f.Source, "url", f.URL, "error", f.Err)
	}

	saved, err := a.Pipeline.Save(ctx, report.Plain())
	if err != nil {
		metrics.Global.SetError(err.Error())
		return report, nil, err
	}
	return report, saved, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.gemini != nil {
		a.gemini.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}
}
