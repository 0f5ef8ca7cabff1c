// Package pipeline runs the scrape and selection flows over the stage packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/haulnews/internal/dedupe"
	"github.com/deusflow/haulnews/internal/extractor"
	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/metrics"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/rank"
	"github.com/deusflow/haulnews/internal/rewrite"
	"github.com/deusflow/haulnews/internal/storage"
	"github.com/deusflow/haulnews/internal/validate"
)

// ErrInsufficientContent means fewer articles than an issue needs survived selection.
var ErrInsufficientContent = errors.New("insufficient content for issue")

// PageFetcher downloads source pages and paces consecutive sources.
type PageFetcher interface {
	Fetch(ctx context.Context, src news.Source) (string, error)
	Wait(ctx context.Context) error
}

// Deps are the stage implementations.
type Deps struct {
	Fetcher   PageFetcher
	Extractor *extractor.Extractor
	Validator *validate.Validator
	Dedupe    *dedupe.Deduplicator
	Ranker    *rank.Ranker
	Store     storage.Store
	Rewriter  rewrite.Rewriter
}

type Options struct {
	ArchiveMode  dedupe.ArchiveMode
	LookbackDays int
	MinArticles  int
	MaxArticles  int
}

func DefaultOptions() Options {
	return Options{
		ArchiveMode:  dedupe.ArchiveHash,
		LookbackDays: 7,
		MinArticles:  3,
		MaxArticles:  8,
	}
}

type Pipeline struct {
	deps Deps
	opts Options
	log  *slog.Logger
}

func New(deps Deps, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.ArchiveMode == "" {
		opts.ArchiveMode = def.ArchiveMode
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = def.LookbackDays
	}
	if opts.MinArticles <= 0 {
		opts.MinArticles = def.MinArticles
	}
	if deps.Extractor == nil {
		deps.Extractor = extractor.New(0)
	}
	if deps.Validator == nil {
		deps.Validator = validate.New(validate.DefaultRules())
	}
	if deps.Dedupe == nil {
		deps.Dedupe = dedupe.New(dedupe.DefaultThresholds())
	}
	if deps.Ranker == nil {
		deps.Ranker = rank.New(rank.DefaultTables())
	}
	if deps.Rewriter == nil {
		deps.Rewriter = rewrite.Passthrough{}
	}
	return &Pipeline{deps: deps, opts: opts, log: logger.With("pipeline")}
}

// SourceFailure records a source that could not be fetched.
type SourceFailure struct {
	Source string
	URL    string
	Err    error
}

func (f SourceFailure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Source, f.URL, f.Err)
}

// SourceReport counts what one source produced.
type SourceReport struct {
	Name       string
	Candidates int
	Accepted   int
}

// Report is the outcome of a scrape run.
type Report struct {
	Articles   []news.RankedArticle
	Sources    []SourceReport
	Failures   []SourceFailure
	Rejected   map[validate.Reason]int
	Duplicates int
	Duration   time.Duration
}

// Plain returns the ranked articles without scores.
func (r Report) Plain() []news.Article {
	out := make([]news.Article, len(r.Articles))
	for i, ra := range r.Articles {
		out[i] = ra.Article
	}
	return out
}

// Scrape fetches every enabled source in order, one at a time, and returns
// the validated, deduplicated, categorized, segment-tagged and ranked
// articles. A failing source is recorded and skipped; only context
// cancellation aborts the run.
func (p *Pipeline) Scrape(ctx context.Context, sources []news.Source) (Report, error) {
	start := time.Now()
	report := Report{Rejected: map[validate.Reason]int{}}

	var accepted []news.Article
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		// the first call returns at once; later calls hold the inter-source delay
		if err := p.deps.Fetcher.Wait(ctx); err != nil {
			return report, err
		}

		articles, sr, err := p.scrapeSource(ctx, src, report.Rejected)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failures = append(report.Failures, SourceFailure{Source: src.Name, URL: src.URL, Err: err})
			metrics.IncSourceFailure(src.Name)
			p.log.Warn("source failed", "source", src.Name, "url", src.URL, "error", err)
			continue
		}
		report.Sources = append(report.Sources, sr)
		accepted = append(accepted, articles...)
	}

	unique := p.deps.Dedupe.Dedupe(accepted)
	report.Duplicates = len(accepted) - len(unique)
	metrics.AddDuplicates(report.Duplicates)

	for i := range unique {
		unique[i].Category = p.deps.Ranker.Categorize(unique[i])
		unique[i].Segment = p.deps.Ranker.TagSegment(unique[i])
	}
	report.Articles = p.deps.Ranker.Rank(unique)

	report.Duration = time.Since(start)
	metrics.Global.RecordProcessingTime(report.Duration)
	metrics.Global.SetLastRun()

	p.log.Info("scrape finished",
		"sources", len(report.Sources),
		"failures", len(report.Failures),
		"articles", len(report.Articles),
		"duplicates", report.Duplicates,
		"duration", report.Duration)
	return report, nil
}

func (p *Pipeline) scrapeSource(ctx context.Context, src news.Source, rejected map[validate.Reason]int) ([]news.Article, SourceReport, error) {
	sr := SourceReport{Name: src.Name}

	page, err := p.deps.Fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, sr, err
	}
	metrics.IncSourceFetched()

	candidates := p.deps.Extractor.Extract(page, src)
	sr.Candidates = len(candidates)
	metrics.AddCandidates(len(candidates))
	if len(candidates) == 0 {
		p.log.Info("source returned no articles", "source", src.Name, "url", src.URL)
		return nil, sr, nil
	}

	var out []news.Article
	for _, c := range candidates {
		a, err := p.deps.Validator.Validate(c)
		if err != nil {
			var rej *validate.Rejection
			if errors.As(err, &rej) {
				rejected[rej.Reason]++
				metrics.IncRejected(string(rej.Reason))
				p.log.Debug("candidate rejected", "source", src.Name, "title", c.Title, "reason", rej.Reason)
			}
			continue
		}
		out = append(out, a)
	}
	sr.Accepted = len(out)
	p.log.Debug("source scraped", "source", src.Name, "candidates", sr.Candidates, "accepted", sr.Accepted)
	return out, sr, nil
}

// Save writes articles not yet archived. Against the archive the content
// hash is the only key unless the fuzzy archive mode is configured.
func (p *Pipeline) Save(ctx context.Context, articles []news.Article) ([]news.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	hashes, err := p.deps.Store.GetExistingHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archive hashes: %w", err)
	}
	fresh := dedupe.FilterKnown(articles, hashes)

	if p.opts.ArchiveMode == dedupe.ArchiveFuzzy && len(fresh) > 0 {
		recent, err := p.deps.Store.GetRecentArticles(ctx, p.opts.LookbackDays, news.SegmentBoth)
		if err != nil {
			return nil, fmt.Errorf("load recent archive: %w", err)
		}
		fresh = p.deps.Dedupe.DedupeAgainst(fresh, recent)
	}
	metrics.AddDuplicates(len(articles) - len(fresh))

	saved, err := p.deps.Store.SaveArticles(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	metrics.AddSaved(len(saved))
	p.log.Info("articles saved", "offered", len(articles), "new", len(fresh), "saved", len(saved))
	return saved, nil
}

// Select returns archived articles for segment ranked for an issue. When fewer
// than the minimum remain it returns them together with ErrInsufficientContent.
func (p *Pipeline) Select(ctx context.Context, segment news.Segment, days, limit int) ([]news.RankedArticle, error) {
	if days <= 0 {
		days = p.opts.LookbackDays
	}

	articles, err := p.deps.Store.GetRecentArticles(ctx, days, segment)
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}

	filtered := rank.FilterSegment(articles, segment, true)
	unique := p.deps.Dedupe.Dedupe(filtered)
	ranked := p.deps.Ranker.Rank(unique)

	if len(ranked) < p.opts.MinArticles {
		return ranked, fmt.Errorf("%w: %d %s articles, need %d", ErrInsufficientContent, len(ranked), segment, p.opts.MinArticles)
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Issue is a prepared newsletter edition.
type Issue struct {
	Segment  news.Segment
	Articles []news.RankedArticle
	Items    []rewrite.Item
}

// IDs returns the archive IDs of the articles in the issue.
func (i Issue) IDs() []string {
	ids := make([]string, len(i.Articles))
	for n, a := range i.Articles {
		ids[n] = a.ID
	}
	return ids
}

// Prepare selects and rewrites an edition without marking anything used.
func (p *Pipeline) Prepare(ctx context.Context, segment news.Segment) (Issue, error) {
	ranked, err := p.Select(ctx, segment, p.opts.LookbackDays, p.opts.MaxArticles)
	if err != nil {
		return Issue{Segment: segment, Articles: ranked}, err
	}

	articles := make([]news.Article, len(ranked))
	for i, ra := range ranked {
		articles[i] = ra.Article
	}

	items, err := p.deps.Rewriter.Rewrite(ctx, articles, segment)
	if err != nil {
		return Issue{Segment: segment, Articles: ranked}, fmt.Errorf("rewrite: %w", err)
	}

	return Issue{
		Segment:  segment,
		Articles: ranked,
		Items:    rewrite.Reconcile(articles, items),
	}, nil
}

// Editions are the newsletter variants prepared together by PrepareEditions.
var Editions = []news.Segment{news.SegmentPro, news.SegmentDriver}

// PrepareEditions prepares the professional and the driver edition in turn.
// It stops at the first edition that cannot be prepared and returns the ones
// before it.
func (p *Pipeline) PrepareEditions(ctx context.Context) ([]Issue, error) {
	issues := make([]Issue, 0, len(Editions))
	for _, seg := range Editions {
		issue, err := p.Prepare(ctx, seg)
		if err != nil {
			return issues, fmt.Errorf("%s edition: %w", seg, err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// MarkUsed stamps issueID on the given articles once an issue has been sent.
func (p *Pipeline) MarkUsed(ctx context.Context, ids []string, issueID string) (int, error) {
	if strings.TrimSpace(issueID) == "" {
		return 0, errors.New("issue id is required")
	}
	n, err := p.deps.Store.MarkArticlesAsUsed(ctx, ids, issueID)
	if err != nil {
		return 0, fmt.Errorf("mark articles used: %w", err)
	}
	p.log.Info("articles marked used", "issue", issueID, "requested", len(ids), "updated", n)
	return n, nil
}
