package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/haulnews/internal/app"
	"github.com/deusflow/haulnews/internal/config"
	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/pipeline"
	"github.com/deusflow/haulnews/internal/rewrite"
)

func open(c *cli.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.EnableHTTPMonitoring && c.Command.Name != "serve" {
		go startMonitoringServer(c.Context, cfg.MonitoringPort)
	}
	return app.New(c.Context, cfg)
}

func parseSegment(c *cli.Context) (news.Segment, error) {
	seg, ok := news.ParseSegment(c.String("segment"))
	if !ok {
		return "", fmt.Errorf("invalid segment %q: want pro, driver or both", c.String("segment"))
	}
	return seg, nil
}

func output(c *cli.Context, v any) error {
	return write(os.Stdout, c.String("format"), v)
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

type scrapeSummary struct {
	Sources    int            `json:"sources" yaml:"sources"`
	Failures   []string       `json:"failures,omitempty" yaml:"failures,omitempty"`
	Rejected   map[string]int `json:"rejected" yaml:"rejected"`
	Duplicates int            `json:"duplicates" yaml:"duplicates"`
	Ranked     int            `json:"ranked" yaml:"ranked"`
	Saved      int            `json:"saved" yaml:"saved"`
	Duration   string         `json:"duration" yaml:"duration"`
}

func summarize(r pipeline.Report, saved []news.Article) scrapeSummary {
	s := scrapeSummary{
		Sources:    len(r.Sources),
		Rejected:   map[string]int{},
		Duplicates: r.Duplicates,
		Ranked:     len(r.Articles),
		Saved:      len(saved),
		Duration:   r.Duration.Round(time.Millisecond).String(),
	}
	for _, f := range r.Failures {
		s.Failures = append(s.Failures, f.Error())
	}
	for reason, n := range r.Rejected {
		s.Rejected[string(reason)] = n
	}
	return s
}

func scrapeAction(c *cli.Context) error {
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	report, saved, err := a.ScrapeAndSave(c.Context)
	if err != nil {
		return err
	}
	return output(c, summarize(report, saved))
}

type selection struct {
	ID        string  `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	URL       string  `json:"url" yaml:"url"`
	Category  string  `json:"category" yaml:"category"`
	Segment   string  `json:"segment" yaml:"segment"`
	Relevance int     `json:"relevance" yaml:"relevance"`
	Score     float64 `json:"score" yaml:"score"`
}

func selections(ranked []news.RankedArticle) []selection {
	out := make([]selection, len(ranked))
	for i, r := range ranked {
		out[i] = selection{
			ID:        r.ID,
			Title:     r.Title,
			URL:       r.URL,
			Category:  r.Category,
			Segment:   string(r.Segment),
			Relevance: r.RelevanceScore,
			Score:     r.CompositeScore,
		}
	}
	return out
}

func selectAction(c *cli.Context) error {
	seg, err := parseSegment(c)
	if err != nil {
		return err
	}
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := c.Int("limit")
	if limit == 0 {
		limit = a.Config.MaxArticlesPerIssue
	}
	ranked, err := a.Pipeline.Select(c.Context, seg, c.Int("days"), limit)
	if errors.Is(err, pipeline.ErrInsufficientContent) {
		_ = output(c, selections(ranked))
	}
	if err != nil {
		return err
	}
	return output(c, selections(ranked))
}

type edition struct {
	Segment news.Segment   `json:"segment" yaml:"segment"`
	IDs     []string       `json:"ids" yaml:"ids"`
	Items   []rewrite.Item `json:"items" yaml:"items"`
}

func editions(issues []pipeline.Issue) []edition {
	out := make([]edition, len(issues))
	for i, issue := range issues {
		out[i] = edition{Segment: issue.Segment, IDs: issue.IDs(), Items: issue.Items}
	}
	return out
}

// previewAction prepares both editions unless --segment names one.
func previewAction(c *cli.Context) error {
	var seg news.Segment
	if c.String("segment") != "" {
		var err error
		if seg, err = parseSegment(c); err != nil {
			return err
		}
	}
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	var issues []pipeline.Issue
	if seg == "" {
		issues, err = a.Pipeline.PrepareEditions(c.Context)
	} else {
		var issue pipeline.Issue
		issue, err = a.Pipeline.Prepare(c.Context, seg)
		issues = []pipeline.Issue{issue}
	}
	if err != nil {
		return err
	}
	for _, issue := range issues {
		logger.Info("preview ready", "segment", issue.Segment, "articles", len(issue.Items))
	}
	logger.Info("rewrite budget", "budget", a.Budget.Stats())
	return output(c, editions(issues))
}

func markUsedAction(c *cli.Context) error {
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Pipeline.MarkUsed(c.Context, c.StringSlice("id"), c.String("issue"))
	if err != nil {
		return err
	}
	return output(c, map[string]int{"marked": n})
}

func serveAction(c *cli.Context) error {
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	go startMonitoringServer(c.Context, a.Config.MonitoringPort)

	interval := c.Duration("interval")
	if interval <= 0 {
		<-c.Context.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, saved, err := a.ScrapeAndSave(c.Context); err != nil {
			logger.Error("scheduled scrape failed", "error", err)
		} else {
			logger.Info("scheduled scrape done", "saved", len(saved))
		}

		select {
		case <-c.Context.Done():
			return nil
		case <-ticker.C:
		}
	}
}
