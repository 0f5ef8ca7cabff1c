// Package extractor turns a source listing page into candidate articles.
//
// Strategies are tried in order and the first one whose selector matches at
// least one element wins; results from different strategies are never merged.
package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
)

const DefaultMaxArticlesPerSource = 20

// fallbackContainers are tried after the source's own container selector.
var fallbackContainers = []string{
	"article",
	".post",
	".news-item",
	".article",
	".entry",
	".story",
	".views-row",
}

// headingLinks matches bare links inside headings when a page has no item containers.
const headingLinks = "h1 a[href], h2 a[href], h3 a[href], h4 a[href]"

var (
	titleFallbacks   = []string{"h1", "h2", "h3", "h4", ".title", ".headline", ".entry-title"}
	summaryFallbacks = []string{".summary", ".excerpt", ".description", ".teaser", ".entry-summary", "p"}
)

// Strategy pairs a container selector with the function that turns each match into a candidate.
type Strategy struct {
	Selector string
	Extract  func(s *goquery.Selection, src news.Source, base *url.URL) news.Candidate
}

// Extractor applies the ordered strategy list.
type Extractor struct {
	maxPerSource int
	feedParser   *gofeed.Parser
	log          *slog.Logger
}

// New returns an Extractor capped at maxPerSource candidates per page.
func New(maxPerSource int) *Extractor {
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxArticlesPerSource
	}
	return &Extractor{
		maxPerSource: maxPerSource,
		feedParser:   gofeed.NewParser(),
		log:          logger.With("extractor"),
	}
}

// Strategies returns the ordered list used for src: its own container first, then the fallbacks.
func Strategies(src news.Source) []Strategy {
	var out []Strategy
	if sel := strings.TrimSpace(src.Selector.Container); sel != "" {
		out = append(out, Strategy{Selector: sel, Extract: extractContainer})
	}
	for _, sel := range fallbackContainers {
		out = append(out, Strategy{Selector: sel, Extract: extractContainer})
	}
	out = append(out, Strategy{Selector: headingLinks, Extract: extractLink})
	return out
}

// Extract pulls candidates from page. It performs no I/O.
func (e *Extractor) Extract(page string, src news.Source) []news.Candidate {
	base, err := url.Parse(strings.TrimSpace(src.URL))
	if err != nil || base.Host == "" {
		base = nil
	}

	if src.IsFeed() {
		if candidates, ok := e.extractFeed(page, src, base); ok {
			return candidates
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		e.log.Warn("cannot parse page", "source", src.Name, "error", err)
		return nil
	}

	for _, strategy := range Strategies(src) {
		matches := doc.Find(strategy.Selector)
		if matches.Length() == 0 {
			continue
		}

		candidates := make([]news.Candidate, 0, min(matches.Length(), e.maxPerSource))
		matches.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidates = append(candidates, strategy.Extract(s, src, base))
			return len(candidates) < e.maxPerSource
		})

		e.log.Debug("strategy matched", "source", src.Name, "selector", strategy.Selector, "candidates", len(candidates))
		return candidates
	}

	return nil
}

func (e *Extractor) extractFeed(page string, src news.Source, base *url.URL) ([]news.Candidate, bool) {
	feed, err := e.feedParser.ParseString(page)
	if err != nil {
		e.log.Debug("feed parse failed, trying HTML strategies", "source", src.Name, "error", err)
		return nil, false
	}
	if len(feed.Items) == 0 {
		return nil, false
	}

	candidates := make([]news.Candidate, 0, min(len(feed.Items), e.maxPerSource))
	for _, item := range feed.Items {
		if len(candidates) >= e.maxPerSource {
			break
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		candidates = append(candidates, news.Candidate{
			Title:    cleanText(item.Title),
			URL:      ResolveURL(item.Link, base),
			Summary:  htmlToText(summary),
			Source:   src.Name,
			Category: src.Category,
			Priority: src.Priority,
		})
	}
	return candidates, true
}

func extractContainer(s *goquery.Selection, src news.Source, base *url.URL) news.Candidate {
	link := findLink(s, src.Selector.Link)
	return news.Candidate{
		Title:    resolveTitle(s, link, src.Selector.Title),
		URL:      ResolveURL(attr(link, "href"), base),
		Summary:  resolveSummary(s, src.Selector.Summary),
		Source:   src.Name,
		Category: src.Category,
		Priority: src.Priority,
	}
}

// extractLink handles strategies whose match is the anchor itself.
func extractLink(s *goquery.Selection, src news.Source, base *url.URL) news.Candidate {
	title := cleanText(s.Text())
	if title == "" {
		title = cleanText(attr(s, "title"))
	}
	summary := ""
	if heading := s.Closest("h1, h2, h3, h4"); heading.Length() > 0 {
		summary = cleanText(heading.NextFiltered("p").First().Text())
	}
	return news.Candidate{
		Title:    title,
		URL:      ResolveURL(attr(s, "href"), base),
		Summary:  summary,
		Source:   src.Name,
		Category: src.Category,
		Priority: src.Priority,
	}
}

func findLink(s *goquery.Selection, custom string) *goquery.Selection {
	if custom != "" {
		if link := s.Find(custom).First(); link.Length() > 0 {
			if _, ok := link.Attr("href"); ok {
				return link
			}
			if inner := link.Find("a[href]").First(); inner.Length() > 0 {
				return inner
			}
		}
	}
	if goquery.NodeName(s) == "a" {
		return s
	}
	return s.Find("a[href]").First()
}

func resolveTitle(s, link *goquery.Selection, custom string) string {
	if custom != "" {
		if t := cleanText(s.Find(custom).First().Text()); t != "" {
			return t
		}
	}
	for _, sel := range titleFallbacks {
		if t := cleanText(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if t := cleanText(attr(link, "title")); t != "" {
		return t
	}
	return cleanText(link.Text())
}

func resolveSummary(s *goquery.Selection, custom string) string {
	if custom != "" {
		if t := cleanText(s.Find(custom).First().Text()); t != "" {
			return t
		}
	}
	for _, sel := range summaryFallbacks {
		if t := cleanText(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func attr(s *goquery.Selection, name string) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	v, _ := s.Attr(name)
	return v
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// htmlToText strips markup from feed descriptions.
func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return cleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanText(s)
	}
	return cleanText(doc.Text())
}
