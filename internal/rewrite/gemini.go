package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/haulnews/internal/news"
)

const (
	DefaultModel    = "gemini-1.5-flash"
	maxSummaryChars = 1200
)

// Gemini rewrites articles with Google's Gemini API in one request per batch.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Rewrite(ctx context.Context, articles []news.Article, segment news.Segment) ([]Item, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(articles, segment)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return parseItems(sb.String())
}

var audience = map[news.Segment]string{
	news.SegmentPro:    "transport operators, compliance managers and fleet owners",
	news.SegmentDriver: "working heavy vehicle drivers",
	news.SegmentBoth:   "operators and drivers in the Australian heavy vehicle industry",
}

func buildPrompt(articles []news.Article, segment news.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Rewrite the following Australian transport news items for a newsletter read by %s.

RULES:
- Keep facts, names, figures and dates exactly as given.
- Title under 90 characters. Summary 2-3 plain sentences.
- Add one practical "tip" sentence relevant to the reader.
- Copy "url", "source" and "category" unchanged.
- Return a JSON array with exactly %d objects in the same order as the input,
  each with keys: title, summary, tip, url, source, category.

ITEMS:
`, audience[segment], len(articles))

	for i, a := range articles {
		fmt.Fprintf(&b, "%d. title: %s\n   summary: %s\n   url: %s\n   source: %s\n   category: %s\n",
			i+1, a.Title, clip(a.Summary, maxSummaryChars), a.URL, a.Source, a.Category)
	}
	return b.String()
}

// clip collapses whitespace and cuts on a rune boundary, preferring the last
// sentence end past the halfway mark.
func clip(s string, maxChars int) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	trimmed := string([]rune(s)[:maxChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > len(trimmed)/2 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}

// parseItems accepts a bare JSON array, a fenced ```json block, or an array
// embedded in surrounding prose.
func parseItems(response string) ([]Item, error) {
	body := strings.TrimSpace(response)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("could not parse rewrite response: no JSON array found")
	}

	var items []Item
	if err := json.Unmarshal([]byte(body[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("could not parse rewrite response: %w", err)
	}
	return items, nil
}
