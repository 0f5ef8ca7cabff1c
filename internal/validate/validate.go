// Package validate filters extracted candidates and scores their relevance.
package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/haulnews/internal/keywords"
	"github.com/deusflow/haulnews/internal/news"
)

// Reason names the first check a candidate failed.
type Reason string

const (
	ReasonMissingField Reason = "missing_field"
	ReasonTitleLength  Reason = "title_length"
	ReasonDomain       Reason = "domain"
	ReasonExcluded     Reason = "excluded"
	ReasonLowScore     Reason = "low_score"
)

// Rejection is the error returned for a candidate that fails validation.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected (%s): %s", r.Reason, r.Detail)
}

const (
	baseScore           = 3
	longContentBonus    = 2
	longContentRunes    = 200
	goodTitleMin        = 30
	goodTitleMax        = 100
	longSummaryRunes    = 100
	goodTitleBonus      = 1
	longSummaryBonus    = 1
	priorityDivisor     = 2
	categoryWeightRatio = 3
)

// Validator applies Rules to candidates.
type Validator struct {
	rules   Rules
	matcher *keywords.Matcher
	now     func() time.Time
}

// New builds a Validator; zero limits in rules fall back to DefaultRules.
func New(rules Rules) *Validator {
	def := DefaultRules()
	if rules.MinTitleLength <= 0 {
		rules.MinTitleLength = def.MinTitleLength
	}
	if rules.MaxTitleLength <= 0 {
		rules.MaxTitleLength = def.MaxTitleLength
	}
	if rules.MaxScore <= 0 {
		rules.MaxScore = def.MaxScore
	}

	weights := make(map[string]int, len(rules.KeywordWeights))
	words := make([]string, 0, len(rules.KeywordWeights))
	for k, w := range rules.KeywordWeights {
		k = strings.ToLower(strings.TrimSpace(k))
		weights[k] = w
		words = append(words, k)
	}
	sort.Strings(words)
	rules.KeywordWeights = weights

	return &Validator{
		rules:   rules,
		matcher: keywords.NewMatcher(words),
		now:     time.Now,
	}
}

// Validate turns c into an Article or returns a *Rejection. Checks run in a
// fixed order and the first failure wins.
func (v *Validator) Validate(c news.Candidate) (news.Article, error) {
	title := strings.TrimSpace(c.Title)
	link := strings.TrimSpace(c.URL)
	if title == "" || link == "" {
		return news.Article{}, &Rejection{Reason: ReasonMissingField, Detail: "title or url is empty"}
	}

	n := utf8.RuneCountInString(title)
	if n < v.rules.MinTitleLength || n > v.rules.MaxTitleLength {
		return news.Article{}, &Rejection{
			Reason: ReasonTitleLength,
			Detail: fmt.Sprintf("title has %d chars, want %d-%d", n, v.rules.MinTitleLength, v.rules.MaxTitleLength),
		}
	}

	if !v.allowedDomain(link) {
		return news.Article{}, &Rejection{Reason: ReasonDomain, Detail: link}
	}

	content := strings.ToLower(title + " " + c.Summary)
	for _, re := range v.rules.Exclusions {
		if re.MatchString(content) {
			return news.Article{}, &Rejection{Reason: ReasonExcluded, Detail: re.String()}
		}
	}

	score := v.Score(c)
	if score < v.rules.MinScore {
		return news.Article{}, &Rejection{
			Reason: ReasonLowScore,
			Detail: fmt.Sprintf("score %d below %d", score, v.rules.MinScore),
		}
	}

	summary := strings.TrimSpace(c.Summary)
	return news.Article{
		Title:          title,
		URL:            link,
		Summary:        summary,
		Source:         c.Source,
		SourceCategory: c.Category,
		RelevanceScore: score,
		ContentHash:    news.ContentHash(title, link),
		CollectedAt:    v.now().UTC(),
	}, nil
}

// Score computes the 0-20 relevance score of a candidate.
func (v *Validator) Score(c news.Candidate) int {
	title := strings.TrimSpace(c.Title)
	summary := strings.TrimSpace(c.Summary)
	content := news.Normalize(title + " " + summary)

	score := baseScore
	score += floorDiv(c.Priority, priorityDivisor)
	score += floorDiv(v.rules.CategoryWeights[strings.ToLower(c.Category)], categoryWeightRatio)

	for _, kw := range v.matcher.Hits(content) {
		score += v.rules.KeywordWeights[kw]
	}

	if utf8.RuneCountInString(content) > longContentRunes {
		score += longContentBonus
	}
	if n := utf8.RuneCountInString(title); n >= goodTitleMin && n <= goodTitleMax {
		score += goodTitleBonus
	}
	if utf8.RuneCountInString(summary) > longSummaryRunes {
		score += longSummaryBonus
	}

	return min(score, v.rules.MaxScore)
}

func (v *Validator) allowedDomain(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	if len(v.rules.AllowedDomains) == 0 {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range v.rules.AllowedDomains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
