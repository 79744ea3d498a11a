package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

// Filter selects articles by category; FilterAll keeps everything
type Filter string

const FilterAll Filter = "All"

// ParseFilter accepts "All", an empty string, or any category label
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	category, err := models.ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("invalid category filter: %w", err)
	}
	return Filter(category), nil
}

// Matches reports whether an article of category c passes the filter
func (f Filter) Matches(c models.Category) bool {
	return f == FilterAll || models.Category(f) == c
}

// Outcome tells apart the reasons a feed can be empty
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeNoArticles Outcome = "no_articles"
	OutcomeNoMatches  Outcome = "no_matches"
)

// Result is the assembled, presentation-ready feed
type Result struct {
	Articles []models.EnrichedArticle `json:"articles"`
	Fetched  int                      `json:"fetched"`
	Outcome  Outcome                  `json:"outcome"`
	Filter   Filter                   `json:"filter"`
}

// Message returns the empty-state text for the outcome, or "" when there are articles
func (r Result) Message(company string) string {
	switch r.Outcome {
	case OutcomeNoArticles:
		return fmt.Sprintf("No news found for %s", company)
	case OutcomeNoMatches:
		return fmt.Sprintf("No %s news found for %s", strings.ToLower(models.Category(r.Filter).Label()), company)
	default:
		return ""
	}
}

// Enricher turns one raw article into an enriched one without failing
type Enricher interface {
	Enrich(ctx context.Context, article models.RawArticle) models.EnrichedArticle
}

// Processor enriches and filters article lists
type Processor struct {
	enricher    Enricher
	concurrency int
}

// NewProcessor creates processor enriching at most concurrency articles at once
func NewProcessor(enricher Enricher, concurrency int) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		enricher:    enricher,
		concurrency: concurrency,
	}
}

// Process enriches every article, applies the filter and keeps source order
func (p *Processor) Process(ctx context.Context, raw []models.RawArticle, filter Filter) Result {
	if filter == "" {
		filter = FilterAll
	}

	result := Result{
		Articles: []models.EnrichedArticle{},
		Fetched:  len(raw),
		Filter:   filter,
	}

	if len(raw) == 0 {
		result.Outcome = OutcomeNoArticles
		return result
	}

	enriched := make([]models.EnrichedArticle, len(raw))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range raw {
		g.Go(func() error {
			enriched[i] = p.enricher.Enrich(ctx, raw[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, article := range enriched {
		if filter.Matches(article.Category) {
			result.Articles = append(result.Articles, article)
		}
	}

	if len(result.Articles) == 0 {
		result.Outcome = OutcomeNoMatches
	} else {
		result.Outcome = OutcomeOK
	}

	logger.Debug("feed processed",
		zap.Int("fetched", result.Fetched),
		zap.Int("kept", len(result.Articles)),
		zap.String("filter", string(filter)),
	)

	return result
}
