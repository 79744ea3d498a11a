// Package enrichment derives a category, a summary and a sentiment rating for
// news articles. Every operation is total: when the remote analysis fails or
// answers with something unusable, a fixed default is returned instead of an
// error, so callers never branch on missing enrichment.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/selivandex/newsdesk/internal/adapters/ai"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	// EmptySummary is returned for articles without a description
	EmptySummary = "No content available to summarize."
	// UnavailableSummary is returned when the summarizer could not answer
	UnavailableSummary = "Unable to generate summary at this time."

	defaultCallTimeout = 20 * time.Second
)

// Analyzer is the remote text-analysis capability
type Analyzer interface {
	Categorize(ctx context.Context, title string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	RateSentiment(ctx context.Context, text string) (rating float64, confidence float64, err error)
}

// Engine applies the analyzer with defaults and clamping
type Engine struct {
	analyzer    Analyzer
	callTimeout time.Duration
	breaker     *Breaker
	limiter     *rate.Limiter
}

// EngineOption configures Engine
type EngineOption func(*Engine)

// WithBreaker skips remote calls while the breaker is open
func WithBreaker(b *Breaker) EngineOption {
	return func(e *Engine) {
		e.breaker = b
	}
}

// WithRateLimit caps remote calls per minute. Time spent waiting for a slot
// is bounded by the caller's context, not by the per-call timeout.
func WithRateLimit(perMinute, burst int) EngineOption {
	return func(e *Engine) {
		if perMinute < 1 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
	}
}

// NewEngine creates engine. A nil analyzer makes every operation return its default.
func NewEngine(analyzer Analyzer, callTimeout time.Duration, opts ...EngineOption) *Engine {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	e := &Engine{
		analyzer:    analyzer,
		callTimeout: callTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// remote reports whether the analyzer may be called now
func (e *Engine) remote() bool {
	if e.analyzer == nil {
		return false
	}
	if en, ok := e.analyzer.(interface{ IsEnabled() bool }); ok && !en.IsEnabled() {
		return false
	}
	return e.breaker == nil || e.breaker.Allow()
}

// call waits for a rate slot, then runs fn under the per-call timeout and
// reports the outcome to the breaker. Throttled calls are not counted.
func (e *Engine) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			err = fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
			if e.breaker != nil {
				// not counted, but frees a pending trial slot
				e.breaker.Record(err)
			}
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	err := fn(ctx)
	if e.breaker != nil {
		e.breaker.Record(err)
	}
	return err
}

// Categorize classifies a headline into the closed category set
func (e *Engine) Categorize(ctx context.Context, title string) models.Category {
	title = strings.TrimSpace(title)
	if title == "" || !e.remote() {
		return models.DefaultCategory
	}

	var label string
	err := e.call(ctx, func(ctx context.Context) (err error) {
		label, err = e.analyzer.Categorize(ctx, title)
		return err
	})
	if err != nil {
		logDegraded("categorize", err)
		return models.DefaultCategory
	}

	category, err := models.ParseCategory(label)
	if err != nil {
		logger.Debug("unknown category label, using default",
			zap.String("label", label),
		)
		return models.DefaultCategory
	}

	return category
}

// Summarize produces a short summary of the article body
func (e *Engine) Summarize(ctx context.Context, description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return EmptySummary
	}
	if !e.remote() {
		return UnavailableSummary
	}

	var summary string
	err := e.call(ctx, func(ctx context.Context) (err error) {
		summary, err = e.analyzer.Summarize(ctx, description)
		return err
	})
	if err != nil {
		logDegraded("summarize", err)
		return UnavailableSummary
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return UnavailableSummary
	}

	return summary
}

// AnalyzeSentiment rates the article body from 1 to 5 stars with a confidence
func (e *Engine) AnalyzeSentiment(ctx context.Context, description string) models.SentimentResult {
	description = strings.TrimSpace(description)
	if description == "" || !e.remote() {
		return models.NeutralSentiment
	}

	var rating, confidence float64
	err := e.call(ctx, func(ctx context.Context) (err error) {
		rating, confidence, err = e.analyzer.RateSentiment(ctx, description)
		return err
	})
	if err != nil {
		logDegraded("sentiment", err)
		return models.NeutralSentiment
	}

	return models.ClampSentiment(rating, confidence)
}

// Enrich runs the three operations concurrently and assembles the result
func (e *Engine) Enrich(ctx context.Context, article models.RawArticle) models.EnrichedArticle {
	enriched := models.EnrichedArticle{RawArticle: article}

	var g errgroup.Group
	g.Go(func() error {
		enriched.Category = e.Categorize(ctx, article.Title)
		return nil
	})
	g.Go(func() error {
		enriched.Summary = e.Summarize(ctx, article.Description)
		return nil
	})
	g.Go(func() error {
		enriched.Sentiment = e.AnalyzeSentiment(ctx, article.Description)
		return nil
	})
	_ = g.Wait()

	return enriched
}

func logDegraded(op string, err error) {
	if errors.Is(err, ai.ErrProviderDisabled) {
		logger.Debug("ai disabled, using default", zap.String("operation", op))
		return
	}
	if errors.Is(err, ai.ErrRateLimited) {
		logger.Debug("no ai request slot before deadline, using default",
			zap.String("operation", op),
			zap.Error(err),
		)
		return
	}
	logger.Warn("enrichment degraded to default",
		zap.String("operation", op),
		zap.Error(err),
	)
}
