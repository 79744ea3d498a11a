package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	// Window is how far back articles are searched
	Window = 7 * 24 * time.Hour
	// MaxArticles caps every fetch
	MaxArticles = 10
)

// ErrSourceUnavailable marks a failed article fetch
var ErrSourceUnavailable = errors.New("news source unavailable")

// Provider represents news source provider interface
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchNews returns up to MaxArticles English articles about company
	// from the last Window, most relevant first
	FetchNews(ctx context.Context, company string) ([]models.RawArticle, error)

	// IsEnabled returns whether provider is enabled
	IsEnabled() bool
}

// Source queries providers in order and returns the first successful answer
type Source struct {
	providers []Provider
}

// NewSource creates new article source from an ordered provider list
func NewSource(providers ...Provider) *Source {
	return &Source{providers: providers}
}

// EnabledProviders returns names of providers that will be queried
func (s *Source) EnabledProviders() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		if p.IsEnabled() {
			names = append(names, p.GetName())
		}
	}
	return names
}

// Fetch returns articles for company. An error always wraps ErrSourceUnavailable.
func (s *Source) Fetch(ctx context.Context, company string) ([]models.RawArticle, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("%w: empty company name", ErrSourceUnavailable)
	}

	var errs []error
	for _, provider := range s.providers {
		if !provider.IsEnabled() {
			continue
		}

		articles, err := provider.FetchNews(ctx, company)
		if err != nil {
			logger.Warn("news provider failed",
				zap.String("provider", provider.GetName()),
				zap.String("company", company),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", provider.GetName(), err))
			continue
		}

		if len(articles) > MaxArticles {
			articles = articles[:MaxArticles]
		}

		logger.Debug("fetched news",
			zap.String("provider", provider.GetName()),
			zap.String("company", company),
			zap.Int("count", len(articles)),
		)

		return articles, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no provider enabled", ErrSourceUnavailable)
	}

	return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, errors.Join(errs...))
}

func sourceName(name string) string {
	if strings.TrimSpace(name) == "" {
		return models.UnknownSource
	}
	return name
}
