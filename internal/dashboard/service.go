package dashboard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

// ArticleSource fetches raw articles for a company
type ArticleSource interface {
	Fetch(ctx context.Context, company string) ([]models.RawArticle, error)
}

// FeedProcessor enriches and filters raw articles
type FeedProcessor interface {
	Process(ctx context.Context, raw []models.RawArticle, filter feed.Filter) feed.Result
}

// QuoteSource returns a quote for a ticker, nil when there is no data
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
}

// Panel is everything rendered for one company. Error is set when the
// article source failed; QuoteError only when the quote lookup failed.
type Panel struct {
	Company    string                   `json:"company"`
	Ticker     string                   `json:"ticker"`
	Articles   []models.EnrichedArticle `json:"articles"`
	Outcome    feed.Outcome             `json:"outcome,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Quote      *models.Quote            `json:"quote,omitempty"`
	QuoteError string                   `json:"quote_error,omitempty"`
}

// Service assembles per-company panels
type Service struct {
	articles  ArticleSource
	processor FeedProcessor
	quotes    QuoteSource
}

// NewService creates dashboard service; quotes may be nil
func NewService(articles ArticleSource, processor FeedProcessor, quotes QuoteSource) *Service {
	return &Service{
		articles:  articles,
		processor: processor,
		quotes:    quotes,
	}
}

// Panel builds the panel for one company. It never fails: source errors
// end up in the panel itself.
func (s *Service) Panel(ctx context.Context, company string, filter feed.Filter) Panel {
	panel := Panel{
		Company:  company,
		Ticker:   price.TickerFor(company),
		Articles: []models.EnrichedArticle{},
	}

	var wg sync.WaitGroup
	if s.quotes != nil && panel.Ticker != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.attachQuote(ctx, &panel)
		}()
	}

	raw, err := s.articles.Fetch(ctx, company)
	if err != nil {
		wg.Wait()
		logger.Warn("company feed failed",
			zap.String("company", company),
			zap.Error(err),
		)
		return Panel{
			Company:  company,
			Ticker:   panel.Ticker,
			Articles: []models.EnrichedArticle{},
			Error:    fmt.Sprintf("Error fetching news for %s: %v", company, err),
		}
	}

	result := s.processor.Process(ctx, raw, filter)

	wg.Wait()

	panel.Articles = result.Articles
	panel.Outcome = result.Outcome
	panel.Message = result.Message(company)

	return panel
}

func (s *Service) attachQuote(ctx context.Context, panel *Panel) {
	q, err := s.quotes.GetQuote(ctx, panel.Ticker)
	if err != nil {
		logger.Warn("quote lookup failed",
			zap.String("company", panel.Company),
			zap.String("ticker", panel.Ticker),
			zap.Error(err),
		)
		panel.QuoteError = fmt.Sprintf("Stock data unavailable: %v", err)
		return
	}
	panel.Quote = q
}

// Build renders panels for all companies concurrently, in the given order
func (s *Service) Build(ctx context.Context, companies []string, filter feed.Filter) []Panel {
	panels := make([]Panel, len(companies))

	var wg sync.WaitGroup
	for i, company := range companies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panel build panicked",
						zap.String("company", company),
						zap.Any("panic", r),
					)
					panels[i] = Panel{
						Company:  company,
						Ticker:   price.TickerFor(company),
						Articles: []models.EnrichedArticle{},
						Error:    fmt.Sprintf("Error building panel for %s", company),
					}
				}
			}()
			panels[i] = s.Panel(ctx, company, filter)
		}()
	}
	wg.Wait()

	return panels
}
