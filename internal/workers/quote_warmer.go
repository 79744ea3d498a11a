package workers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const warmConcurrency = 2

// QuoteRefresher re-fetches a ticker into the quote cache
type QuoteRefresher interface {
	Refresh(ctx context.Context, ticker string) (*models.Quote, error)
}

// QuoteWarmer keeps quotes of watched companies fresh so dashboard
// requests are served from cache
type QuoteWarmer struct {
	quotes    QuoteRefresher
	companies func() []string
}

// NewQuoteWarmer creates new quote warmer over the current watchlist
func NewQuoteWarmer(quotes QuoteRefresher, companies func() []string) *QuoteWarmer {
	return &QuoteWarmer{
		quotes:    quotes,
		companies: companies,
	}
}

func (w *QuoteWarmer) Name() string {
	return "quote-warmer"
}

// Run refreshes every watched ticker once. Failures are collected, not fatal.
func (w *QuoteWarmer) Run(ctx context.Context) error {
	tickers := uniqueTickers(w.companies())
	if len(tickers) == 0 {
		return nil
	}

	errs := make([]error, len(tickers))

	var g errgroup.Group
	g.SetLimit(warmConcurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			if _, err := w.quotes.Refresh(ctx, ticker); err != nil {
				errs[i] = fmt.Errorf("%s: %w", ticker, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)

	logger.Debug("watchlist quotes refreshed",
		zap.Strings("tickers", tickers),
		zap.Bool("complete", err == nil),
	)

	return err
}

func uniqueTickers(companies []string) []string {
	seen := make(map[string]bool, len(companies))
	tickers := make([]string, 0, len(companies))
	for _, c := range companies {
		t := price.TickerFor(c)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers
}
