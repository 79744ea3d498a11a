package price

import (
	"context"
	"errors"
	"time"

	"github.com/selivandex/newsdesk/pkg/models"
)

// ErrQuoteUnavailable marks a failed quote fetch
var ErrQuoteUnavailable = errors.New("quote source unavailable")

// QuoteProvider provides stock quotes
type QuoteProvider interface {
	// FetchQuote returns the quote for ticker, or nil when the source has no data
	FetchQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetName returns provider name
	GetName() string
}

// SharedStore is a cache shared between replicas. Misses and store errors
// are both reported as not found; the local cache keeps working without it.
type SharedStore interface {
	GetQuote(ctx context.Context, ticker string) (*models.Quote, bool)
	SetQuote(ctx context.Context, quote *models.Quote, ttl time.Duration)
	// LockTicker tries to become the only fetcher of ticker across replicas
	LockTicker(ctx context.Context, ticker string) (unlock func(), acquired bool)
}
