package price

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	DefaultTTL = 5 * time.Minute

	// flights outlive the caller that started them, bounded by this
	flightTimeout = 30 * time.Second

	sharedLockRetries = 3
	sharedLockBackoff = 200 * time.Millisecond
)

type cachedQuote struct {
	quote     *models.Quote
	timestamp time.Time
}

// QuoteCache keeps one quote per ticker for a fixed TTL. Concurrent misses
// for the same ticker share a single upstream fetch.
type QuoteCache struct {
	provider QuoteProvider
	shared   SharedStore
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]cachedQuote
	group   singleflight.Group
}

// CacheOption configures QuoteCache
type CacheOption func(*QuoteCache)

// WithSharedStore adds a cross-replica cache layer
func WithSharedStore(store SharedStore) CacheOption {
	return func(c *QuoteCache) {
		c.shared = store
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) CacheOption {
	return func(c *QuoteCache) {
		c.now = now
	}
}

// NewQuoteCache creates new quote cache in front of provider
func NewQuoteCache(provider QuoteProvider, ttl time.Duration, opts ...CacheOption) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &QuoteCache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]cachedQuote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote returns the quote for ticker. A nil quote with nil error means
// the source has no data for it.
func (c *QuoteCache) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, nil
	}

	if q, ok := c.lookup(ticker); ok {
		return q, nil
	}

	return c.do(ctx, ticker, func(ctx context.Context, ticker string) (*models.Quote, error) {
		// a flight that finished just before this one may have filled the entry
		if q, ok := c.lookup(ticker); ok {
			return q, nil
		}
		return c.fetch(ctx, ticker)
	})
}

// Refresh fetches ticker even when a fresh entry is cached and replaces it
func (c *QuoteCache) Refresh(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, nil
	}

	return c.do(ctx, ticker, c.fetch)
}

// do joins or starts the flight for ticker. The flight is detached from the
// caller's cancellation so one departing caller cannot fail the others;
// each caller still stops waiting when its own ctx is done.
func (c *QuoteCache) do(ctx context.Context, ticker string, fn func(ctx context.Context, ticker string) (*models.Quote, error)) (*models.Quote, error) {
	ch := c.group.DoChan(ticker, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return fn(flightCtx, ticker)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("quote fetch shared", zap.String("ticker", ticker))
		}
		q, _ := res.Val.(*models.Quote)
		return q, nil
	}
}

func (c *QuoteCache) lookup(ticker string) (*models.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[ticker]
	if !ok || c.now().Sub(cached.timestamp) >= c.ttl {
		return nil, false
	}
	return cached.quote, true
}

func (c *QuoteCache) store(ticker string, q *models.Quote) {
	c.storeAt(ticker, q, c.now())
}

func (c *QuoteCache) storeAt(ticker string, q *models.Quote, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ticker] = cachedQuote{
		quote:     q,
		timestamp: ts,
	}
}

// sharedQuote returns a quote another replica fetched, keeping its original
// age; entries already past the TTL count as a miss.
func (c *QuoteCache) sharedQuote(ctx context.Context, ticker string) (*models.Quote, bool) {
	q, ok := c.shared.GetQuote(ctx, ticker)
	if !ok || q == nil {
		return nil, false
	}

	fetchedAt := q.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = c.now()
	}
	if c.now().Sub(fetchedAt) >= c.ttl {
		return nil, false
	}

	c.storeAt(ticker, q, fetchedAt)
	return q, true
}

func (c *QuoteCache) fetch(ctx context.Context, ticker string) (*models.Quote, error) {
	if c.shared != nil {
		if q, ok := c.sharedQuote(ctx, ticker); ok {
			return q, nil
		}

		unlock, acquired := c.shared.LockTicker(ctx, ticker)
		if acquired {
			defer unlock()
		} else if q, ok := c.waitShared(ctx, ticker); ok {
			return q, nil
		}
	}

	q, err := c.provider.FetchQuote(ctx, ticker)
	if err != nil {
		if !errors.Is(err, ErrQuoteUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrQuoteUnavailable, c.provider.GetName(), err)
		}
		return nil, err
	}
	if q == nil {
		return nil, nil
	}

	c.store(ticker, q)
	if c.shared != nil {
		c.shared.SetQuote(ctx, q, c.ttl)
	}

	logger.Debug("quote fetched",
		zap.String("ticker", ticker),
		zap.String("provider", c.provider.GetName()),
	)

	return q, nil
}

// waitShared polls the shared store while another replica holds the fetch lock
func (c *QuoteCache) waitShared(ctx context.Context, ticker string) (*models.Quote, bool) {
	for i := 0; i < sharedLockRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(sharedLockBackoff):
		}
		if q, ok := c.sharedQuote(ctx, ticker); ok {
			return q, true
		}
	}
	return nil, false
}
