package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	quoteKeyPrefix  = "quote:"
	quoteLockPrefix = "quote:lock:"
	quoteLockTTL    = 15 * time.Second
)

var _ price.SharedStore = (*QuoteStore)(nil)

// KV is the subset of Client used by QuoteStore
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Locker takes named cross-replica locks
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) bool
	Unlock(ctx context.Context, name string)
}

// QuoteStore shares fetched quotes between replicas. Redis errors degrade
// to cache misses.
type QuoteStore struct {
	kv     KV
	locker Locker
}

// NewQuoteStore creates quote store on top of client
func NewQuoteStore(client *Client) *QuoteStore {
	return &QuoteStore{kv: client, locker: client}
}

func quoteKey(ticker string) string {
	return quoteKeyPrefix + ticker
}

// GetQuote reads a cached quote
func (s *QuoteStore) GetQuote(ctx context.Context, ticker string) (*models.Quote, bool) {
	data, err := s.kv.Get(ctx, quoteKey(ticker)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("redis quote read failed",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
		}
		return nil, false
	}

	var q models.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		logger.Warn("corrupt quote in redis",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return nil, false
	}

	return &q, true
}

// SetQuote caches quote for ttl
func (s *QuoteStore) SetQuote(ctx context.Context, q *models.Quote, ttl time.Duration) {
	if q == nil {
		return
	}

	data, err := json.Marshal(q)
	if err != nil {
		logger.Warn("failed to encode quote", zap.String("ticker", q.Symbol), zap.Error(err))
		return
	}

	if err := s.kv.Set(ctx, quoteKey(q.Symbol), data, ttl).Err(); err != nil {
		logger.Warn("redis quote write failed",
			zap.String("ticker", q.Symbol),
			zap.Error(err),
		)
	}
}

// LockTicker makes this replica the only fetcher of ticker until unlock
func (s *QuoteStore) LockTicker(ctx context.Context, ticker string) (func(), bool) {
	name := quoteLockPrefix + ticker
	if !s.locker.TryLock(ctx, name, quoteLockTTL) {
		return nil, false
	}
	return func() {
		s.locker.Unlock(context.WithoutCancel(ctx), name)
	}, true
}
