package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

type memoryKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

type memoryLocker struct {
	held     map[string]bool
	released []string
}

func (l *memoryLocker) TryLock(ctx context.Context, name string, ttl time.Duration) bool {
	if l.held[name] {
		return false
	}
	l.held[name] = true
	return true
}

func (l *memoryLocker) Unlock(ctx context.Context, name string) {
	delete(l.held, name)
	l.released = append(l.released, name)
}

func TestQuoteStore_RoundTrip(t *testing.T) {
	logger.Init("error", "")

	kv := newMemoryKV()
	store := &QuoteStore{kv: kv, locker: &memoryLocker{held: map[string]bool{}}}
	ctx := context.Background()

	if _, ok := store.GetQuote(ctx, "AAPL"); ok {
		t.Fatal("Expected miss on empty store")
	}

	sma := decimal.NewFromFloat(180.5)
	store.SetQuote(ctx, &models.Quote{
		Symbol: "AAPL",
		Price:  decimal.NewFromFloat(187.44),
		Volume: 100,
		SMA20:  &sma,
		History: []models.PricePoint{
			{Date: "2024-01-02", Close: decimal.NewFromFloat(185.64)},
		},
	}, 5*time.Minute)

	if kv.ttls["quote:AAPL"] != 5*time.Minute {
		t.Errorf("Expected 5m ttl, got %s", kv.ttls["quote:AAPL"])
	}

	q, ok := store.GetQuote(ctx, "AAPL")
	if !ok {
		t.Fatal("Expected hit after set")
	}
	if !q.Price.Equal(decimal.NewFromFloat(187.44)) {
		t.Errorf("Expected price 187.44, got %s", q.Price)
	}
	if q.SMA20 == nil || !q.SMA20.Equal(sma) {
		t.Errorf("Expected SMA20 %s, got %v", sma, q.SMA20)
	}
	if len(q.History) != 1 {
		t.Errorf("Expected 1 history point, got %d", len(q.History))
	}
}

func TestQuoteStore_Degrades(t *testing.T) {
	logger.Init("error", "")

	kv := newMemoryKV()
	store := &QuoteStore{kv: kv, locker: &memoryLocker{held: map[string]bool{}}}
	ctx := context.Background()

	kv.data["quote:BAD"] = "{not json"
	if _, ok := store.GetQuote(ctx, "BAD"); ok {
		t.Error("Corrupt entry should be a miss")
	}

	kv.getErr = errors.New("connection refused")
	if _, ok := store.GetQuote(ctx, "AAPL"); ok {
		t.Error("Redis error should be a miss")
	}

	store.SetQuote(ctx, nil, time.Minute)
}

func TestQuoteStore_LockTicker(t *testing.T) {
	locker := &memoryLocker{held: map[string]bool{}}
	store := &QuoteStore{kv: newMemoryKV(), locker: locker}
	ctx := context.Background()

	unlock, ok := store.LockTicker(ctx, "AAPL")
	if !ok {
		t.Fatal("Expected first lock to succeed")
	}

	if _, ok := store.LockTicker(ctx, "AAPL"); ok {
		t.Error("Expected second lock to fail while held")
	}

	unlock()
	if len(locker.released) != 1 || locker.released[0] != "quote:lock:AAPL" {
		t.Errorf("Unexpected releases %v", locker.released)
	}

	if _, ok := store.LockTicker(ctx, "AAPL"); !ok {
		t.Error("Expected lock after release")
	}
}
