package enrichment

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/ai"
	"github.com/selivandex/newsdesk/pkg/logger"
)

// Breaker stops remote analysis after consecutive failures. While open the
// engine answers with defaults without calling out; after the cooldown a
// single trial call decides whether it closes again.
type Breaker struct {
	mu                  sync.Mutex
	isOpen              bool
	trialInFlight       bool
	consecutiveFailures int
	maxFailures         int
	cooldownDuration    time.Duration
	openedAt            time.Time
	now                 func() time.Time
}

// BreakerStatus represents current breaker state
type BreakerStatus struct {
	IsOpen              bool          `json:"is_open"`
	HalfOpen            bool          `json:"half_open"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	OpenedAt            time.Time     `json:"opened_at,omitempty"`
	CooldownRemaining   time.Duration `json:"cooldown_remaining,omitempty"`
}

// NewBreaker creates breaker opening after maxFailures consecutive failures
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		maxFailures:      maxFailures,
		cooldownDuration: cooldown,
		now:              time.Now,
	}
}

// Allow reports whether a remote call may be made
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isOpen {
		return true
	}

	if b.trialInFlight || b.now().Sub(b.openedAt) < b.cooldownDuration {
		return false
	}

	b.trialInFlight = true
	logger.Info("enrichment breaker half-open, sending trial call")
	return true
}

// Record updates the breaker with the outcome of a remote call
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && ignored(err) {
		// the trial never reached the provider; let the next call try
		b.trialInFlight = false
		return
	}

	if err == nil {
		if b.isOpen && b.trialInFlight {
			logger.Info("enrichment breaker closed")
			b.isOpen = false
		} else if b.consecutiveFailures > 0 {
			logger.Debug("enrichment breaker reset")
		}
		b.trialInFlight = false
		b.consecutiveFailures = 0
		return
	}

	b.consecutiveFailures++

	if b.trialInFlight {
		b.trialInFlight = false
		b.openedAt = b.now()
		logger.Warn("enrichment breaker trial failed, reopened", zap.Error(err))
		return
	}

	if b.consecutiveFailures >= b.maxFailures && !b.isOpen {
		b.isOpen = true
		b.openedAt = b.now()

		logger.Warn("enrichment breaker opened",
			zap.Int("consecutive_failures", b.consecutiveFailures),
			zap.Duration("cooldown", b.cooldownDuration),
			zap.Error(err),
		)
	}
}

// Status returns current breaker state
func (b *Breaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := BreakerStatus{
		IsOpen:              b.isOpen,
		HalfOpen:            b.trialInFlight,
		ConsecutiveFailures: b.consecutiveFailures,
		OpenedAt:            b.openedAt,
	}

	if b.isOpen {
		if remaining := b.cooldownDuration - b.now().Sub(b.openedAt); remaining > 0 {
			status.CooldownRemaining = remaining
		}
	}

	return status
}

// ignored reports errors that say nothing about the provider's health
func ignored(err error) bool {
	return errors.Is(err, ai.ErrProviderDisabled) ||
		errors.Is(err, ai.ErrRateLimited) ||
		errors.Is(err, context.Canceled)
}
