package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/ai"
	"github.com/selivandex/newsdesk/internal/adapters/config"
	"github.com/selivandex/newsdesk/internal/adapters/news"
	"github.com/selivandex/newsdesk/internal/adapters/price"
	redisAdapter "github.com/selivandex/newsdesk/internal/adapters/redis"
	"github.com/selivandex/newsdesk/internal/enrichment"
	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/internal/indicators"
	"github.com/selivandex/newsdesk/pkg/logger"
)

// pipeline holds the wired core components
type pipeline struct {
	articles  *news.Source
	processor *feed.Processor
	quotes    *price.QuoteCache   // nil when quotes are disabled
	breaker   *enrichment.Breaker // nil when disabled
	redis     *redisAdapter.Client
}

func (p *pipeline) Close() {
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
}

func buildPipeline(cfg *config.Config) (*pipeline, error) {
	p := &pipeline{
		articles: initArticleSource(cfg),
	}

	engine, breaker, err := initEnrichment(cfg)
	if err != nil {
		return nil, err
	}
	p.breaker = breaker
	p.processor = feed.NewProcessor(engine, cfg.Feed.Concurrency)

	if cfg.Redis.Enabled {
		p.redis, err = redisAdapter.New(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	if cfg.Quote.Enabled {
		p.quotes = initQuotes(cfg, p.redis)
	}

	return p, nil
}

func initArticleSource(cfg *config.Config) *news.Source {
	source := news.NewSource(
		news.NewNewsAPIProvider(cfg.News.NewsAPIKey, cfg.News.NewsAPIBaseURL, cfg.News.Timeout),
		news.NewGoogleNewsProvider(cfg.News.GoogleNewsEnabled, cfg.News.GoogleNewsBaseURL, cfg.News.Timeout),
	)

	logger.Info("news providers initialized",
		zap.Strings("providers", source.EnabledProviders()),
	)
	return source
}

func initEnrichment(cfg *config.Config) (*enrichment.Engine, *enrichment.Breaker, error) {
	provider, err := ai.NewProvider(&cfg.AI)
	if err != nil {
		return nil, nil, err
	}

	prompts, err := ai.LoadPrompts(cfg.AI.PromptsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	analyzer := ai.NewNewsAnalyzer(provider, prompts)
	if analyzer.IsEnabled() {
		logger.Info("AI provider enabled",
			zap.String("provider", provider.GetName()),
			zap.String("model", provider.Model()),
		)
	} else {
		logger.Warn("AI provider not configured, enrichment will use defaults",
			zap.String("provider", provider.GetName()),
		)
	}

	opts := []enrichment.EngineOption{
		enrichment.WithRateLimit(cfg.AI.RatePerMinute, cfg.AI.Burst),
	}
	var breaker *enrichment.Breaker
	if cfg.AI.BreakerFailures > 0 {
		breaker = enrichment.NewBreaker(cfg.AI.BreakerFailures, cfg.AI.BreakerCooldown)
		opts = append(opts, enrichment.WithBreaker(breaker))
	}

	return enrichment.NewEngine(analyzer, cfg.AI.CallTimeout, opts...), breaker, nil
}

func initQuotes(cfg *config.Config, redisClient *redisAdapter.Client) *price.QuoteCache {
	yahoo := price.NewYahooProvider(cfg.Quote.BaseURL, cfg.Quote.Timeout, indicators.NewCalculator())

	var opts []price.CacheOption
	if redisClient != nil {
		opts = append(opts, price.WithSharedStore(redisAdapter.NewQuoteStore(redisClient)))
	}

	logger.Info("quote source initialized",
		zap.String("provider", yahoo.GetName()),
		zap.Duration("ttl", cfg.Quote.CacheTTL),
		zap.Bool("shared_cache", redisClient != nil),
	)

	return price.NewQuoteCache(yahoo, cfg.Quote.CacheTTL, opts...)
}
