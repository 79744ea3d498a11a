package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/config"
	"github.com/selivandex/newsdesk/internal/api"
	"github.com/selivandex/newsdesk/internal/health"
	"github.com/selivandex/newsdesk/internal/watchlist"
	"github.com/selivandex/newsdesk/internal/workers"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/worker"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, dashboard stream and health probes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Info("newsdesk starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	wl := watchlist.New(cfg.Watchlist.Companies...)

	deps := api.Deps{
		Articles:  p.articles,
		Processor: p.processor,
		Watchlist: wl,
	}
	if p.quotes != nil {
		deps.Quotes = p.quotes
	}

	apiServer := api.NewServer(cfg.HTTP, deps)
	healthServer := health.NewServer(cfg.Health.Port, wl.Len)
	if p.redis != nil {
		healthServer.AddCheck("redis", p.redis)
	}
	if p.breaker != nil {
		healthServer.AddStatus("ai_breaker", func() any { return p.breaker.Status() })
	}

	group := worker.NewWorkerGroup(ctx)
	if p.quotes != nil && cfg.Quote.WarmInterval > 0 {
		group.Add(workers.NewQuoteWarmer(p.quotes, wl.Companies), cfg.Quote.WarmInterval)
	}
	group.Start()
	defer group.Stop(shutdownTimeout)

	errCh := make(chan error, 2)
	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := healthServer.Start(); err != nil {
			errCh <- err
		}
	}()

	healthServer.SetReady(true)
	logger.Info("newsdesk ready",
		zap.Strings("watchlist", wl.Companies()),
		zap.String("health_port", cfg.Health.Port),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, starting graceful shutdown...")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		shutdown(apiServer, healthServer)
		return err
	}

	shutdown(apiServer, healthServer)
	return nil
}

func shutdown(apiServer *api.Server, healthServer *health.Server) {
	healthServer.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("api server stop error", zap.Error(err))
	}
	if err := healthServer.Stop(ctx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
