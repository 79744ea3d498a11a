// Package api exposes the news feed, quotes, watchlist and dashboard over
// HTTP, plus a WebSocket stream that re-pushes the dashboard periodically.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/config"
	"github.com/selivandex/newsdesk/internal/dashboard"
	"github.com/selivandex/newsdesk/internal/watchlist"
	"github.com/selivandex/newsdesk/pkg/logger"
)

// Deps are the collaborators behind the HTTP surface. Quotes may be nil.
type Deps struct {
	Articles  dashboard.ArticleSource
	Processor dashboard.FeedProcessor
	Quotes    dashboard.QuoteSource
	Watchlist *watchlist.Watchlist
}

// Server is the HTTP API server
type Server struct {
	cfg       config.HTTPConfig
	router    chi.Router
	server    *http.Server
	articles  dashboard.ArticleSource
	processor dashboard.FeedProcessor
	quotes    dashboard.QuoteSource
	watchlist *watchlist.Watchlist
	dashboard *dashboard.Service

	// streams are cancelled on Stop
	streamCtx    context.Context
	streamCancel context.CancelFunc
	streams      sync.WaitGroup
}

// NewServer creates API server with all routes and middleware
func NewServer(cfg config.HTTPConfig, deps Deps) *Server {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = 5 * time.Minute
	}
	if deps.Watchlist == nil {
		deps.Watchlist = watchlist.New()
	}

	streamCtx, streamCancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:          cfg,
		articles:     deps.Articles,
		processor:    deps.Processor,
		quotes:       deps.Quotes,
		watchlist:    deps.Watchlist,
		dashboard:    dashboard.NewService(deps.Articles, deps.Processor, deps.Quotes),
		streamCtx:    streamCtx,
		streamCancel: streamCancel,
	}
	s.router = s.buildRouter()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Router returns the chi router
func (s *Server) Router() chi.Router {
	return s.router
}

// Start serves until Stop is called
func (s *Server) Start() error {
	logger.Info("api server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop closes open streams and gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping api server...")

	s.streamCancel()
	err := s.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("dashboard streams did not close in time")
	}

	return err
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/news/{company}", s.handleNews)
			r.Get("/stock/{company}", s.handleStock)

			r.Get("/watchlist", s.handleWatchlist)
			r.Post("/watchlist", s.handleAddCompany)
			r.Delete("/watchlist/{company}", s.handleRemoveCompany)

			r.Get("/dashboard", s.handleDashboard)
		})
	})

	// long-lived, kept outside the request timeout
	r.Get("/ws/dashboard", s.handleStream)

	return r
}

// requestLogger logs every request through zap
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
