package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/internal/dashboard"
	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/internal/watchlist"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const maxBodyBytes = 4096

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewsResponse is the enriched feed for one company
type NewsResponse struct {
	Company  string                   `json:"company"`
	Filter   feed.Filter              `json:"filter"`
	Fetched  int                      `json:"fetched"`
	Articles []models.EnrichedArticle `json:"articles"`
	Outcome  feed.Outcome             `json:"outcome"`
	Message  string                   `json:"message,omitempty"`
}

// WatchlistResponse lists watched companies
type WatchlistResponse struct {
	Companies []string `json:"companies"`
	Max       int      `json:"max"`
}

// DashboardResponse carries one panel per watched company
type DashboardResponse struct {
	Filter      feed.Filter       `json:"filter"`
	Panels      []dashboard.Panel `json:"panels"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type addCompanyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	company := companyParam(r)
	if company == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	filter, err := feed.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := s.articles.Fetch(r.Context(), company)
	if err != nil {
		logger.Warn("news fetch failed",
			zap.String("company", company),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "Error fetching news: "+err.Error())
		return
	}

	result := s.processor.Process(r.Context(), raw, filter)

	writeJSON(w, http.StatusOK, NewsResponse{
		Company:  company,
		Filter:   result.Filter,
		Fetched:  result.Fetched,
		Articles: result.Articles,
		Outcome:  result.Outcome,
		Message:  result.Message(company),
	})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	ticker := price.TickerFor(companyParam(r))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	if s.quotes == nil {
		writeError(w, http.StatusNotFound, "Stock data not found")
		return
	}

	q, err := s.quotes.GetQuote(r.Context(), ticker)
	if err != nil {
		logger.Warn("quote fetch failed",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "Error fetching stock data: "+err.Error())
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "Stock data not found")
		return
	}

	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watchlistResponse())
}

func (s *Server) handleAddCompany(w http.ResponseWriter, r *http.Request) {
	var req addCompanyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.watchlist.Add(req.Name); err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	logger.Info("company added to watchlist", zap.String("company", strings.TrimSpace(req.Name)))
	writeJSON(w, http.StatusCreated, s.watchlistResponse())
}

func (s *Server) handleRemoveCompany(w http.ResponseWriter, r *http.Request) {
	company := companyParam(r)
	if err := s.watchlist.Remove(company); err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	logger.Info("company removed from watchlist", zap.String("company", company))
	writeJSON(w, http.StatusOK, s.watchlistResponse())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := feed.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.buildDashboard(r.Context(), filter))
}

func (s *Server) watchlistResponse() WatchlistResponse {
	return WatchlistResponse{
		Companies: s.watchlist.Companies(),
		Max:       watchlist.MaxCompanies,
	}
}

func watchlistStatus(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, watchlist.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, watchlist.ErrFull):
		return http.StatusUnprocessableEntity
	case errors.Is(err, watchlist.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// companyParam returns the decoded {company} path segment
func companyParam(r *http.Request) string {
	raw := chi.URLParam(r, "company")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
