package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	yahooQuotePath = "/v7/finance/quote"
	yahooChartPath = "/v8/finance/chart/"
	yahooUserAgent = "Mozilla/5.0 (compatible; newsdesk/1.0)"
)

// Annotator adds derived indicators to a freshly fetched quote
type Annotator interface {
	Annotate(q *models.Quote)
}

// YahooProvider implements QuoteProvider using the Yahoo Finance quote and chart APIs
type YahooProvider struct {
	baseURL   string
	client    *http.Client
	annotator Annotator
	now       func() time.Time
}

// NewYahooProvider creates new Yahoo Finance provider; annotator may be nil
func NewYahooProvider(baseURL string, timeout time.Duration, annotator Annotator) *YahooProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YahooProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		annotator: annotator,
		now:       time.Now,
	}
}

func (y *YahooProvider) GetName() string {
	return "yahoo"
}

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64    `json:"regularMarketVolume"`
	MarketCap                  float64  `json:"marketCap"`
}

type yfChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"chart"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (y *YahooProvider) FetchQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("symbols", ticker)

	var quoteResp yfQuoteResponse
	found, err := y.getJSON(ctx, y.baseURL+yahooQuotePath+"?"+params.Encode(), &quoteResp)
	if err != nil {
		return nil, err
	}
	if !found || len(quoteResp.QuoteResponse.Result) == 0 {
		return nil, nil
	}

	r := quoteResp.QuoteResponse.Result[0]
	if r.RegularMarketPrice == nil {
		return nil, nil
	}

	quote := &models.Quote{
		Symbol:        r.Symbol,
		Price:         models.NewDecimal(*r.RegularMarketPrice),
		Change:        models.NewDecimal(r.RegularMarketChange),
		ChangePercent: models.NewDecimal(r.RegularMarketChangePercent),
		Volume:        r.RegularMarketVolume,
		MarketCap:     models.NewDecimal(r.MarketCap),
		History:       []models.PricePoint{},
		FetchedAt:     y.now(),
	}
	if quote.Symbol == "" {
		quote.Symbol = ticker
	}

	history, err := y.fetchHistory(ctx, ticker)
	if err != nil {
		logger.Warn("quote history unavailable",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
	} else {
		quote.History = history
	}

	if y.annotator != nil {
		y.annotator.Annotate(quote)
	}

	return quote, nil
}

// fetchHistory returns one month of daily closes, oldest first
func (y *YahooProvider) fetchHistory(ctx context.Context, ticker string) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("range", "1mo")
	params.Set("interval", "1d")

	var chart yfChartResponse
	found, err := y.getJSON(ctx, y.baseURL+yahooChartPath+url.PathEscape(ticker)+"?"+params.Encode(), &chart)
	if err != nil {
		return nil, err
	}
	if !found || len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return []models.PricePoint{}, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: models.NewDecimal(*closes[i]).Round(2),
		})
	}

	return points, nil
}

// getJSON decodes the response into out. A 404 is reported as not found.
func (y *YahooProvider) getJSON(ctx context.Context, rawURL string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return true, nil
}
