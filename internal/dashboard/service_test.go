package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/selivandex/newsdesk/internal/adapters/news"
	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/models"
)

func setupTest(t *testing.T) {
	t.Helper()
	if err := logger.Init("error", ""); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}
}

type stubSource struct {
	articles map[string][]models.RawArticle
	failing  map[string]bool
}

func (s *stubSource) Fetch(ctx context.Context, company string) ([]models.RawArticle, error) {
	if s.failing[company] {
		return nil, fmt.Errorf("%w: newsapi: 401 unauthorized", news.ErrSourceUnavailable)
	}
	return s.articles[company], nil
}

// labelEnricher derives the category from a "[Label]" title prefix
type labelEnricher struct{}

func (labelEnricher) Enrich(ctx context.Context, a models.RawArticle) models.EnrichedArticle {
	category := models.CategoryTechnology
	switch {
	case strings.HasPrefix(a.Title, "[Market]"):
		category = models.CategoryMarket
	case strings.HasPrefix(a.Title, "[PR]"):
		category = models.CategoryPressReleases
	}
	return models.EnrichedArticle{
		RawArticle: a,
		Category:   category,
		Summary:    "summary",
		Sentiment:  models.NeutralSentiment,
	}
}

type stubQuotes struct {
	quotes map[string]*models.Quote
	err    error
}

func (s *stubQuotes) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes[ticker], nil
}

func newTestService(src *stubSource, quotes QuoteSource) *Service {
	return NewService(src, feed.NewProcessor(labelEnricher{}, 2), quotes)
}

func TestService_PanelIsolation(t *testing.T) {
	setupTest(t)

	src := &stubSource{
		articles: map[string][]models.RawArticle{
			"Y Corp": {{Title: "[Market] Y beats estimates"}, {Title: "Y ships new chip"}},
		},
		failing: map[string]bool{"X Corp": true},
	}
	svc := newTestService(src, nil)

	panels := svc.Build(context.Background(), []string{"X Corp", "Y Corp"}, feed.FilterAll)
	if len(panels) != 2 {
		t.Fatalf("Expected 2 panels, got %d", len(panels))
	}

	x, y := panels[0], panels[1]
	if x.Company != "X Corp" || y.Company != "Y Corp" {
		t.Fatalf("Panels out of order: %s, %s", x.Company, y.Company)
	}

	if x.Error == "" || !strings.Contains(x.Error, "X Corp") {
		t.Errorf("Expected isolated error for X, got %q", x.Error)
	}
	if len(x.Articles) != 0 {
		t.Errorf("Failed panel should have no articles, got %d", len(x.Articles))
	}

	if y.Error != "" {
		t.Errorf("Y should render, got error %q", y.Error)
	}
	if len(y.Articles) != 2 || y.Outcome != feed.OutcomeOK {
		t.Errorf("Expected 2 articles for Y, got %d (%s)", len(y.Articles), y.Outcome)
	}
}

func TestService_PanelFilterAndMessages(t *testing.T) {
	setupTest(t)

	src := &stubSource{articles: map[string][]models.RawArticle{
		"Acme": {{Title: "Acme robot"}, {Title: "[Market] Acme stock up"}, {Title: "[PR] Acme announces"}},
	}}
	svc := newTestService(src, nil)
	ctx := context.Background()

	market := svc.Panel(ctx, "Acme", feed.Filter(models.CategoryMarket))
	if len(market.Articles) != 1 || market.Articles[0].Title != "[Market] Acme stock up" {
		t.Errorf("Expected only the market article, got %+v", market.Articles)
	}
	if market.Message != "" {
		t.Errorf("Expected no message, got %q", market.Message)
	}

	empty := svc.Panel(ctx, "Nobody", feed.FilterAll)
	if empty.Outcome != feed.OutcomeNoArticles || empty.Message != "No news found for Nobody" {
		t.Errorf("Unexpected empty panel %+v", empty)
	}

	src.articles["Solo"] = []models.RawArticle{{Title: "Solo gadget"}}
	noMatch := svc.Panel(ctx, "Solo", feed.Filter(models.CategoryPressReleases))
	if noMatch.Outcome != feed.OutcomeNoMatches {
		t.Errorf("Expected no_matches, got %s", noMatch.Outcome)
	}
	if noMatch.Message == empty.Message {
		t.Error("No-match message must differ from no-articles message")
	}
}

func TestService_PanelQuote(t *testing.T) {
	setupTest(t)

	src := &stubSource{articles: map[string][]models.RawArticle{"Apple Inc": {{Title: "Apple"}}}}

	t.Run("attached", func(t *testing.T) {
		quotes := &stubQuotes{quotes: map[string]*models.Quote{
			"APPLE": {Symbol: "APPLE", Price: decimal.NewFromInt(10)},
		}}
		panel := newTestService(src, quotes).Panel(context.Background(), "Apple Inc", feed.FilterAll)

		if panel.Ticker != "APPLE" {
			t.Errorf("Expected ticker APPLE, got %s", panel.Ticker)
		}
		if panel.Quote == nil || panel.Quote.Symbol != "APPLE" {
			t.Errorf("Expected quote, got %+v", panel.Quote)
		}
	})

	t.Run("absent", func(t *testing.T) {
		panel := newTestService(src, &stubQuotes{}).Panel(context.Background(), "Apple Inc", feed.FilterAll)
		if panel.Quote != nil || panel.QuoteError != "" {
			t.Errorf("Absent quote should leave panel quiet, got %+v / %q", panel.Quote, panel.QuoteError)
		}
	})

	t.Run("failure keeps articles", func(t *testing.T) {
		quotes := &stubQuotes{err: fmt.Errorf("%w: yahoo: timeout", price.ErrQuoteUnavailable)}
		panel := newTestService(src, quotes).Panel(context.Background(), "Apple Inc", feed.FilterAll)

		if panel.QuoteError == "" {
			t.Error("Expected quote error")
		}
		if panel.Error != "" || len(panel.Articles) != 1 {
			t.Errorf("Quote failure must not affect articles, got %+v", panel)
		}
	})
}

type panickingSource struct{}

func (panickingSource) Fetch(ctx context.Context, company string) ([]models.RawArticle, error) {
	if company == "Boom" {
		panic("unexpected")
	}
	return nil, errors.New("unused")
}

func TestService_BuildRecoversPanics(t *testing.T) {
	setupTest(t)

	svc := NewService(panickingSource{}, feed.NewProcessor(labelEnricher{}, 1), nil)
	panels := svc.Build(context.Background(), []string{"Boom", "Calm"}, feed.FilterAll)

	if panels[0].Error == "" || panels[1].Error == "" {
		t.Errorf("Expected both panels to carry notices, got %+v", panels)
	}
	if panels[1].Company != "Calm" {
		t.Errorf("Expected Calm second, got %s", panels[1].Company)
	}
}
