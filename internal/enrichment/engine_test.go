package enrichment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/selivandex/newsdesk/internal/adapters/ai"
	"github.com/selivandex/newsdesk/pkg/models"
)

type stubAnalyzer struct {
	category   string
	summary    string
	rating     float64
	confidence float64
	err        error
	block      bool
	calls      atomic.Int32
}

func (s *stubAnalyzer) wait(ctx context.Context) error {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func (s *stubAnalyzer) Categorize(ctx context.Context, title string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.category, nil
}

func (s *stubAnalyzer) Summarize(ctx context.Context, text string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.summary, nil
}

func (s *stubAnalyzer) RateSentiment(ctx context.Context, text string) (float64, float64, error) {
	if err := s.wait(ctx); err != nil {
		return 0, 0, err
	}
	return s.rating, s.confidence, nil
}

func TestEngine_EmptyInputsSkipRemote(t *testing.T) {
	stub := &stubAnalyzer{category: "Market", summary: "s", rating: 5, confidence: 1}
	e := NewEngine(stub, time.Second)
	ctx := context.Background()

	if got := e.Categorize(ctx, "   "); got != models.CategoryTechnology {
		t.Errorf("Empty title should be Technology, got %s", got)
	}
	if got := e.Summarize(ctx, ""); got != "No content available to summarize." {
		t.Errorf("Unexpected empty summary sentinel %q", got)
	}
	if got := e.AnalyzeSentiment(ctx, ""); got != (models.SentimentResult{Rating: 3, Confidence: 0.5}) {
		t.Errorf("Empty description should be neutral, got %+v", got)
	}

	if n := stub.calls.Load(); n != 0 {
		t.Errorf("Expected no remote calls, got %d", n)
	}
}

func TestEngine_Categorize(t *testing.T) {
	tests := []struct {
		label string
		want  models.Category
	}{
		{"Technology", models.CategoryTechnology},
		{"market", models.CategoryMarket},
		{"Press Releases", models.CategoryPressReleases},
		{"PressReleases", models.CategoryPressReleases},
		{"Sports", models.CategoryTechnology},
		{"", models.CategoryTechnology},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			e := NewEngine(&stubAnalyzer{category: tt.label}, time.Second)
			if got := e.Categorize(context.Background(), "Acme news"); got != tt.want {
				t.Errorf("Categorize() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEngine_SentimentClamping(t *testing.T) {
	tests := []struct {
		name       string
		rating     float64
		confidence float64
		want       models.SentimentResult
	}{
		{"in range", 4, 0.8, models.SentimentResult{Rating: 4, Confidence: 0.8}},
		{"too high", 7, 1.4, models.SentimentResult{Rating: 5, Confidence: 1.0}},
		{"too low", -2, -0.3, models.SentimentResult{Rating: 1, Confidence: 0}},
		{"rounds", 3.6, 0.5, models.SentimentResult{Rating: 4, Confidence: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&stubAnalyzer{rating: tt.rating, confidence: tt.confidence}, time.Second)
			if got := e.AnalyzeSentiment(context.Background(), "body"); got != tt.want {
				t.Errorf("AnalyzeSentiment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEngine_RemoteFailureDefaults(t *testing.T) {
	failures := map[string]*stubAnalyzer{
		"error":    {err: errors.New("connection refused")},
		"disabled": {err: ai.ErrProviderDisabled},
		"timeout":  {block: true},
	}

	for name, stub := range failures {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(stub, 20*time.Millisecond)
			ctx := context.Background()

			if got := e.Categorize(ctx, "title"); got != models.CategoryTechnology {
				t.Errorf("Categorize() = %s, want Technology", got)
			}
			if got := e.Summarize(ctx, "body"); got != UnavailableSummary {
				t.Errorf("Summarize() = %q, want unavailable sentinel", got)
			}
			if got := e.AnalyzeSentiment(ctx, "body"); got != models.NeutralSentiment {
				t.Errorf("AnalyzeSentiment() = %+v, want neutral", got)
			}
		})
	}
}

func TestEngine_EmptyRemoteSummary(t *testing.T) {
	e := NewEngine(&stubAnalyzer{summary: "  "}, time.Second)
	if got := e.Summarize(context.Background(), "body"); got != UnavailableSummary {
		t.Errorf("Blank summary should map to unavailable sentinel, got %q", got)
	}
}

func TestEngine_NilAnalyzer(t *testing.T) {
	e := NewEngine(nil, 0)
	ctx := context.Background()

	if got := e.Categorize(ctx, "title"); got != models.CategoryTechnology {
		t.Errorf("Categorize() = %s", got)
	}
	if got := e.Summarize(ctx, "body"); got != UnavailableSummary {
		t.Errorf("Summarize() = %q", got)
	}
	if got := e.AnalyzeSentiment(ctx, "body"); got != models.NeutralSentiment {
		t.Errorf("AnalyzeSentiment() = %+v", got)
	}
}

func TestEngine_Enrich(t *testing.T) {
	stub := &stubAnalyzer{category: "Market", summary: "Acme rose.", rating: 7, confidence: 1.4}
	e := NewEngine(stub, time.Second)

	raw := models.RawArticle{
		Title:       "Acme shares jump",
		Description: "Acme shares rose 10% after earnings.",
		URL:         "https://example.com/acme",
		SourceName:  "Wire",
	}

	got := e.Enrich(context.Background(), raw)

	if got.RawArticle != raw {
		t.Errorf("Raw fields changed: %+v", got.RawArticle)
	}
	if got.Category != models.CategoryMarket {
		t.Errorf("Expected Market, got %s", got.Category)
	}
	if got.Summary != "Acme rose." {
		t.Errorf("Unexpected summary %q", got.Summary)
	}
	if got.Sentiment != (models.SentimentResult{Rating: 5, Confidence: 1.0}) {
		t.Errorf("Expected clamped {5, 1.0}, got %+v", got.Sentiment)
	}
	if n := stub.calls.Load(); n != 3 {
		t.Errorf("Expected 3 remote calls, got %d", n)
	}
}

type disabledAnalyzer struct {
	stubAnalyzer
}

func (d *disabledAnalyzer) IsEnabled() bool { return false }

func TestEngine_DisabledAnalyzerSkipsThrottle(t *testing.T) {
	d := &disabledAnalyzer{}
	// one slot per minute: any queued call would hit the deadline
	e := NewEngine(d, time.Second, WithRateLimit(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		got := e.Enrich(ctx, models.RawArticle{Title: "Chip launch", Description: "A new chip."})
		if got.Summary != UnavailableSummary || got.Sentiment != models.NeutralSentiment {
			t.Fatalf("Expected defaults, got %+v", got)
		}
	}
	if d.calls.Load() != 0 {
		t.Errorf("Disabled analyzer must not be called, got %d", d.calls.Load())
	}
	if e.limiter.Tokens() < 1 {
		t.Error("Disabled analyzer must not consume rate slots")
	}
}
