package news

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/selivandex/newsdesk/pkg/models"
)

type stubProvider struct {
	name     string
	enabled  bool
	articles []models.RawArticle
	err      error
	calls    int
}

func (s *stubProvider) GetName() string { return s.name }
func (s *stubProvider) IsEnabled() bool { return s.enabled }
func (s *stubProvider) FetchNews(ctx context.Context, company string) ([]models.RawArticle, error) {
	s.calls++
	return s.articles, s.err
}

func makeArticles(n int) []models.RawArticle {
	out := make([]models.RawArticle, n)
	for i := range out {
		out[i] = models.RawArticle{Title: string(rune('a' + i))}
	}
	return out
}

func TestSourceFirstSuccessWins(t *testing.T) {
	primary := &stubProvider{name: "primary", enabled: true, articles: makeArticles(2)}
	fallback := &stubProvider{name: "fallback", enabled: true, articles: makeArticles(5)}

	articles, err := NewSource(primary, fallback).Fetch(context.Background(), "Acme")

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(articles))
	assert.Equal(t, 0, fallback.calls)
}

func TestSourceFallsBack(t *testing.T) {
	disabled := &stubProvider{name: "disabled", enabled: false}
	failing := &stubProvider{name: "failing", enabled: true, err: errors.New("401")}
	fallback := &stubProvider{name: "fallback", enabled: true, articles: makeArticles(15)}

	s := NewSource(disabled, failing, fallback)
	articles, err := s.Fetch(context.Background(), "Acme")

	assert.Equal(t, nil, err)
	assert.Equal(t, MaxArticles, len(articles))
	assert.Equal(t, 0, disabled.calls)
	assert.Equal(t, []string{"failing", "fallback"}, s.EnabledProviders())
}

func TestSourceUnavailable(t *testing.T) {
	failing := &stubProvider{name: "failing", enabled: true, err: errors.New("timeout")}

	_, err := NewSource(failing).Fetch(context.Background(), "Acme")
	assert.Equal(t, true, errors.Is(err, ErrSourceUnavailable))

	_, err = NewSource(&stubProvider{name: "off"}).Fetch(context.Background(), "Acme")
	assert.Equal(t, true, errors.Is(err, ErrSourceUnavailable))

	_, err = NewSource(failing).Fetch(context.Background(), "  ")
	assert.Equal(t, true, errors.Is(err, ErrSourceUnavailable))
}

func TestSourceEmptyResultIsNotAnError(t *testing.T) {
	empty := &stubProvider{name: "empty", enabled: true, articles: []models.RawArticle{}}
	fallback := &stubProvider{name: "fallback", enabled: true, articles: makeArticles(1)}

	articles, err := NewSource(empty, fallback).Fetch(context.Background(), "Acme")

	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(articles))
	assert.Equal(t, 0, fallback.calls)
}
