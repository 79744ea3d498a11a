package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	newsAPIEverythingPath = "/v2/everything"
	newsAPITimeLayout     = "2006-01-02T15:04:05Z"
)

// NewsAPIProvider searches the NewsAPI full-text index
type NewsAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewNewsAPIProvider creates new NewsAPI provider
func NewNewsAPIProvider(apiKey, baseURL string, timeout time.Duration) *NewsAPIProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsAPIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (n *NewsAPIProvider) GetName() string {
	return "newsapi"
}

func (n *NewsAPIProvider) IsEnabled() bool {
	return n.apiKey != ""
}

func (n *NewsAPIProvider) FetchNews(ctx context.Context, company string) ([]models.RawArticle, error) {
	now := n.now().UTC()

	params := url.Values{}
	params.Set("q", company)
	params.Set("from", now.Add(-Window).Format(newsAPITimeLayout))
	params.Set("to", now.Format(newsAPITimeLayout))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(MaxArticles))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+newsAPIEverythingPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status   string `json:"status"`
		Code     string `json:"code"`
		Message  string `json:"message"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string  `json:"title"`
			Description *string `json:"description"`
			URL         string  `json:"url"`
			PublishedAt string  `json:"publishedAt"`
		} `json:"articles"`
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &result) == nil && result.Message != "" {
			return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, result.Message)
		}
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %s", result.Status, result.Message)
	}

	articles := make([]models.RawArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		article := models.RawArticle{
			Title:      a.Title,
			URL:        a.URL,
			SourceName: sourceName(a.Source.Name),
		}
		if a.Description != nil {
			article.Description = *a.Description
		}
		if ts, err := time.Parse(newsAPITimeLayout, a.PublishedAt); err == nil {
			article.PublishedAt = ts
		}
		articles = append(articles, article)

		if len(articles) == MaxArticles {
			break
		}
	}

	return articles, nil
}
