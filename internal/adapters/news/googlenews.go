package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/selivandex/newsdesk/pkg/models"
)

const googleNewsSearchPath = "/rss/search"

// GoogleNewsProvider reads the Google News RSS search feed. It needs no key
// and serves as fallback when NewsAPI is not configured or failing.
type GoogleNewsProvider struct {
	enabled bool
	baseURL string
	parser  *gofeed.Parser
	now     func() time.Time
}

// NewGoogleNewsProvider creates new Google News RSS provider
func NewGoogleNewsProvider(enabled bool, baseURL string, timeout time.Duration) *GoogleNewsProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &GoogleNewsProvider{
		enabled: enabled,
		baseURL: strings.TrimRight(baseURL, "/"),
		parser:  parser,
		now:     time.Now,
	}
}

func (g *GoogleNewsProvider) GetName() string {
	return "googlenews"
}

func (g *GoogleNewsProvider) IsEnabled() bool {
	return g.enabled
}

func (g *GoogleNewsProvider) FetchNews(ctx context.Context, company string) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q when:7d", company))
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	feed, err := g.parser.ParseURLWithContext(g.baseURL+googleNewsSearchPath+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	cutoff := g.now().Add(-Window)
	articles := make([]models.RawArticle, 0, MaxArticles)

	for _, item := range feed.Items {
		if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}

		title, publisher := splitPublisher(item.Title)
		article := models.RawArticle{
			Title:       title,
			Description: descriptionText(item.Description, title),
			URL:         item.Link,
			SourceName:  sourceName(publisher),
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed.UTC()
		}

		articles = append(articles, article)
		if len(articles) == MaxArticles {
			break
		}
	}

	return articles, nil
}

// splitPublisher splits "Headline - Publisher" titles
func splitPublisher(title string) (string, string) {
	title = strings.TrimSpace(title)
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

// descriptionText strips HTML; descriptions that only repeat the headline are dropped
func descriptionText(html, title string) string {
	text := cleanHTML(html)
	if text == "" || (title != "" && strings.HasPrefix(text, title)) {
		return ""
	}
	return text
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
