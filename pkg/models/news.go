package models

import (
	"fmt"
	"strings"
	"time"
)

// DisplayTimeLayout is the layout articles are rendered with.
const DisplayTimeLayout = "2006-01-02 15:04"

// UnknownSource is used when the news index does not name the publisher.
const UnknownSource = "Unknown"

// Category is the closed set of article categories
type Category string

const (
	CategoryTechnology    Category = "Technology"
	CategoryMarket        Category = "Market"
	CategoryPressReleases Category = "PressReleases"
)

// DefaultCategory is used whenever classification is missing or invalid
const DefaultCategory = CategoryTechnology

// Categories lists every valid category in display order
var Categories = []Category{CategoryTechnology, CategoryMarket, CategoryPressReleases}

// ParseCategory maps a free-form label onto the closed set.
// "Press Releases" and any casing of the canonical labels are accepted.
func ParseCategory(label string) (Category, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(label), ""))
	switch normalized {
	case "technology":
		return CategoryTechnology, nil
	case "market":
		return CategoryMarket, nil
	case "pressreleases", "pressrelease":
		return CategoryPressReleases, nil
	}
	return "", fmt.Errorf("unknown category %q", label)
}

// Label returns the human-readable category name
func (c Category) Label() string {
	if c == CategoryPressReleases {
		return "Press Releases"
	}
	return string(c)
}

// RawArticle is a news item as returned by an article source
type RawArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	SourceName  string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// DisplayTime renders the publication time in local time, or "" when unknown
func (a RawArticle) DisplayTime() string {
	if a.PublishedAt.IsZero() {
		return ""
	}
	return a.PublishedAt.Local().Format(DisplayTimeLayout)
}

// EnrichedArticle is a raw article plus its AI-derived fields
type EnrichedArticle struct {
	RawArticle
	Category  Category        `json:"category"`
	Summary   string          `json:"summary"`
	Sentiment SentimentResult `json:"sentiment"`
}
