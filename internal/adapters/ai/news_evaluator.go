package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/selivandex/newsdesk/pkg/templates"
)

// ErrMalformedResponse is returned when the model output lacks the expected fields
var ErrMalformedResponse = errors.New("malformed ai response")

const (
	summaryMaxTokens     = 150
	summaryTemperature   = 0.7
	classifyMaxTokens    = 50
	classifyTemperature  = 0.0
	sentimentMaxTokens   = 50
	sentimentTemperature = 0.0
)

// NewsAnalyzer turns article text into raw model judgements.
// It returns errors; defaults and clamping are the caller's business.
type NewsAnalyzer struct {
	provider Provider
	prompts  templates.Renderer
}

// NewNewsAnalyzer creates analyzer with given provider and prompt templates
func NewNewsAnalyzer(provider Provider, prompts templates.Renderer) *NewsAnalyzer {
	return &NewsAnalyzer{
		provider: provider,
		prompts:  prompts,
	}
}

// IsEnabled reports whether remote calls can be made at all
func (na *NewsAnalyzer) IsEnabled() bool {
	return na.provider != nil && na.provider.IsEnabled() && na.prompts != nil
}

// Categorize returns the category label chosen by the model
func (na *NewsAnalyzer) Categorize(ctx context.Context, title string) (string, error) {
	content, err := na.complete(ctx, promptCategorize, map[string]any{"Title": title}, classifyMaxTokens, classifyTemperature, true)
	if err != nil {
		return "", err
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	label, ok := out["category"].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return "", fmt.Errorf("%w: missing category", ErrMalformedResponse)
	}

	return strings.TrimSpace(label), nil
}

// Summarize returns a short factual summary of text
func (na *NewsAnalyzer) Summarize(ctx context.Context, text string) (string, error) {
	return na.complete(ctx, promptSummarize, map[string]any{"Text": text}, summaryMaxTokens, summaryTemperature, false)
}

// RateSentiment returns the unclamped star rating and confidence
func (na *NewsAnalyzer) RateSentiment(ctx context.Context, text string) (rating float64, confidence float64, err error) {
	content, err := na.complete(ctx, promptSentiment, map[string]any{"Text": text}, sentimentMaxTokens, sentimentTemperature, true)
	if err != nil {
		return 0, 0, err
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rating, ok := numberField(out, "rating")
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing rating", ErrMalformedResponse)
	}
	confidence, ok = numberField(out, "confidence")
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing confidence", ErrMalformedResponse)
	}

	return rating, confidence, nil
}

func (na *NewsAnalyzer) complete(ctx context.Context, prompt string, data map[string]any, maxTokens int, temperature float32, jsonMode bool) (string, error) {
	if !na.IsEnabled() {
		return "", ErrProviderDisabled
	}

	rendered, err := na.prompts.ExecuteTemplate(prompt, data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", prompt, err)
	}
	system, user := SplitPrompt(rendered)

	return na.provider.Complete(ctx, CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		JSON:         jsonMode,
	})
}

// numberField reads a numeric field that the model may have quoted
func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
