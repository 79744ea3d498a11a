package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/adapters/config"
	"github.com/selivandex/newsdesk/pkg/logger"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider implements Provider over any OpenAI-compatible chat API
type OpenAIProvider struct {
	name    string
	model   string
	enabled bool
	client  *openai.Client
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(cfg config.AIProviderConfig) *OpenAIProvider {
	return newCompatibleProvider("openai", defaultOpenAIModel, "", cfg)
}

func newCompatibleProvider(name, defaultModel, defaultBaseURL string, cfg config.AIProviderConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case defaultBaseURL != "":
		clientCfg.BaseURL = defaultBaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAIProvider{
		name:    name,
		model:   model,
		enabled: cfg.IsConfigured(),
		client:  openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenAIProvider) GetName() string {
	return o.name
}

func (o *OpenAIProvider) IsEnabled() bool {
	return o.enabled
}

// Model returns the chat model requests are sent to
func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !o.enabled {
		return "", ErrProviderDisabled
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	startTime := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", o.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	logger.Debug("chat completion received",
		zap.String("provider", o.name),
		zap.String("model", o.model),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)

	return content, nil
}
