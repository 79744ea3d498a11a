package ai

import (
	"fmt"

	"github.com/selivandex/newsdesk/internal/adapters/config"
)

const (
	deepseekAPIURL       = "https://api.deepseek.com/v1"
	defaultDeepSeekModel = "deepseek-chat"
)

// NewDeepSeekProvider creates a provider for DeepSeek's OpenAI-compatible API
func NewDeepSeekProvider(cfg config.AIProviderConfig) *OpenAIProvider {
	return newCompatibleProvider("deepseek", defaultDeepSeekModel, deepseekAPIURL, cfg)
}

// NewProvider builds the provider selected in configuration
func NewProvider(aiCfg *config.AIConfig) (*OpenAIProvider, error) {
	switch aiCfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(aiCfg.OpenAI), nil
	case "deepseek":
		return NewDeepSeekProvider(aiCfg.DeepSeek), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", aiCfg.Provider)
	}
}
