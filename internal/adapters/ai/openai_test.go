package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/selivandex/newsdesk/internal/adapters/config"
)

func newChatServer(t *testing.T, content string, status int, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Complete(t *testing.T) {
	setupTest(t)

	var body map[string]any
	srv := newChatServer(t, `{"category":"Market"}`, http.StatusOK, &body)

	p := NewOpenAIProvider(config.AIProviderConfig{APIKey: "sk-test", Enabled: true, BaseURL: srv.URL + "/v1"})

	out, err := p.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		MaxTokens:    150,
		JSON:         true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `{"category":"Market"}` {
		t.Errorf("Unexpected content %q", out)
	}

	if body["model"] != "gpt-4o" {
		t.Errorf("Expected default model gpt-4o, got %v", body["model"])
	}
	if body["max_tokens"] != float64(150) {
		t.Errorf("Expected max_tokens 150, got %v", body["max_tokens"])
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", body["response_format"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Errorf("Expected system and user messages, got %d", len(messages))
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	setupTest(t)

	t.Run("disabled", func(t *testing.T) {
		p := NewOpenAIProvider(config.AIProviderConfig{Enabled: true})
		if p.IsEnabled() {
			t.Error("Provider without key should be disabled")
		}
		if _, err := p.Complete(context.Background(), CompletionRequest{UserPrompt: "x"}); !errors.Is(err, ErrProviderDisabled) {
			t.Errorf("Expected ErrProviderDisabled, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := newChatServer(t, "", http.StatusInternalServerError, nil)
		p := NewOpenAIProvider(config.AIProviderConfig{APIKey: "k", Enabled: true, BaseURL: srv.URL + "/v1"})
		if _, err := p.Complete(context.Background(), CompletionRequest{UserPrompt: "x"}); err == nil {
			t.Error("Expected error on 500")
		}
	})

	t.Run("empty content", func(t *testing.T) {
		srv := newChatServer(t, "   ", http.StatusOK, nil)
		p := NewOpenAIProvider(config.AIProviderConfig{APIKey: "k", Enabled: true, BaseURL: srv.URL + "/v1"})
		if _, err := p.Complete(context.Background(), CompletionRequest{UserPrompt: "x"}); !errors.Is(err, ErrEmptyCompletion) {
			t.Errorf("Expected ErrEmptyCompletion, got %v", err)
		}
	})
}

func TestNewProvider(t *testing.T) {
	cfg := &config.AIConfig{Provider: "deepseek"}
	cfg.DeepSeek = config.AIProviderConfig{APIKey: "k", Enabled: true}

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.GetName() != "deepseek" || p.Model() != "deepseek-chat" {
		t.Errorf("Unexpected provider %s/%s", p.GetName(), p.Model())
	}

	cfg.Provider = "claude"
	if _, err := NewProvider(cfg); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
