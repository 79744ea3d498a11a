package ai

import (
	"strings"
	"testing"

	"github.com/selivandex/newsdesk/pkg/logger"
)

// setupTest initializes logger for tests
func setupTest(t *testing.T) {
	t.Helper()
	if err := logger.Init("error", ""); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
}

// TestPromptTemplatesLoaded verifies that all embedded prompts load and render
func TestPromptTemplatesLoaded(t *testing.T) {
	setupTest(t)

	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	for _, name := range requiredPrompts {
		if !prompts.TemplateExists(name) {
			t.Errorf("Required prompt not found: %s", name)
		}
	}

	out, err := prompts.ExecuteTemplate(promptCategorize, map[string]any{"Title": "Acme ships new chip"})
	if err != nil {
		t.Fatalf("Failed to render categorize prompt: %v", err)
	}

	system, user := SplitPrompt(out)
	if !strings.Contains(system, "Press Releases") {
		t.Error("System prompt should list the categories")
	}
	if !strings.Contains(user, "Acme ships new chip") {
		t.Errorf("User prompt should contain the headline, got %q", user)
	}
}

func TestSummarizePromptInstructions(t *testing.T) {
	setupTest(t)

	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	out, err := prompts.ExecuteTemplate(promptSummarize, map[string]any{"Text": "Body"})
	if err != nil {
		t.Fatalf("Failed to render summarize prompt: %v", err)
	}

	system, user := SplitPrompt(out)
	if !strings.Contains(system, "2-3 sentence") {
		t.Errorf("Summary prompt should ask for 2-3 sentences, got %q", system)
	}
	if !strings.HasSuffix(user, "Body") {
		t.Errorf("User prompt should end with the article text, got %q", user)
	}
}

func TestLoadPrompts_MissingDir(t *testing.T) {
	setupTest(t)

	if _, err := LoadPrompts(t.TempDir()); err == nil {
		t.Error("Expected error for directory without prompts")
	}
}

func TestSplitPrompt(t *testing.T) {
	system, user := SplitPrompt("sys\n=== USER PROMPT ===\nuser")
	if system != "sys" || user != "user" {
		t.Errorf("Unexpected split: %q / %q", system, user)
	}

	system, user = SplitPrompt("  only user  ")
	if system != "" || user != "only user" {
		t.Errorf("Unexpected split without separator: %q / %q", system, user)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"category":"Market"}`, `{"category":"Market"}`},
		{"fenced", "```json\n{\"rating\": 4}\n```", `{"rating": 4}`},
		{"prose", `Sure! {"rating": 2, "confidence": 0.3} hope it helps`, `{"rating": 2, "confidence": 0.3}`},
		{"array", `result: [1,2]`, `[1,2]`},
		{"no json", `nothing here`, `nothing here`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
