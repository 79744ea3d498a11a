package ai

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/selivandex/newsdesk/pkg/templates"
)

const (
	promptCategorize = "categorize.tmpl"
	promptSummarize  = "summarize.tmpl"
	promptSentiment  = "sentiment.tmpl"

	userPromptSeparator = "=== USER PROMPT ==="
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var requiredPrompts = []string{promptCategorize, promptSummarize, promptSentiment}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// LoadPrompts returns the prompt templates. An empty dir selects the
// templates compiled into the binary.
func LoadPrompts(dir string) (templates.Renderer, error) {
	if dir == "" {
		m, err := templates.NewManagerWithValidation(promptFS, requiredPrompts, "prompts/*.tmpl")
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	m, err := templates.NewManager(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range requiredPrompts {
		if !m.TemplateExists(name) {
			return nil, fmt.Errorf("prompt %s not found in %s", name, dir)
		}
	}
	return m, nil
}

// SplitPrompt splits template output into system and user prompts
func SplitPrompt(output string) (systemPrompt string, userPrompt string) {
	idx := strings.Index(output, userPromptSeparator)
	if idx == -1 {
		return "", strings.TrimSpace(output)
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(userPromptSeparator):])
	return systemPrompt, userPrompt
}

// extractJSON pulls a JSON object or array out of model output that may be
// wrapped in markdown fences or prose.
func extractJSON(text string) string {
	if matches := codeFenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	var start int
	var endChar string

	if startObj >= 0 && (startArr < 0 || startObj < startArr) {
		start = startObj
		endChar = "}"
	} else if startArr >= 0 {
		start = startArr
		endChar = "]"
	} else {
		return strings.TrimSpace(text)
	}

	end := strings.LastIndex(text, endChar)
	if end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}
