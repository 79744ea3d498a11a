package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/pkg/logger"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager manages prompt templates loaded from a filesystem
type Manager struct {
	templates *template.Template
	source    string
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"trim":  strings.TrimSpace,
		"lower": strings.ToLower,
		"truncate": func(s string, maxLen int) string {
			runes := []rune(s)
			if len(runes) <= maxLen {
				return s
			}
			return string(runes[:maxLen]) + "..."
		},
	}
}

// NewManager loads all *.tmpl files from a directory on disk
func NewManager(templatesDir string) (*Manager, error) {
	m, err := NewManagerFS(os.DirFS(templatesDir), "*.tmpl", "*/*.tmpl")
	if err != nil {
		return nil, err
	}
	m.source = templatesDir
	return m, nil
}

// NewManagerFS loads templates matching the given glob patterns from fsys.
// Patterns that match nothing are skipped; at least one template must load.
func NewManagerFS(fsys fs.FS, patterns ...string) (*Manager, error) {
	tmpl := template.New("root").Funcs(GetDefaultFuncMap())

	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad template pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFS(fsys, pattern); err != nil {
			return nil, fmt.Errorf("failed to parse templates %s: %w", pattern, err)
		}
	}

	templateCount := len(tmpl.Templates())
	if templateCount <= 1 { // "root" template doesn't count
		return nil, fmt.Errorf("no templates found for %v", patterns)
	}

	logger.Debug("templates loaded",
		zap.Int("count", templateCount-1),
	)

	return &Manager{
		templates: tmpl,
		source:    "embedded",
	}, nil
}

// NewManagerWithValidation creates manager and validates required templates exist
func NewManagerWithValidation(fsys fs.FS, requiredTemplates []string, patterns ...string) (*Manager, error) {
	manager, err := NewManagerFS(fsys, patterns...)
	if err != nil {
		return nil, err
	}

	for _, name := range requiredTemplates {
		if !manager.TemplateExists(name) {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	return manager, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}

// Source returns where templates were loaded from
func (m *Manager) Source() string {
	return m.source
}
