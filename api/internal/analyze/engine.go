// Package analyze holds the model backends that turn a jewelry photo into analysis text.
package analyze

import (
	"context"
	"errors"
	"strings"
	"sync"

	"jewelry-identifier/api/internal/jewel"
)

// Analyzer sends one image and one prompt to an inference endpoint and returns its text.
type Analyzer interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, img jewel.ImageData, prompt string) (string, error)
}

// ModelSwitcher is implemented by engines that can run the same backend under another model.
type ModelSwitcher interface {
	WithModel(model string) Analyzer
}

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// ErrNoEngine is returned by a bound analyzer when neither a default nor an override is set.
var ErrNoEngine = errors.New("no analysis engine configured")

type Engines struct {
	Gemini Analyzer
	GenAI  Analyzer
	OpenAI Analyzer
}

func (e *Engines) GetEngine(llmName string) (Analyzer, error) {
	var a Analyzer
	switch strings.ToLower(strings.TrimSpace(llmName)) {
	case "gemini", "":
		a = e.Gemini
	case "genai":
		a = e.GenAI
	case "gpt", "openai":
		a = e.OpenAI
	default:
		return nil, errors.New("unknown llm_name; use 'gemini', 'genai' or 'gpt'")
	}
	if a == nil {
		return nil, errors.New("engine " + llmName + " is not configured")
	}
	return a, nil
}

// Names lists the configured engines.
func (e *Engines) Names() []string {
	var out []string
	if e.Gemini != nil {
		out = append(out, "gemini")
	}
	if e.GenAI != nil {
		out = append(out, "genai")
	}
	if e.OpenAI != nil {
		out = append(out, "gpt")
	}
	return out
}

// Manager remembers a per-session engine choice on top of a default.
type Manager struct {
	def Analyzer
	m   sync.Map // session key -> Analyzer
}

func NewManager(defaultEngine Analyzer) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(key string) Analyzer {
	if v, ok := m.m.Load(key); ok {
		return v.(Analyzer)
	}
	return m.def
}

func (m *Manager) Set(key string, a Analyzer) {
	m.m.Store(key, a)
}

// Forget drops the override for key.
func (m *Manager) Forget(key string) {
	m.m.Delete(key)
}

// For binds the manager to one session key so callers see a plain Analyzer.
func (m *Manager) For(key string) Analyzer {
	return boundAnalyzer{m: m, key: key}
}

type boundAnalyzer struct {
	m   *Manager
	key string
}

func (b boundAnalyzer) Name() string {
	if a := b.m.Get(b.key); a != nil {
		return a.Name()
	}
	return ""
}

func (b boundAnalyzer) GetModel() string {
	if a := b.m.Get(b.key); a != nil {
		return a.GetModel()
	}
	return ""
}

func (b boundAnalyzer) Analyze(ctx context.Context, img jewel.ImageData, prompt string) (string, error) {
	a := b.m.Get(b.key)
	if a == nil {
		return "", ErrNoEngine
	}
	return a.Analyze(ctx, img, prompt)
}

// StripCodeFences removes a ``` wrapper some models put around plain answers.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
