// Package genai talks to Gemini through the google.golang.org/genai SDK.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
)

type Engine struct {
	APIKey  string
	Model   string
	baseURL string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

// WithBaseURL points the client at another endpoint (proxies, tests).
func (e *Engine) WithBaseURL(u string) *Engine {
	e.baseURL = strings.TrimSpace(u)
	return e
}

func (e *Engine) Name() string      { return "genai" }
func (e *Engine) GetModel() string  { return e.Model }

var _ analyze.ModelSwitcher = (*Engine)(nil)

// WithModel returns a copy of e that asks for model m. e itself is never modified.
func (e *Engine) WithModel(m string) analyze.Analyzer {
	c := *e
	c.Model = strings.TrimSpace(m)
	return &c
}

func (e *Engine) Analyze(ctx context.Context, img jewel.ImageData, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	if img.IsZero() {
		return "", errors.New("genai analyze: empty image")
	}

	cfg := &genai.ClientConfig{
		APIKey:  e.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if e.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: e.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIME),
		}, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, e.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("genai analyze: %w", err)
	}
	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("genai analyze: %w", analyze.ErrEmptyResponse)
	}
	return analyze.StripCodeFences(txt), nil
}
