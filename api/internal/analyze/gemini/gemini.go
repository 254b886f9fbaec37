package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
)

type Engine struct {
	APIKey string
	Model  string

	opts []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

func (e *Engine) Name() string      { return "gemini" }
func (e *Engine) GetModel() string  { return e.Model }

var _ analyze.ModelSwitcher = (*Engine)(nil)

// WithModel returns a copy of e that asks for model m. e itself is never modified.
func (e *Engine) WithModel(m string) analyze.Analyzer {
	c := *e
	c.Model = strings.TrimSpace(m)
	return &c
}

// Analyze makes exactly one GenerateContent call; failures go straight back to the caller.
func (e *Engine) Analyze(ctx context.Context, img jewel.ImageData, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	if img.IsZero() {
		return "", errors.New("gemini analyze: empty image")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: img.MIME, Data: img.Data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini analyze: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini analyze: %w", analyze.ErrEmptyResponse)
	}
	return analyze.StripCodeFences(txt), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}
