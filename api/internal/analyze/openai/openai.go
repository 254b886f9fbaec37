package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: defaultBaseURL,
		// no overall timeout: an analysis runs until the endpoint answers
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string      { return "gpt" }
func (e *Engine) GetModel() string  { return e.Model }

var _ analyze.ModelSwitcher = (*Engine)(nil)

// WithModel returns a copy of e that asks for model m. e itself is never modified.
func (e *Engine) WithModel(m string) analyze.Analyzer {
	c := *e
	c.Model = strings.TrimSpace(m)
	return &c
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (e *Engine) Analyze(ctx context.Context, img jewel.ImageData, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}
	if img.IsZero() {
		return "", errors.New("openai analyze: empty image")
	}

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": img.DataURL(), "detail": "high"}},
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		var ae apiError
		if json.Unmarshal(x, &ae) == nil && ae.Error.Message != "" {
			return "", fmt.Errorf("openai analyze %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return "", fmt.Errorf("openai analyze %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openai analyze: bad JSON: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai analyze: %w", analyze.ErrEmptyResponse)
	}
	out := analyze.StripCodeFences(raw.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai analyze: %w", analyze.ErrEmptyResponse)
	}
	return out, nil
}
