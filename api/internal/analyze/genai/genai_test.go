package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
)

var jpeg = jewel.NewImageData([]byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg")

func TestAnalyze_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [
				{"content": {"role": "model", "parts": [{"text": "1. Jewelry Identification:\n- Type: Ring"}]}}
			]
		}`))
	}))
	defer server.Close()

	e := New("test-key", "gemini-2.5-flash").WithBaseURL(server.URL)
	out, err := e.Analyze(context.Background(), jpeg, jewel.Prompt)
	require.NoError(t, err)
	assert.Equal(t, "1. Jewelry Identification:\n- Type: Ring", out)
	assert.True(t, strings.HasSuffix(gotPath, "gemini-2.5-flash:generateContent"), gotPath)
	assert.Contains(t, gotBody, "contents")
}

func TestAnalyze_EmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	e := New("test-key", "gemini-2.5-flash").WithBaseURL(server.URL)
	_, err := e.Analyze(context.Background(), jpeg, jewel.Prompt)
	assert.ErrorIs(t, err, analyze.ErrEmptyResponse)
}

func TestAnalyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": 500, "message": "backend down", "status": "INTERNAL"}}`))
	}))
	defer server.Close()

	e := New("test-key", "gemini-2.5-flash").WithBaseURL(server.URL)
	_, err := e.Analyze(context.Background(), jpeg, jewel.Prompt)
	assert.Error(t, err)
}

func TestAnalyze_Guards(t *testing.T) {
	_, err := New("", "m").Analyze(context.Background(), jpeg, jewel.Prompt)
	assert.Error(t, err)

	_, err = New("k", "m").Analyze(context.Background(), jewel.ImageData{}, jewel.Prompt)
	assert.Error(t, err)
}
