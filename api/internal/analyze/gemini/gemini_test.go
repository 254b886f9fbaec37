package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jewelry-identifier/api/internal/jewel"
)

func TestAnalyzeRequiresKey(t *testing.T) {
	e := New("  ", "gemini-2.5-flash")
	_, err := e.Analyze(context.Background(), jewel.NewImageData([]byte{0xFF, 0xD8, 0xFF}, ""), jewel.Prompt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestAnalyzeRejectsEmptyImage(t *testing.T) {
	e := New("key", "gemini-2.5-flash")
	_, err := e.Analyze(context.Background(), jewel.ImageData{}, jewel.Prompt)
	assert.EqualError(t, err, "gemini analyze: empty image")
}

func TestWithModel(t *testing.T) {
	e := New("key", "gemini-2.5-flash")
	c := e.WithModel(" gemini-2.5-pro ")
	assert.Equal(t, "gemini-2.5-pro", c.GetModel())
	assert.Equal(t, "gemini", c.Name())
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}},
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("1. Jewelry Identification:\n"),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("- Type: Brooch"),
			}}},
		},
	}
	assert.Equal(t, "1. Jewelry Identification:\n- Type: Brooch", firstText(resp))
}
