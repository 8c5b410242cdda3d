package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/mock-interviewer/internal/config"
)

func TestNewGeminiClientValidation(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "gemini-2.5-flash-lite", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	_, err = NewGeminiClient(context.Background(), "", nil, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model name is required")
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &config.GenerationConfig{Provider: "openai", Model: "m"}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestExtractTextFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr string
	}{
		{name: "nil response", resp: nil, wantErr: "no candidates"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: "no candidates"},
		{
			name:    "no content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			wantErr: "no content",
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
			}}},
			wantErr: "no text parts",
		},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("Tell me "), genai.Text("about Go.")}},
			}}},
			want: "Tell me about Go.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTextFromResponse(tt.resp)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
