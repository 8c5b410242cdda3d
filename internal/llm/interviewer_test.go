package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/mock-interviewer/internal/types"
)

func reply(text string) *MockClient {
	return &MockClient{
		GenerateContentFunc: func(context.Context, string) (string, error) { return text, nil },
	}
}

func TestFirstQuestionPrompt(t *testing.T) {
	client := reply("Tell me about a model you deployed recently.")
	iv := NewInterviewer(client, zerolog.Nop())

	q, err := iv.FirstQuestion(context.Background(), "5 years Python, SQL, ML models", types.DomainDataScience)
	require.NoError(t, err)
	assert.Equal(t, "Tell me about a model you deployed recently.", q)

	require.Len(t, client.Prompts, 1)
	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "Resume: 5 years Python, SQL, ML models")
	assert.Contains(t, prompt, "Domain: Data Science")
	assert.Contains(t, prompt, "respond to: Based on the resume, generate an appropriate first interview question.")
	assert.NotContains(t, prompt, "{{.")
}

func TestReplyUsesOnlyLatestAnswer(t *testing.T) {
	client := reply("How did you validate it?")
	iv := NewInterviewer(client, zerolog.Nop())

	_, err := iv.Reply(context.Background(), "resume", types.DomainCloudComputing, "I built a churn prediction model")
	require.NoError(t, err)

	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "respond to: I built a churn prediction model")
	assert.Contains(t, prompt, "Domain: Cloud Computing")
}

func TestReturnsTextVerbatim(t *testing.T) {
	raw := "  **Question 2:**\n\nWalk me through your CI pipeline.  \n"
	iv := NewInterviewer(reply(raw), zerolog.Nop())

	out, err := iv.Reply(context.Background(), "r", types.DomainDevOps, "a")
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestGenerationFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *MockClient
	}{
		{
			name: "client error",
			client: &MockClient{GenerateContentFunc: func(context.Context, string) (string, error) {
				return "", errors.New("quota exceeded")
			}},
		},
		{name: "empty response", client: reply("")},
		{name: "whitespace response", client: reply(" \n\t")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := NewInterviewer(tt.client, zerolog.Nop())

			_, err := iv.FirstQuestion(context.Background(), "r", types.DomainDataScience)
			var gerr *GenerationError
			require.ErrorAs(t, err, &gerr)

			_, err = iv.Analyze(context.Background(), []types.Message{{Role: types.RoleAssistant, Content: "Q"}}, types.DomainDataScience)
			require.ErrorAs(t, err, &gerr)
		})
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := &GenerationError{Message: "turn request failed", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "generation error: turn request failed: 401 unauthorized", err.Error())
	assert.Equal(t, "generation error: empty", (&GenerationError{Message: "empty"}).Error())
}

func TestAnalyzePrompt(t *testing.T) {
	client := reply("Overall Performance: 82/100\n\nKey Strengths: modelling")
	iv := NewInterviewer(client, zerolog.Nop())

	messages := []types.Message{
		{Role: types.RoleAssistant, Content: "Tell me about a model you built."},
		{Role: types.RoleUser, Content: "I built a churn prediction model"},
		{Role: types.RoleAssistant, Content: "How did you evaluate it?"},
	}
	out, err := iv.Analyze(context.Background(), messages, types.DomainDataScience)
	require.NoError(t, err)
	assert.Equal(t, "Overall Performance: 82/100\n\nKey Strengths: modelling", out)

	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "for a Data Science position")
	assert.Contains(t, prompt, "AI: Tell me about a model you built.\nCandidate: I built a churn prediction model\nAI: How did you evaluate it?\n")
	assert.Contains(t, prompt, "Score out of 100")
	assert.Contains(t, prompt, "Fit: XX%")
}

func TestFormatConversation(t *testing.T) {
	tests := []struct {
		name     string
		messages []types.Message
		want     string
	}{
		{name: "empty", messages: nil, want: ""},
		{
			name: "labels by role",
			messages: []types.Message{
				{Role: types.RoleAssistant, Content: "Q1"},
				{Role: types.RoleUser, Content: "A1"},
			},
			want: "AI: Q1\nCandidate: A1\n",
		},
		{
			name: "skips other roles",
			messages: []types.Message{
				{Role: types.RoleSystem, Content: "hidden"},
				{Role: types.RoleAssistant, Content: "Q1"},
			},
			want: "AI: Q1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatConversation(tt.messages)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.Contains(got, "hidden"))
		})
	}
}
