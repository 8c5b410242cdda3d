package llm

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chaz8081/mock-interviewer/internal/prompts"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// Interviewer turns session state into prompts and returns the model's
// text verbatim.
type Interviewer struct {
	client Client
	log    zerolog.Logger
}

// NewInterviewer creates an Interviewer backed by client.
func NewInterviewer(client Client, log zerolog.Logger) *Interviewer {
	return &Interviewer{
		client: client,
		log:    log.With().Str("component", "llm").Logger(),
	}
}

// FirstQuestion asks for the opening question based on the resume.
func (iv *Interviewer) FirstQuestion(ctx context.Context, resume string, domain types.Domain) (string, error) {
	return iv.Turn(ctx, resume, domain, prompts.MustGet(prompts.Interview, prompts.KeyFirstQuestion))
}

// Reply asks for the interviewer's response to the candidate's latest answer.
func (iv *Interviewer) Reply(ctx context.Context, resume string, domain types.Domain, answer string) (string, error) {
	return iv.Turn(ctx, resume, domain, answer)
}

// Turn fills the turn template with resume, domain and input and returns
// the model output. Earlier conversation turns are not included.
func (iv *Interviewer) Turn(ctx context.Context, resume string, domain types.Domain, input string) (string, error) {
	prompt := TurnPrompt(resume, domain, input)
	return iv.generate(ctx, "turn", prompt)
}

// Analyze requests the performance evaluation of the whole conversation.
func (iv *Interviewer) Analyze(ctx context.Context, messages []types.Message, domain types.Domain) (string, error) {
	prompt := AnalysisPrompt(messages, domain)
	return iv.generate(ctx, "analysis", prompt)
}

func (iv *Interviewer) generate(ctx context.Context, kind, prompt string) (string, error) {
	iv.log.Debug().Str("kind", kind).Int("prompt_chars", len(prompt)).Msg("requesting generation")

	text, err := iv.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Message: kind + " request failed", Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Message: kind + " response was empty"}
	}

	iv.log.Debug().Str("kind", kind).Int("response_chars", len(text)).Msg("generation complete")
	return text, nil
}

// TurnPrompt renders the turn template.
func TurnPrompt(resume string, domain types.Domain, input string) string {
	return prompts.Format(prompts.MustGet(prompts.Interview, prompts.KeyTurn), map[string]string{
		"Resume": resume,
		"Domain": string(domain),
		"Input":  input,
	})
}

// AnalysisPrompt renders the analysis template with a labelled transcript.
func AnalysisPrompt(messages []types.Message, domain types.Domain) string {
	return prompts.Format(prompts.MustGet(prompts.Interview, prompts.KeyAnalysis), map[string]string{
		"Domain":       string(domain),
		"Conversation": FormatConversation(messages),
	})
}

// FormatConversation renders one "Label: content" line per message.
// Assistant turns are labelled "AI", user turns "Candidate"; any other
// role is skipped.
func FormatConversation(messages []types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		var label string
		switch m.Role {
		case types.RoleAssistant:
			label = "AI"
		case types.RoleUser:
			label = "Candidate"
		default:
			continue
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
