package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaz8081/mock-interviewer/internal/audio"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// ErrUnknownDomain is returned for a domain outside the fixed list.
var ErrUnknownDomain = errors.New("interview: unknown domain")

// DefaultRecordDuration is the length of one answer recording.
const DefaultRecordDuration = 10 * time.Second

// ResumeExtractor reads the text layer of an uploaded PDF.
type ResumeExtractor interface {
	ExtractText(pdf []byte) (string, error)
}

// Recorder captures one answer from the microphone.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration, progress audio.ProgressFunc) (audio.Clip, error)
}

// AnswerTranscriber converts a recorded answer to text.
type AnswerTranscriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) (transcribe.Result, error)
}

// Generator produces interviewer turns and the final analysis.
type Generator interface {
	FirstQuestion(ctx context.Context, resume string, domain types.Domain) (string, error)
	Reply(ctx context.Context, resume string, domain types.Domain, answer string) (string, error)
	Analyze(ctx context.Context, messages []types.Message, domain types.Domain) (string, error)
}

// ReportRenderer lays out the analysis as a PDF.
type ReportRenderer interface {
	Render(in report.Input) ([]byte, error)
}

// Deps are the adapters a Controller sequences.
type Deps struct {
	Extractor   ResumeExtractor
	Recorder    Recorder
	Transcriber AnswerTranscriber
	Generator   Generator
	Renderer    ReportRenderer

	// RecordDuration defaults to DefaultRecordDuration.
	RecordDuration time.Duration
	// Now defaults to time.Now. It stamps rendered reports.
	Now func() time.Time
}

// Controller implements the interview operations. Each operation takes
// the session it acts on. Unmet preconditions produce notices on the
// session and a nil error; adapter failures are returned unchanged and
// leave the session as it was.
type Controller struct {
	deps Deps
	log  zerolog.Logger
}

// NewController creates a Controller.
func NewController(deps Deps, log zerolog.Logger) *Controller {
	if deps.RecordDuration <= 0 {
		deps.RecordDuration = DefaultRecordDuration
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{
		deps: deps,
		log:  log.With().Str("component", "interview").Logger(),
	}
}

// RecordDuration is the capture length of each answer.
func (c *Controller) RecordDuration() time.Duration { return c.deps.RecordDuration }

// SelectDomain changes the interview domain before the interview starts.
func (c *Controller) SelectDomain(s *Session, domain types.Domain) error {
	if !domain.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	if s.State() != StateAwaitingSetup {
		s.notify(NoticeInfo, "The domain can only be changed before the interview starts.")
		return nil
	}
	s.domain = domain
	return nil
}

// UploadResume extracts the resume text, locks it for the session, and
// asks the first interview question.
func (c *Controller) UploadResume(ctx context.Context, s *Session, filename string, pdf []byte) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		s.notify(NoticeWarning, "Please upload your resume in PDF format.")
		return nil
	}
	if s.resumeLocked {
		s.notify(NoticeInfo, "A resume is already loaded. Start a new interview to replace it.")
		return nil
	}

	text, err := c.deps.Extractor.ExtractText(pdf)
	if err != nil {
		return err
	}

	s.resume = text
	s.resumeSet = true
	s.resumeLocked = true
	if strings.TrimSpace(text) == "" {
		s.notify(NoticeWarning, "No text could be read from the resume. Questions will not reflect it.")
	}
	c.log.Info().Str("session_id", s.ID).Int("resume_chars", len(text)).Msg("resume loaded")

	return c.bootstrap(ctx, s)
}

// BeginInterview asks the first question using the retained resume. It
// covers a new interview after a reset and a retry after a failed first
// question.
func (c *Controller) BeginInterview(ctx context.Context, s *Session) error {
	if !s.resumeSet {
		s.notify(NoticeWarning, "Please upload your resume first!")
		return nil
	}
	if s.State() != StateAwaitingSetup {
		s.notify(NoticeInfo, "The interview has already started.")
		return nil
	}
	s.resumeLocked = true
	return c.bootstrap(ctx, s)
}

func (c *Controller) bootstrap(ctx context.Context, s *Session) error {
	question, err := c.deps.Generator.FirstQuestion(ctx, s.resume, s.domain)
	if err != nil {
		return err
	}
	s.append(types.RoleAssistant, question)
	return nil
}

// RecordAnswer records one answer, transcribes it, and appends the answer
// and the interviewer's reply together.
func (c *Controller) RecordAnswer(ctx context.Context, s *Session, progress audio.ProgressFunc) error {
	switch {
	case !s.resumeSet:
		s.notify(NoticeWarning, "Please upload your resume first!")
		return nil
	case s.State() == StateEnded:
		s.notify(NoticeInfo, "The interview has ended. Start a new interview to keep practising.")
		return nil
	case s.State() == StateAwaitingSetup:
		s.notify(NoticeInfo, "The interview has not started yet.")
		return nil
	}

	clip, err := c.deps.Recorder.Record(ctx, c.deps.RecordDuration, progress)
	if err != nil {
		return &transcribe.TranscriptionError{Message: "record answer", Cause: err}
	}

	res, err := c.deps.Transcriber.Transcribe(ctx, clip)
	for _, w := range res.Warnings {
		s.notify(NoticeWarning, "Note: "+w)
	}
	if err != nil {
		return err
	}

	reply, err := c.deps.Generator.Reply(ctx, s.resume, s.domain, res.Text)
	if err != nil {
		return err
	}

	s.append(types.RoleUser, res.Text)
	s.append(types.RoleAssistant, reply)
	c.log.Info().
		Str("session_id", s.ID).
		Int("messages", len(s.messages)).
		Dur("audio", clip.Duration()).
		Msg("answer recorded")
	return nil
}

// EndInterview requests the performance analysis and ends the interview.
func (c *Controller) EndInterview(ctx context.Context, s *Session) error {
	if s.ended {
		s.notify(NoticeInfo, "The interview has already ended.")
		return nil
	}
	if len(s.messages) == 0 {
		s.notify(NoticeInfo, "There is no interview to analyze yet.")
		return nil
	}

	analysis, err := c.deps.Generator.Analyze(ctx, s.Messages(), s.domain)
	if err != nil {
		return err
	}

	s.analysis = analysis
	s.ended = true
	s.notify(NoticeSuccess, "Interview complete. Your analysis is ready.")
	c.log.Info().Str("session_id", s.ID).Int("messages", len(s.messages)).Msg("interview ended")
	return nil
}

// NewInterview clears the conversation and analysis. The resume text is
// kept for BeginInterview but may be replaced by a new upload.
func (c *Controller) NewInterview(s *Session) {
	s.messages = nil
	s.analysis = ""
	s.ended = false
	s.resumeLocked = false
}

// DownloadReport renders the stored analysis. It returns nil with a
// notice when there is nothing to render.
func (c *Controller) DownloadReport(s *Session) (*report.File, error) {
	if !s.ended || s.analysis == "" {
		s.notify(NoticeWarning, "No analysis is available yet. End the interview first.")
		return nil, nil
	}

	ts := c.deps.Now()
	data, err := c.deps.Renderer.Render(report.Input{
		Analysis:    s.analysis,
		Domain:      s.domain,
		ResumeText:  s.resume,
		GeneratedAt: ts,
	})
	if err != nil {
		return nil, err
	}
	return &report.File{
		Name: report.Filename(ts),
		MIME: report.MIME,
		Data: data,
	}, nil
}
