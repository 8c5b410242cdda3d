package interview

import (
	"context"
	"time"

	"github.com/chaz8081/mock-interviewer/internal/audio"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

type fakeExtractor struct {
	ExtractTextFunc func(pdf []byte) (string, error)
	calls           int
}

func (f *fakeExtractor) ExtractText(pdf []byte) (string, error) {
	f.calls++
	if f.ExtractTextFunc != nil {
		return f.ExtractTextFunc(pdf)
	}
	return string(pdf), nil
}

type fakeRecorder struct {
	RecordFunc func(ctx context.Context, d time.Duration, progress audio.ProgressFunc) (audio.Clip, error)
	calls      int
	durations  []time.Duration
}

func (f *fakeRecorder) Record(ctx context.Context, d time.Duration, progress audio.ProgressFunc) (audio.Clip, error) {
	f.calls++
	f.durations = append(f.durations, d)
	if f.RecordFunc != nil {
		return f.RecordFunc(ctx, d, progress)
	}
	return audio.Clip{Samples: make([]float32, 441), SampleRate: 44100, Channels: 1}, nil
}

type fakeTranscriber struct {
	TranscribeFunc func(ctx context.Context, clip audio.Clip) (transcribe.Result, error)
	calls          int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, clip audio.Clip) (transcribe.Result, error) {
	f.calls++
	if f.TranscribeFunc != nil {
		return f.TranscribeFunc(ctx, clip)
	}
	return transcribe.Result{}, nil
}

type fakeGenerator struct {
	FirstQuestionFunc func(ctx context.Context, resume string, domain types.Domain) (string, error)
	ReplyFunc         func(ctx context.Context, resume string, domain types.Domain, answer string) (string, error)
	AnalyzeFunc       func(ctx context.Context, messages []types.Message, domain types.Domain) (string, error)

	firstCalls   int
	replyCalls   int
	analyzeCalls int
}

func (f *fakeGenerator) FirstQuestion(ctx context.Context, resume string, domain types.Domain) (string, error) {
	f.firstCalls++
	if f.FirstQuestionFunc != nil {
		return f.FirstQuestionFunc(ctx, resume, domain)
	}
	return "Tell me about yourself.", nil
}

func (f *fakeGenerator) Reply(ctx context.Context, resume string, domain types.Domain, answer string) (string, error) {
	f.replyCalls++
	if f.ReplyFunc != nil {
		return f.ReplyFunc(ctx, resume, domain, answer)
	}
	return "Interesting, tell me more.", nil
}

func (f *fakeGenerator) Analyze(ctx context.Context, messages []types.Message, domain types.Domain) (string, error) {
	f.analyzeCalls++
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, messages, domain)
	}
	return "Overall Performance: 75/100\n\nKey Strengths: clarity", nil
}

type fakeRenderer struct {
	RenderFunc func(in report.Input) ([]byte, error)
	inputs     []report.Input
}

func (f *fakeRenderer) Render(in report.Input) ([]byte, error) {
	f.inputs = append(f.inputs, in)
	if f.RenderFunc != nil {
		return f.RenderFunc(in)
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakes struct {
	extractor   *fakeExtractor
	recorder    *fakeRecorder
	transcriber *fakeTranscriber
	generator   *fakeGenerator
	renderer    *fakeRenderer
}

var fixedNow = time.Date(2024, time.March, 5, 14, 30, 9, 0, time.UTC)

func newFakes() *fakes {
	return &fakes{
		extractor:   &fakeExtractor{},
		recorder:    &fakeRecorder{},
		transcriber: &fakeTranscriber{},
		generator:   &fakeGenerator{},
		renderer:    &fakeRenderer{},
	}
}

func (f *fakes) deps() Deps {
	return Deps{
		Extractor:      f.extractor,
		Recorder:       f.recorder,
		Transcriber:    f.transcriber,
		Generator:      f.generator,
		Renderer:       f.renderer,
		RecordDuration: 10 * time.Second,
		Now:            func() time.Time { return fixedNow },
	}
}
