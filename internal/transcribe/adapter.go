package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaz8081/mock-interviewer/internal/audio"
)

// Result is the outcome of one transcription. Warnings collect
// non-fatal problems, such as a temp file that could not be removed.
type Result struct {
	Text     string
	Warnings []string
}

// FileAdapter transcribes a captured clip by writing it to a temporary
// WAV artifact, decoding it for the engine, and removing it afterwards.
type FileAdapter struct {
	engine     Transcriber
	tempDir    string
	retryDelay time.Duration
	log        zerolog.Logger

	// remove deletes the temp artifact. Tests replace it to simulate
	// file lock races.
	remove func(string) error
}

// NewFileAdapter creates an adapter around engine. An empty tempDir uses
// the OS default. retryDelay is the pause before the single delete retry.
func NewFileAdapter(engine Transcriber, tempDir string, retryDelay time.Duration, log zerolog.Logger) *FileAdapter {
	return &FileAdapter{
		engine:     engine,
		tempDir:    tempDir,
		retryDelay: retryDelay,
		log:        log.With().Str("component", "transcribe").Logger(),
		remove:     os.Remove,
	}
}

// Transcribe converts clip to text. Silence yields an empty string, not
// an error. The temporary artifact is removed on every exit path.
func (a *FileAdapter) Transcribe(ctx context.Context, clip audio.Clip) (res Result, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &TranscriptionError{Message: "cancelled before transcription", Cause: err}
	}

	f, err := os.CreateTemp(a.tempDir, "answer-*.wav")
	if err != nil {
		return Result{}, &TranscriptionError{Message: "create temp audio file", Cause: err}
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		a.log.Debug().Err(err).Str("path", path).Msg("closing fresh temp file")
	}

	defer func() {
		if warning := a.cleanup(path); warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}()

	if err := audio.WriteWAVFile(path, clip); err != nil {
		return Result{}, &TranscriptionError{Message: "write temp audio file", Cause: err}
	}

	stored, err := audio.ReadWAVFile(path)
	if err != nil {
		return Result{}, &TranscriptionError{Message: "read temp audio file", Cause: err}
	}

	samples := audio.Resample(stored, SampleRate).Samples
	start := time.Now()
	text, err := a.engine.Process(samples)
	if err != nil {
		return Result{}, &TranscriptionError{Message: "speech model failed", Cause: err}
	}

	a.log.Debug().
		Dur("audio", clip.Duration()).
		Dur("took", time.Since(start)).
		Int("chars", len(text)).
		Msg("answer transcribed")

	return Result{Text: text}, nil
}

// cleanup removes path, retrying once after retryDelay. It returns a
// warning message when the file survives both attempts.
func (a *FileAdapter) cleanup(path string) string {
	err := a.remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return ""
	}

	a.log.Debug().Err(err).Str("path", path).Msg("temp audio delete failed, retrying")
	time.Sleep(a.retryDelay)

	err = a.remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return ""
	}

	a.log.Warn().Err(err).Str("path", path).Msg("could not delete temporary audio file")
	return fmt.Sprintf("Could not delete temporary file: %v", err)
}
