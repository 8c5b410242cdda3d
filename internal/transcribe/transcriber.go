// Package transcribe provides speech-to-text backends and the file-based
// adapter the interview controller uses for each recorded answer.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default)
package transcribe

import (
	"fmt"

	"github.com/chaz8081/mock-interviewer/internal/config"
)

// SampleRate is the input rate whisper models expect.
const SampleRate = 16000

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "whisper", "":
		return NewWhisperTranscriber(cfg.ModelPath, cfg.Language)
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: whisper)", cfg.Backend)
	}
}

// TranscriptionError reports a failure while capturing or transcribing an answer.
type TranscriptionError struct {
	Message string
	Cause   error
}

func (e *TranscriptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcription error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transcription error: %s", e.Message)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}
