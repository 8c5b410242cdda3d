package transcribe

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperTranscriber runs answers through a loaded whisper.cpp model.
// Calls to Process are serialized; the model is shared.
type WhisperTranscriber struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
}

// NewWhisperTranscriber loads the ggml model at modelPath. language is
// "auto" or an ISO 639-1 code and only applies to multilingual models.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Close unloads the model.
func (t *WhisperTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}

// Process transcribes mono 16kHz samples. Empty input yields "".
func (t *WhisperTranscriber) Process(samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return "", errors.New("transcribe: whisper model is closed")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcribe: create context: %w", err)
	}
	wctx.SetTranslate(false)
	if t.language != "" && t.model.IsMultilingual() {
		if err := wctx.SetLanguage(t.language); err != nil {
			return "", fmt.Errorf("transcribe: set language %q: %w", t.language, err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcribe: process: %w", err)
	}
	return joinSegments(wctx)
}

// joinSegments drains the decoded segments into one trimmed line.
func joinSegments(wctx whisper.Context) (string, error) {
	var parts []string
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcribe: next segment: %w", err)
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
