// Package audio captures microphone audio and converts it between the
// formats the transcription pipeline needs.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// progressInterval is how often Record polls and reports progress.
const progressInterval = 100 * time.Millisecond

// ErrBusy is returned when Record is called while a capture is running.
var ErrBusy = errors.New("audio: capture already in progress")

// ProgressFunc receives the elapsed and total recording time.
type ProgressFunc func(elapsed, total time.Duration)

// Recorder captures fixed-length clips from the default microphone.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32
	busy       atomic.Bool
}

// NewRecorder initializes the audio backend. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context: %w", err)
	}
	return &Recorder{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

// Record captures a clip of the given duration. It blocks until the
// duration has elapsed, calling progress (if non-nil) on every poll tick.
// Cancelling ctx stops the capture early; the partial clip is returned
// together with ctx.Err().
func (r *Recorder) Record(ctx context.Context, duration time.Duration, progress ProgressFunc) (Clip, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Clip{}, ErrBusy
	}
	defer r.busy.Store(false)

	buf := newCaptureBuffer(int(float64(r.sampleRate*r.channels) * duration.Seconds()))
	device, err := r.openDevice(buf)
	if err != nil {
		return Clip{}, err
	}

	start := time.Now()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var stopErr error
loop:
	for {
		select {
		case <-ctx.Done():
			stopErr = ctx.Err()
			break loop
		case <-ticker.C:
			elapsed := min(time.Since(start), duration)
			if progress != nil {
				progress(elapsed, duration)
			}
			if elapsed >= duration {
				break loop
			}
		}
	}
	device.Uninit()

	return Clip{
		Samples:    buf.take(),
		SampleRate: r.sampleRate,
		Channels:   r.channels,
	}, stopErr
}

// openDevice starts a float32 capture device that feeds buf.
func (r *Recorder) openDevice(buf *captureBuffer) (*malgo.Device, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = r.channels
	cfg.SampleRate = r.sampleRate

	channels := r.channels
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			buf.write(decodeFloat32(input, frameCount*channels))
		},
	}

	device, err := malgo.InitDevice(r.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("audio: starting capture device: %w", err)
	}
	return device, nil
}

// Close releases the audio backend.
func (r *Recorder) Close() error {
	if r.ctx == nil {
		return nil
	}
	if err := r.ctx.Uninit(); err != nil {
		return fmt.Errorf("audio: uninitializing context: %w", err)
	}
	r.ctx.Free()
	r.ctx = nil
	return nil
}

// captureBuffer accumulates samples written from the device callback.
type captureBuffer struct {
	mu      sync.Mutex
	samples []float32
}

func newCaptureBuffer(capacity int) *captureBuffer {
	return &captureBuffer{samples: make([]float32, 0, max(capacity, 0))}
}

func (b *captureBuffer) write(samples []float32) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// take returns the buffered samples and leaves the buffer empty.
func (b *captureBuffer) take() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.samples
	b.samples = nil
	return out
}

// decodeFloat32 reads up to count little-endian float32 samples from data.
// A trailing partial sample is ignored.
func decodeFloat32(data []byte, count uint32) []float32 {
	n := min(int(count), len(data)/4)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}
