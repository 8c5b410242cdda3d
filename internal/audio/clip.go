package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
	int16Scale   = 32768.0
)

// Clip is a captured audio buffer. Multi-channel samples are interleaved.
type Clip struct {
	Samples    []float32
	SampleRate uint32
	Channels   uint32
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / int(c.Channels)
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// WriteWAV encodes the clip as 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, clip Clip) error {
	if clip.SampleRate == 0 || clip.Channels == 0 {
		return fmt.Errorf("audio: invalid clip format (%d Hz, %d ch)", clip.SampleRate, clip.Channels)
	}

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = floatToInt16(s)
	}

	enc := wav.NewEncoder(w, int(clip.SampleRate), wavBitDepth, int(clip.Channels), wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(clip.Channels),
			SampleRate:  int(clip.SampleRate),
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes the clip to path, creating or truncating it.
func WriteWAVFile(path string, clip Clip) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("audio: close %s: %w", path, cerr)
		}
	}()
	return WriteWAV(f, clip)
}

// ReadWAV decodes a PCM WAV stream into float32 samples normalized to [-1.0, 1.0].
func ReadWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth == 0 {
		return Clip{}, errors.New("audio: not a valid wav stream")
	}

	scale := float32(math.Pow(2, float64(dec.BitDepth)-1))
	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / scale
	}

	return Clip{
		Samples:    samples,
		SampleRate: dec.SampleRate,
		Channels:   uint32(dec.NumChans),
	}, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadWAV(f)
}

// floatToInt16 clamps s to [-1, 1] and scales it to the int16 range.
func floatToInt16(s float32) int {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	v := int(math.Round(float64(s) * int16Scale))
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	return v
}
