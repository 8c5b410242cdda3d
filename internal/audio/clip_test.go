package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineClip(rate uint32, seconds float64, freq float64) Clip {
	n := int(float64(rate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return Clip{Samples: samples, SampleRate: rate, Channels: 1}
}

func TestClipDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, sineClip(44100, 2, 440).Duration())
	assert.Equal(t, time.Duration(0), Clip{}.Duration())

	stereo := Clip{Samples: make([]float32, 32000), SampleRate: 16000, Channels: 2}
	assert.Equal(t, time.Second, stereo.Duration())
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := sineClip(44100, 0.25, 440)

	require.NoError(t, WriteWAVFile(path, clip))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44)) // header plus data

	got, err := ReadWAVFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), got.SampleRate)
	assert.Equal(t, uint32(1), got.Channels)
	require.Len(t, got.Samples, len(clip.Samples))

	for i := range clip.Samples {
		if math.Abs(float64(got.Samples[i]-clip.Samples[i])) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, got.Samples[i], clip.Samples[i])
		}
	}
}

func TestWriteWAVRejectsInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := WriteWAVFile(path, Clip{Samples: []float32{0}})
	assert.Error(t, err)
}

func TestReadWAVInvalid(t *testing.T) {
	_, err := ReadWAV(bytes.NewReader([]byte("definitely not a wav file")))
	assert.Error(t, err)
}

func TestReadWAVFileMissing(t *testing.T) {
	_, err := ReadWAVFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestFloatToInt16Clamps(t *testing.T) {
	assert.Equal(t, math.MaxInt16, floatToInt16(1.5))
	assert.Equal(t, -32768, floatToInt16(-2))
	assert.Equal(t, 0, floatToInt16(0))
}
