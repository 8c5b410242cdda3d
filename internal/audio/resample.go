package audio

// Downmix averages interleaved channels into a mono clip.
func Downmix(c Clip) Clip {
	if c.Channels <= 1 {
		return c
	}

	ch := int(c.Channels)
	frames := len(c.Samples) / ch
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for j := range ch {
			sum += c.Samples[i*ch+j]
		}
		mono[i] = sum / float32(ch)
	}
	return Clip{Samples: mono, SampleRate: c.SampleRate, Channels: 1}
}

// Resample converts a mono clip to rate using linear interpolation.
// Multi-channel clips are downmixed first.
func Resample(c Clip, rate uint32) Clip {
	c = Downmix(c)
	if c.SampleRate == rate || c.SampleRate == 0 || rate == 0 || len(c.Samples) == 0 {
		return Clip{Samples: c.Samples, SampleRate: rate, Channels: 1}
	}

	ratio := float64(c.SampleRate) / float64(rate)
	n := int(float64(len(c.Samples)) / ratio)
	out := make([]float32, n)
	last := len(c.Samples) - 1
	for i := range n {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = c.Samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = c.Samples[idx]*(1-frac) + c.Samples[idx+1]*frac
	}
	return Clip{Samples: out, SampleRate: rate, Channels: 1}
}
