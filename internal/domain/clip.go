package domain

import "time"

// Clip is a mono, 16-bit signed PCM recording.
type Clip struct {
	Samples    []int16
	SampleRate int
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Fit returns a copy of the clip holding exactly n samples, zero-padded
// or truncated as needed.
func (c Clip) Fit(n int) Clip {
	samples := make([]int16, n)
	copy(samples, c.Samples)
	return Clip{Samples: samples, SampleRate: c.SampleRate}
}
