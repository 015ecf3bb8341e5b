package whisper

import (
	"math"

	"astronaut-companion/internal/domain"
)

const (
	// zeroCrossings is the number of sinc lobes kept on each side of the
	// kernel centre.
	zeroCrossings = 16
	// rolloff places the cutoff just below the lower of the two Nyquist
	// frequencies so the transition band ends before it.
	rolloff = 0.92
)

// Resample converts clip to rate with a Blackman-windowed sinc kernel.
// When downsampling, content above the target Nyquist frequency is
// removed rather than folded back into the band below it.
func Resample(clip domain.Clip, rate int) domain.Clip {
	if clip.SampleRate == rate || clip.SampleRate <= 0 || rate <= 0 {
		return clip
	}

	n := int(int64(len(clip.Samples)) * int64(rate) / int64(clip.SampleRate))
	out := make([]int16, n)
	if n == 0 {
		return domain.Clip{Samples: out, SampleRate: rate}
	}

	ratio := float64(rate) / float64(clip.SampleRate)
	cutoff := rolloff * math.Min(1, ratio)
	half := zeroCrossings / cutoff
	step := 1 / ratio
	last := len(clip.Samples) - 1

	for i := range out {
		pos := float64(i) * step
		lo := max(int(math.Ceil(pos-half)), 0)
		hi := min(int(math.Floor(pos+half)), last)

		var acc, weights float64
		for k := lo; k <= hi; k++ {
			t := float64(k) - pos
			w := cutoff * sinc(cutoff*t) * blackman(t/half)
			acc += w * float64(clip.Samples[k])
			weights += w
		}
		if weights != 0 {
			acc /= weights
		}
		out[i] = clamp16(acc)
	}

	return domain.Clip{Samples: out, SampleRate: rate}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func blackman(x float64) float64 {
	if math.Abs(x) >= 1 {
		return 0
	}
	return 0.42 + 0.5*math.Cos(math.Pi*x) + 0.08*math.Cos(2*math.Pi*x)
}

func clamp16(v float64) int16 {
	v = math.Round(v)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
