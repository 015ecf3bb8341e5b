package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"astronaut-companion/internal/domain"
)

const (
	bitDepth     = 16
	wavFormatPCM = 1
	monoChannels = 1
)

// WriteWAV stores clip at path as an uncompressed 16-bit mono WAV,
// replacing any existing file.
func WriteWAV(path string, clip domain.Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, clip.SampleRate, bitDepth, monoChannels, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: monoChannels,
			SampleRate:  clip.SampleRate,
		},
		Data:           make([]int, len(clip.Samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range clip.Samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}

// ReadWAV loads a 16-bit PCM WAV. Multi-channel input is averaged down
// to mono.
func ReadWAV(path string) (domain.Clip, error) {
	clip, _, err := readWAV(path)
	return clip, err
}

// readWAV is ReadWAV that also reports the channel count of the file.
func readWAV(path string) (domain.Clip, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Clip{}, 0, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return domain.Clip{}, 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return domain.Clip{}, 0, fmt.Errorf("unsupported wav encoding %d in %s", dec.WavAudioFormat, path)
	}
	if dec.BitDepth != bitDepth {
		return domain.Clip{}, 0, fmt.Errorf("unsupported bit depth %d in %s", dec.BitDepth, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return domain.Clip{}, 0, fmt.Errorf("decoding wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = int16(sum / channels)
	}

	return domain.Clip{Samples: samples, SampleRate: int(dec.SampleRate)}, channels, nil
}
