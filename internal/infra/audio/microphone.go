//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
)

type MicrophoneSource struct {
	framesPerBuffer int
	logger          *slog.Logger
}

func NewMicrophoneSource(logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		framesPerBuffer: 1024,
		logger:          logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

// Record blocks until duration worth of samples has been read from the
// default input device.
func (m *MicrophoneSource) Record(ctx context.Context, format application.AudioFormat, duration time.Duration) (domain.Clip, error) {
	if err := portaudio.Initialize(); err != nil {
		return domain.Clip{}, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]int16, m.framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(
		format.Channels,
		0,
		float64(format.SampleRate),
		len(buffer),
		buffer,
	)
	if err != nil {
		return domain.Clip{}, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return domain.Clip{}, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	total := SampleCount(format.SampleRate, duration)
	samples := make([]int16, 0, total+len(buffer))

	m.logger.Debug("microphone started", "sampleRate", format.SampleRate, "samples", total)

	for len(samples) < total {
		select {
		case <-ctx.Done():
			return domain.Clip{}, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				m.logger.Warn("input overflowed, samples dropped")
			} else {
				return domain.Clip{}, fmt.Errorf("reading from stream: %w", err)
			}
		}

		samples = append(samples, buffer...)
	}

	return domain.Clip{Samples: samples[:total], SampleRate: format.SampleRate}, nil
}
