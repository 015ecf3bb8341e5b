//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
)

// MicrophoneSource stub when portaudio is not available
type MicrophoneSource struct {
	logger *slog.Logger
}

func NewMicrophoneSource(logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{logger: logger}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Record(_ context.Context, _ application.AudioFormat, _ time.Duration) (domain.Clip, error) {
	return domain.Clip{}, fmt.Errorf("microphone source not available: rebuild with -tags portaudio or set capture.source to ffmpeg")
}
