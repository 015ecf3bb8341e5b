package application

import (
	"context"
	"log/slog"

	"astronaut-companion/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type Responder interface {
	Respond(text string) domain.Reply
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NoopSpeaker logs replies instead of synthesizing them, for machines
// without an audio output device.
type NoopSpeaker struct {
	Logger *slog.Logger
}

func (n *NoopSpeaker) Speak(_ context.Context, text string) error {
	if n.Logger != nil {
		n.Logger.Info("speech disabled, reply not spoken", "reply", text)
	}
	return nil
}
