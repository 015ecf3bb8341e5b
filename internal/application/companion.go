package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"astronaut-companion/internal/domain"
)

type Companion struct {
	capture Capturer
	stt     SpeechToText
	respond Responder
	speaker Speaker
	logger  *slog.Logger
}

func NewCompanion(
	capture Capturer,
	stt SpeechToText,
	respond Responder,
	speaker Speaker,
	logger *slog.Logger,
) *Companion {
	return &Companion{
		capture: capture,
		stt:     stt,
		respond: respond,
		speaker: speaker,
		logger:  logger,
	}
}

// Run performs one capture, transcription, reply selection and playback,
// in that order. The first failing stage ends the run.
func (c *Companion) Run(ctx context.Context) (*domain.Exchange, error) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	logger.Info("recording, speak now", "source", c.capture.Name())
	path, err := c.capture.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing audio: %w", err)
	}
	logger.Info("audio saved", "path", path)

	logger.Info("transcribing")
	text, err := c.stt.Transcribe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("transcribing: %w", err)
	}
	logger.Info("transcribed", "text", text)

	exchange, err := c.reply(ctx, logger, text)
	if err != nil {
		return nil, err
	}
	exchange.RunID = runID
	exchange.AudioPath = path

	return exchange, nil
}

// RespondTo skips capture and transcription and answers text directly.
func (c *Companion) RespondTo(ctx context.Context, text string) (*domain.Exchange, error) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	logger.Info("received text directly", "text", text)

	exchange, err := c.reply(ctx, logger, text)
	if err != nil {
		return nil, err
	}
	exchange.RunID = runID

	return exchange, nil
}

func (c *Companion) reply(ctx context.Context, logger *slog.Logger, text string) (*domain.Exchange, error) {
	if strings.TrimSpace(text) == "" {
		logger.Warn("empty transcript, falling back to default reply")
	}

	reply := c.respond.Respond(text)
	logger.Info("reply selected", "reply", reply.String())

	if err := c.speaker.Speak(ctx, reply.String()); err != nil {
		return nil, fmt.Errorf("speaking: %w", err)
	}

	return &domain.Exchange{
		Transcript: text,
		Reply:      reply,
	}, nil
}
