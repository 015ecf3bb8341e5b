package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
)

// Source produces mono 16-bit samples for a fixed duration.
type Source interface {
	Name() string
	Record(ctx context.Context, format application.AudioFormat, duration time.Duration) (domain.Clip, error)
}

// Recorder captures a clip from a Source and saves it to a fixed path.
// Every capture overwrites the previous file.
type Recorder struct {
	source   Source
	path     string
	format   application.AudioFormat
	duration time.Duration
	logger   *slog.Logger
}

func NewRecorder(source Source, path string, format application.AudioFormat, duration time.Duration, logger *slog.Logger) *Recorder {
	return &Recorder{
		source:   source,
		path:     path,
		format:   format,
		duration: duration,
		logger:   logger,
	}
}

func (r *Recorder) Name() string {
	return r.source.Name()
}

func (r *Recorder) Capture(ctx context.Context) (string, error) {
	r.logger.Debug("recording",
		"source", r.source.Name(),
		"duration", r.duration,
		"sample_rate", r.format.SampleRate,
	)

	clip, err := r.source.Record(ctx, r.format, r.duration)
	if err != nil {
		return "", fmt.Errorf("recording from %s: %w", r.source.Name(), err)
	}

	if clip.SampleRate != r.format.SampleRate {
		return "", fmt.Errorf("%s produced %d Hz audio, want %d Hz", r.source.Name(), clip.SampleRate, r.format.SampleRate)
	}

	want := SampleCount(r.format.SampleRate, r.duration)
	if len(clip.Samples) != want {
		r.logger.Debug("adjusting clip length", "got", len(clip.Samples), "want", want)
		clip = clip.Fit(want)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating audio dir: %w", err)
		}
	}

	if err := WriteWAV(r.path, clip); err != nil {
		return "", err
	}

	return r.path, nil
}

// SampleCount is the number of mono samples in duration at sampleRate.
func SampleCount(sampleRate int, duration time.Duration) int {
	return int(int64(sampleRate) * int64(duration) / int64(time.Second))
}
