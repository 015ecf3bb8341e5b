package whisper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"astronaut-companion/internal/domain"
	"astronaut-companion/internal/infra/audio"
)

// SampleRate is the only input rate whisper models accept.
const SampleRate = 16000

const blankAudio = "[BLANK_AUDIO]"

// Transcriber runs the whisper.cpp CLI against a loaded model.
type Transcriber struct {
	model    *Model
	command  string
	language string
	threads  int
	logger   *slog.Logger
}

func NewTranscriber(model *Model, command, language string, threads int, logger *slog.Logger) *Transcriber {
	if command == "" {
		command = "whisper-cli"
	}
	if language == "" {
		language = "en"
	}
	if threads <= 0 {
		threads = 4
	}
	return &Transcriber{
		model:    model,
		command:  command,
		language: language,
		threads:  threads,
		logger:   logger,
	}
}

// Check confirms the CLI can be found and that it loads the model by
// transcribing one second of silence. A missing install or a damaged
// weight file then fails before any audio is recorded.
func (t *Transcriber) Check(ctx context.Context) error {
	if _, err := exec.LookPath(t.command); err != nil {
		return fmt.Errorf("whisper command %q not found: %w", t.command, err)
	}

	t.logger.Debug("warming up whisper model", "model", t.model.Path)

	silence := filepath.Join(os.TempDir(), "companion-warmup-"+uuid.NewString()+".wav")
	defer os.Remove(silence)

	clip := domain.Clip{Samples: make([]int16, SampleRate), SampleRate: SampleRate}
	if err := audio.WriteWAV(silence, clip); err != nil {
		return fmt.Errorf("writing warm-up audio: %w", err)
	}

	if _, err := t.run(ctx, silence); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("loading model %s: %w", t.model.Path, err)
	}
	return nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	clip, err := audio.ReadWAV(audioPath)
	if err != nil {
		return "", fmt.Errorf("loading audio: %w", err)
	}

	input := audioPath
	if clip.SampleRate != SampleRate {
		t.logger.Debug("resampling for whisper", "from", clip.SampleRate, "to", SampleRate)

		input = filepath.Join(os.TempDir(), "companion-"+uuid.NewString()+".wav")
		defer os.Remove(input)

		if err := audio.WriteWAV(input, Resample(clip, SampleRate)); err != nil {
			return "", fmt.Errorf("writing resampled audio: %w", err)
		}
	}

	out, err := t.run(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}

	return normalizeTranscript(out), nil
}

func (t *Transcriber) run(ctx context.Context, input string) (string, error) {
	args := []string{
		"-m", t.model.Path,
		"-f", input,
		"-l", t.language,
		"-t", strconv.Itoa(t.threads),
		"-nt",
		"-np",
	}

	cmd := exec.CommandContext(ctx, t.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w: %s", t.command, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func normalizeTranscript(out string) string {
	var parts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, blankAudio, ""))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
