package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
)

// FFmpegSource records from a system capture device through an ffmpeg
// subprocess that writes raw s16le PCM to stdout.
type FFmpegSource struct {
	command     string
	inputFormat string
	inputDevice string
}

func NewFFmpegSource(command, inputFormat, inputDevice string) *FFmpegSource {
	if command == "" {
		command = "ffmpeg"
	}
	if inputFormat == "" {
		inputFormat = "pulse"
	}
	if inputDevice == "" {
		inputDevice = "default"
	}
	return &FFmpegSource{
		command:     command,
		inputFormat: inputFormat,
		inputDevice: inputDevice,
	}
}

func (f *FFmpegSource) Name() string {
	return "ffmpeg"
}

func (f *FFmpegSource) Record(ctx context.Context, format application.AudioFormat, duration time.Duration) (domain.Clip, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", f.inputFormat,
		"-i", f.inputDevice,
		"-t", strconv.FormatFloat(duration.Seconds(), 'f', 3, 64),
		"-ac", "1",
		"-ar", strconv.Itoa(format.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, f.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.Clip{}, ctx.Err()
		}
		return domain.Clip{}, fmt.Errorf("running %s: %w: %s", f.command, err, strings.TrimSpace(stderr.String()))
	}

	return domain.Clip{
		Samples:    decodePCM16LE(stdout.Bytes()),
		SampleRate: format.SampleRate,
	}, nil
}

func decodePCM16LE(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples
}
