package audio

import (
	"context"
	"fmt"
	"time"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
)

// FileSource replays an existing mono WAV in place of the microphone.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Record(ctx context.Context, format application.AudioFormat, _ time.Duration) (domain.Clip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Clip{}, err
	}

	clip, channels, err := readWAV(f.path)
	if err != nil {
		return domain.Clip{}, err
	}

	if channels != monoChannels {
		return domain.Clip{}, fmt.Errorf("replay file %s has %d channels, capture is mono", f.path, channels)
	}

	if clip.SampleRate != format.SampleRate {
		return domain.Clip{}, fmt.Errorf("replay file %s is %d Hz, capture is configured for %d Hz", f.path, clip.SampleRate, format.SampleRate)
	}

	return clip, nil
}
