package application

import "context"

// Capturer records one clip and returns the path of the file it wrote.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 44100,
		Channels:   1,
		BitDepth:   16,
	}
}
