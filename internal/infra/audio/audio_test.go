package audio_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"astronaut-companion/internal/application"
	"astronaut-companion/internal/domain"
	"astronaut-companion/internal/infra/audio"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	clip  domain.Clip
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Record(_ context.Context, _ application.AudioFormat, _ time.Duration) (domain.Clip, error) {
	f.calls++
	return f.clip, f.err
}

func format(rate int) application.AudioFormat {
	f := application.DefaultAudioFormat()
	f.SampleRate = rate
	return f
}

func TestWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := domain.Clip{
		Samples:    []int16{0, 1, -1, 32767, -32768, 1200, -1200, 7},
		SampleRate: 16000,
	}

	if err := audio.WriteWAV(path, clip); err != nil {
		t.Fatalf("WriteWAV error: %v", err)
	}

	got, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV error: %v", err)
	}

	if got.SampleRate != clip.SampleRate {
		t.Errorf("SampleRate: got %d, want %d", got.SampleRate, clip.SampleRate)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Fatalf("samples: got %d, want %d", len(got.Samples), len(clip.Samples))
	}
	for i := range clip.Samples {
		if got.Samples[i] != clip.Samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, got.Samples[i], clip.Samples[i])
		}
	}
}

func TestReadWAV_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff file"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := audio.ReadWAV(path); err == nil {
		t.Error("expected error for invalid wav")
	}
}

func TestRecorder_FileMatchesConfiguredDurationAndRate(t *testing.T) {
	const rate = 8000
	const seconds = 2

	tests := []struct {
		name    string
		samples int
	}{
		{"short read is padded", rate},
		{"long read is truncated", rate * 3},
		{"exact read", rate * seconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "astronaut_input.wav")
			source := &fakeSource{clip: domain.Clip{Samples: make([]int16, tt.samples), SampleRate: rate}}
			recorder := audio.NewRecorder(source, path, format(rate), seconds*time.Second, newLogger())

			got, err := recorder.Capture(context.Background())
			if err != nil {
				t.Fatalf("Capture error: %v", err)
			}
			if got != path {
				t.Errorf("path: got %s, want %s", got, path)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("opening capture: %v", err)
			}
			defer f.Close()

			dec := wav.NewDecoder(f)
			if !dec.IsValidFile() {
				t.Fatal("capture is not a valid wav")
			}
			if dec.SampleRate != rate {
				t.Errorf("SampleRate: got %d, want %d", dec.SampleRate, rate)
			}
			if dec.NumChans != 1 {
				t.Errorf("NumChans: got %d, want 1", dec.NumChans)
			}
			if dec.BitDepth != 16 {
				t.Errorf("BitDepth: got %d, want 16", dec.BitDepth)
			}

			clip, err := audio.ReadWAV(path)
			if err != nil {
				t.Fatalf("ReadWAV error: %v", err)
			}
			if clip.Duration() != seconds*time.Second {
				t.Errorf("Duration: got %s, want %ds", clip.Duration(), seconds)
			}
		})
	}
}

func TestRecorder_OverwritesPreviousCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astronaut_input.wav")

	first := &fakeSource{clip: domain.Clip{Samples: []int16{100, 100, 100, 100}, SampleRate: 4}}
	if _, err := audio.NewRecorder(first, path, format(4), time.Second, newLogger()).Capture(context.Background()); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	second := &fakeSource{clip: domain.Clip{Samples: []int16{-5, -5, -5, -5}, SampleRate: 4}}
	if _, err := audio.NewRecorder(second, path, format(4), time.Second, newLogger()).Capture(context.Background()); err != nil {
		t.Fatalf("second capture: %v", err)
	}

	clip, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV error: %v", err)
	}
	for i, s := range clip.Samples {
		if s != -5 {
			t.Errorf("sample %d: got %d, want -5", i, s)
		}
	}
}

func TestRecorder_Errors(t *testing.T) {
	deviceErr := errors.New("no default input device")

	t.Run("source failure", func(t *testing.T) {
		source := &fakeSource{err: deviceErr}
		recorder := audio.NewRecorder(source, filepath.Join(t.TempDir(), "a.wav"), format(8000), time.Second, newLogger())
		if _, err := recorder.Capture(context.Background()); !errors.Is(err, deviceErr) {
			t.Errorf("error: got %v, want %v", err, deviceErr)
		}
	})

	t.Run("sample rate mismatch", func(t *testing.T) {
		source := &fakeSource{clip: domain.Clip{Samples: make([]int16, 10), SampleRate: 22050}}
		recorder := audio.NewRecorder(source, filepath.Join(t.TempDir(), "a.wav"), format(8000), time.Second, newLogger())
		if _, err := recorder.Capture(context.Background()); err == nil {
			t.Error("expected error for sample rate mismatch")
		}
	})
}

func TestFileSource_ReplaysWAV(t *testing.T) {
	dir := t.TempDir()
	replay := filepath.Join(dir, "command.wav")
	if err := audio.WriteWAV(replay, domain.Clip{Samples: []int16{1, 2, 3}, SampleRate: 16000}); err != nil {
		t.Fatalf("WriteWAV error: %v", err)
	}

	source := audio.NewFileSource(replay)

	clip, err := source.Record(context.Background(), format(16000), time.Second)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if len(clip.Samples) != 3 {
		t.Errorf("samples: got %d, want 3", len(clip.Samples))
	}

	if _, err := source.Record(context.Background(), format(44100), time.Second); err == nil {
		t.Error("expected error for mismatched sample rate")
	}
}

func TestFileSource_RejectsStereo(t *testing.T) {
	replay := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(replay)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 16000},
		Data:           []int{100, -100, 200, -200},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	f.Close()

	source := audio.NewFileSource(replay)
	_, err = source.Record(context.Background(), format(16000), time.Second)
	if err == nil || !strings.Contains(err.Error(), "2 channels") {
		t.Errorf("error: got %v, want a channel count error", err)
	}

	clip, err := audio.ReadWAV(replay)
	if err != nil {
		t.Fatalf("ReadWAV error: %v", err)
	}
	if len(clip.Samples) != 2 || clip.Samples[0] != 0 || clip.Samples[1] != 0 {
		t.Errorf("ReadWAV downmix: got %v, want [0 0]", clip.Samples)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	source := audio.NewFileSource(filepath.Join(t.TempDir(), "missing.wav"))
	if _, err := source.Record(context.Background(), format(16000), time.Second); err == nil {
		t.Error("expected error for missing file")
	}
}

// writeScript creates an executable shell script standing in for an
// external tool.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestFFmpegSource_DecodesPCM(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	script := writeScript(t, `echo "$@" > `+argsFile+`
printf '\001\000\377\377\000\200'`)

	source := audio.NewFFmpegSource(script, "alsa", "hw:0")

	clip, err := source.Record(context.Background(), format(16000), 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	want := []int16{1, -1, -32768}
	if len(clip.Samples) != len(want) {
		t.Fatalf("samples: got %v, want %v", clip.Samples, want)
	}
	for i := range want {
		if clip.Samples[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, clip.Samples[i], want[i])
		}
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate: got %d, want 16000", clip.SampleRate)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("reading args: %v", err)
	}
	for _, want := range []string{"-f alsa", "-i hw:0", "-t 1.500", "-ac 1", "-ar 16000", "-f s16le -"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpegSource_ReportsFailure(t *testing.T) {
	script := writeScript(t, `echo "no such device" >&2
exit 1`)

	source := audio.NewFFmpegSource(script, "", "")

	_, err := source.Record(context.Background(), format(16000), time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no such device") {
		t.Errorf("error %q should include stderr", err)
	}
}
