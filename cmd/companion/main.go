package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"astronaut-companion/config"
	"astronaut-companion/internal/application"
	"astronaut-companion/internal/infra"
	"astronaut-companion/internal/infra/audio"
	"astronaut-companion/internal/infra/keyword"
	"astronaut-companion/internal/infra/tts"
	"astronaut-companion/internal/infra/whisper"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	text := flag.String("text", "", "reply to this text instead of recording and transcribing")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("loading .env", "error", err)
	}

	cfg, err := config.Load(*configPath, !flagSet("config"))
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, *text, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Error("companion error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, text string, logger *slog.Logger) error {
	speaker, err := createSpeaker(cfg.Speech, logger)
	if err != nil {
		return err
	}

	responder := keyword.NewResponder()

	if text != "" {
		companion := application.NewCompanion(nil, nil, responder, speaker, logger)
		exchange, err := companion.RespondTo(ctx, text)
		if err != nil {
			return err
		}
		logger.Info("exchange complete", "run_id", exchange.RunID, "reply", exchange.Reply.String())
		return nil
	}

	if err := cfg.Capture.Validate(); err != nil {
		return fmt.Errorf("invalid capture config: %w", err)
	}

	retry := infra.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Whisper.DownloadRetries

	store := whisper.NewModelStore(cfg.Whisper.ModelDir, cfg.Whisper.BaseURL, retry, logger)

	logger.Info("loading whisper model", "model", cfg.Whisper.Model)
	model, err := store.Load(ctx, cfg.Whisper.Model)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	logger.Info("whisper model loaded", "path", model.Path)

	transcriber := whisper.NewTranscriber(
		model,
		cfg.Whisper.Command,
		cfg.Whisper.Language,
		cfg.Whisper.Threads,
		logger,
	)
	if err := transcriber.Check(ctx); err != nil {
		return err
	}

	companion := application.NewCompanion(
		createRecorder(cfg.Capture, logger),
		transcriber,
		responder,
		speaker,
		logger,
	)

	exchange, err := companion.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("exchange complete",
		"run_id", exchange.RunID,
		"transcript", exchange.Transcript,
		"reply", exchange.Reply.String(),
	)
	return nil
}

func createRecorder(cfg config.CaptureConfig, logger *slog.Logger) *audio.Recorder {
	var source audio.Source
	switch cfg.Source {
	case "ffmpeg":
		source = audio.NewFFmpegSource(cfg.FFmpegCommand, cfg.InputFormat, cfg.InputDevice)
	case "file":
		source = audio.NewFileSource(cfg.ReplayFile)
	default:
		source = audio.NewMicrophoneSource(logger)
	}

	format := application.DefaultAudioFormat()
	format.SampleRate = cfg.SampleRate

	return audio.NewRecorder(source, cfg.Path, format, time.Duration(cfg.Seconds)*time.Second, logger)
}

func createSpeaker(cfg config.SpeechConfig, logger *slog.Logger) (application.Speaker, error) {
	if cfg.Engine == "none" {
		return &application.NoopSpeaker{Logger: logger}, nil
	}

	speaker, err := tts.NewCommandSpeaker(tts.Engine(cfg.Engine), cfg.Voice, cfg.Rate, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("speech engine selected", "engine", speaker.Engine())
	return speaker, nil
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
