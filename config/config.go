package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Whisper WhisperConfig `yaml:"whisper"`
	Speech  SpeechConfig  `yaml:"speech"`
	Log     LogConfig     `yaml:"log"`
}

type CaptureConfig struct {
	Source        string `yaml:"source" env:"COMPANION_CAPTURE_SOURCE"`
	Seconds       int    `yaml:"seconds" env:"COMPANION_CAPTURE_SECONDS"`
	SampleRate    int    `yaml:"sample_rate" env:"COMPANION_CAPTURE_SAMPLE_RATE"`
	Path          string `yaml:"path" env:"COMPANION_CAPTURE_PATH"`
	ReplayFile    string `yaml:"replay_file" env:"COMPANION_CAPTURE_REPLAY_FILE"`
	FFmpegCommand string `yaml:"ffmpeg_command" env:"COMPANION_FFMPEG_COMMAND"`
	InputFormat   string `yaml:"input_format" env:"COMPANION_AUDIO_INPUT_FORMAT"`
	InputDevice   string `yaml:"input_device" env:"COMPANION_AUDIO_INPUT_DEVICE"`
}

type WhisperConfig struct {
	Model           string `yaml:"model" env:"COMPANION_WHISPER_MODEL"`
	ModelDir        string `yaml:"model_dir" env:"COMPANION_WHISPER_MODEL_DIR"`
	BaseURL         string `yaml:"base_url" env:"COMPANION_WHISPER_BASE_URL"`
	Command         string `yaml:"command" env:"COMPANION_WHISPER_COMMAND"`
	Language        string `yaml:"language" env:"COMPANION_WHISPER_LANGUAGE"`
	Threads         int    `yaml:"threads" env:"COMPANION_WHISPER_THREADS"`
	DownloadRetries int    `yaml:"download_retries" env:"COMPANION_WHISPER_DOWNLOAD_RETRIES"`
}

type SpeechConfig struct {
	Engine string `yaml:"engine" env:"COMPANION_SPEECH_ENGINE"`
	Voice  string `yaml:"voice" env:"COMPANION_SPEECH_VOICE"`
	Rate   int    `yaml:"rate" env:"COMPANION_SPEECH_RATE"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"COMPANION_LOG_LEVEL"`
	Format string `yaml:"format" env:"COMPANION_LOG_FORMAT"`
}

// Load reads the YAML file at path, applies COMPANION_* environment
// overrides and fills defaults. A missing file is an error unless
// allowMissing is set, in which case only env and defaults apply.
func Load(path string, allowMissing bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration: five seconds at 44.1 kHz,
// the tiny whisper model and the platform's default voice.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Capture.Source == "" {
		c.Capture.Source = "microphone"
	}
	if c.Capture.Seconds == 0 {
		c.Capture.Seconds = 5
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 44100
	}
	if c.Capture.Path == "" {
		c.Capture.Path = "astronaut_input.wav"
	}
	if c.Capture.FFmpegCommand == "" {
		c.Capture.FFmpegCommand = "ffmpeg"
	}
	if c.Capture.InputFormat == "" {
		c.Capture.InputFormat = "pulse"
	}
	if c.Capture.InputDevice == "" {
		c.Capture.InputDevice = "default"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "tiny"
	}
	if c.Whisper.ModelDir == "" {
		c.Whisper.ModelDir = defaultModelDir()
	}
	if c.Whisper.BaseURL == "" {
		c.Whisper.BaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"
	}
	if c.Whisper.Command == "" {
		c.Whisper.Command = "whisper-cli"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.Whisper.DownloadRetries == 0 {
		c.Whisper.DownloadRetries = 3
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "auto"
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 175
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the settings every mode uses. Capture settings are
// checked separately by CaptureConfig.Validate, since text mode never
// records.
func (c *Config) Validate() error {
	switch c.Speech.Engine {
	case "auto", "none", "espeak-ng", "espeak", "say", "powershell":
	default:
		return fmt.Errorf("unknown speech engine %q", c.Speech.Engine)
	}
	return nil
}

func (c CaptureConfig) Validate() error {
	switch c.Source {
	case "microphone", "ffmpeg", "file":
	default:
		return fmt.Errorf("unknown capture source %q (supported: microphone, ffmpeg, file)", c.Source)
	}
	if c.Source == "file" && c.ReplayFile == "" {
		return fmt.Errorf("capture source file requires capture.replay_file")
	}
	if c.Seconds <= 0 {
		return fmt.Errorf("capture.seconds must be positive, got %d", c.Seconds)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate must be positive, got %d", c.SampleRate)
	}
	return nil
}

func defaultModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(dir, "astronaut-companion", "whisper")
}
