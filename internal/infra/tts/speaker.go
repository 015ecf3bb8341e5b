// Package tts speaks text through the platform's speech synthesizer.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Engine identifies a speech synthesizer command line.
type Engine string

const (
	EngineAuto       Engine = "auto"
	EngineEspeakNG   Engine = "espeak-ng"
	EngineEspeak     Engine = "espeak"
	EngineSay        Engine = "say"
	EnginePowerShell Engine = "powershell"
)

// candidates lists engines to try for EngineAuto, in preference order.
func candidates(goos string) []Engine {
	switch goos {
	case "darwin":
		return []Engine{EngineSay, EngineEspeakNG, EngineEspeak}
	case "windows":
		return []Engine{EnginePowerShell}
	default:
		return []Engine{EngineEspeakNG, EngineEspeak}
	}
}

// CommandSpeaker runs a synthesizer subprocess and waits for it to
// finish playing.
type CommandSpeaker struct {
	engine  Engine
	command string
	voice   string
	rate    int
	logger  *slog.Logger
}

// NewCommandSpeaker resolves engine to an executable. EngineAuto picks
// the first engine available for the current OS.
func NewCommandSpeaker(engine Engine, voice string, rate int, logger *slog.Logger) (*CommandSpeaker, error) {
	if engine == "" {
		engine = EngineAuto
	}

	if engine == EngineAuto {
		for _, candidate := range candidates(runtime.GOOS) {
			if path, err := exec.LookPath(string(candidate)); err == nil {
				return newSpeaker(candidate, path, voice, rate, logger), nil
			}
		}
		return nil, fmt.Errorf("no speech engine found on PATH for %s", runtime.GOOS)
	}

	path, err := exec.LookPath(string(engine))
	if err != nil {
		return nil, fmt.Errorf("speech engine %s not found: %w", engine, err)
	}
	return newSpeaker(engine, path, voice, rate, logger), nil
}

// NewCommandSpeakerWithPath uses command directly as engine's executable.
func NewCommandSpeakerWithPath(engine Engine, command, voice string, rate int, logger *slog.Logger) *CommandSpeaker {
	return newSpeaker(engine, command, voice, rate, logger)
}

func newSpeaker(engine Engine, command, voice string, rate int, logger *slog.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		engine:  engine,
		command: command,
		voice:   voice,
		rate:    rate,
		logger:  logger,
	}
}

func (s *CommandSpeaker) Engine() Engine {
	return s.engine
}

// Speak blocks until the synthesizer has finished playing text.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := s.args(text)
	s.logger.Debug("speaking", "engine", s.engine, "chars", len(text))

	cmd := exec.CommandContext(ctx, s.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w: %s", s.engine, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

func (s *CommandSpeaker) args(text string) []string {
	var args []string

	switch s.engine {
	case EngineSay:
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		if s.rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.rate))
		}
		args = append(args, text)

	case EnginePowerShell:
		args = append(args, "-NoProfile", "-NonInteractive", "-Command", powerShellScript(text, s.voice, s.rate))

	default:
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		if s.rate > 0 {
			args = append(args, "-s", strconv.Itoa(s.rate))
		}
		args = append(args, "--", text)
	}

	return args
}

// powerShellScript drives System.Speech. Rate is mapped from words per
// minute onto SAPI's -10..10 scale around a 175 wpm baseline.
func powerShellScript(text, voice string, wpm int) string {
	quoted := "'" + strings.ReplaceAll(text, "'", "''") + "'"

	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech; ")
	b.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	if voice != "" {
		b.WriteString("$s.SelectVoice('" + strings.ReplaceAll(voice, "'", "''") + "'); ")
	}
	if wpm > 0 {
		b.WriteString("$s.Rate = " + strconv.Itoa(sapiRate(wpm)) + "; ")
	}
	b.WriteString("$s.Speak(" + quoted + ")")
	return b.String()
}

func sapiRate(wpm int) int {
	r := (wpm - 175) / 15
	if r < -10 {
		return -10
	}
	if r > 10 {
		return 10
	}
	return r
}
