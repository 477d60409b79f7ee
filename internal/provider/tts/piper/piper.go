// Package piper synthesizes speech by running the piper CLI with raw output.
package piper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/hark/internal/audio"
	runner "github.com/rbright/hark/internal/command"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/tts"
)

// Settings configure the provider.
type Settings struct {
	// Command must write s16le mono PCM to stdout (piper --output-raw).
	Command    string `mapstructure:"command"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		Command:    "piper --model ~/.local/share/hark/voice.onnx --output-raw",
		SampleRate: 22050,
	}
}

// Provider implements tts.Provider.
type Provider struct {
	argv       []string
	sampleRate int
}

var _ tts.Provider = (*Provider)(nil)

// New parses the command line.
func New(s Settings) (*Provider, error) {
	argv, err := config.CommandArgv(s.Command)
	if err != nil {
		return nil, fmt.Errorf("piper: %w", err)
	}
	if s.SampleRate <= 0 {
		return nil, errors.New("piper: sample_rate must be > 0")
	}
	return &Provider{argv: argv, sampleRate: s.SampleRate}, nil
}

// Argv returns the resolved command line.
func (p *Provider) Argv() []string {
	return append([]string(nil), p.argv...)
}

// Synthesize pipes text through the command.
func (p *Provider) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.Clip{}, tts.ErrNoText
	}
	out, err := runner.Output(ctx, runner.Spec{Argv: p.argv, Input: []byte(text + "\n")})
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper: %w", err)
	}
	samples := audio.Samples(out)
	if len(samples) == 0 {
		return audio.Clip{}, tts.ErrNoAudio
	}
	return audio.Clip{Samples: samples, SampleRate: p.sampleRate}, nil
}
