// Package whisper transcribes utterances locally with whisper.cpp through its
// CGO bindings. libwhisper and whisper.h must be available at link time.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/transcript"
)

// Settings configure the provider.
type Settings struct {
	ModelPath string `mapstructure:"model_path"`
	Language  string `mapstructure:"language"`
	Threads   int    `mapstructure:"threads"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		ModelPath: "~/.local/share/hark/ggml-base.en.bin",
		Language:  "en",
	}
}

// Provider implements stt.Provider. The model is loaded once; each call runs
// on a fresh whisper context.
type Provider struct {
	mu       sync.Mutex
	model    whisperlib.Model
	language string
	threads  uint
	logger   *slog.Logger
}

var _ stt.Provider = (*Provider)(nil)

// New loads the model named by settings.
func New(s Settings, logger *slog.Logger) (*Provider, error) {
	path := config.ExpandUserPath(s.ModelPath)
	if path == "" {
		return nil, errors.New("whisper: model_path must not be empty")
	}
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", path, err)
	}
	threads := uint(0)
	if s.Threads > 0 {
		threads = uint(s.Threads)
	}
	return &Provider{
		model:    model,
		language: s.Language,
		threads:  threads,
		logger:   logging.Component(logger, "stt.whisper"),
	}, nil
}

// Close releases the model.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	return err
}

// Transcribe runs inference on the whole utterance. Inference is not
// interruptible; ctx is only checked before it starts.
func (p *Provider) Transcribe(ctx context.Context, a stt.Audio) (string, error) {
	if len(a.PCM) == 0 {
		return "", stt.ErrNoAudio
	}
	if a.SampleRate != whisperlib.SampleRate {
		return "", fmt.Errorf("whisper: sample rate %d unsupported (want %d)", a.SampleRate, whisperlib.SampleRate)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return "", errors.New("whisper: provider closed")
	}

	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if p.language != "" {
		if err := wctx.SetLanguage(p.language); err != nil {
			p.logger.Warn("set language failed; using model default", "language", p.language, "error", err)
		}
	}
	if p.threads > 0 {
		wctx.SetThreads(p.threads)
	}

	if err := wctx.Process(floatSamples(a.PCM), nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return transcript.Assemble(parts), nil
}

// floatSamples converts s16le PCM to float32 in [-1, 1).
func floatSamples(pcm []byte) []float32 {
	samples := audio.Samples(pcm)
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
