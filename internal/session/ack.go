package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/logging"
)

// Synthesizer renders text to a clip without playing it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio.Clip, error)
}

// AckOptions configures an Acknowledger.
type AckOptions struct {
	Text string
	// Voice identifies the synthesis setup so a voice change invalidates the cache.
	Voice string
	// CacheDir holds rendered clips. Empty disables persistence.
	CacheDir string
	Synth    Synthesizer
	Player   audio.Player
	// Tone is played when neither a cached nor a fresh render is available.
	Tone   audio.Clip
	Logger *slog.Logger
}

// Acknowledger plays the spoken acknowledgement that follows a wake word.
type Acknowledger struct {
	opts   AckOptions
	logger *slog.Logger

	mu   sync.Mutex
	clip audio.Clip
}

// DefaultAckCacheDir returns $XDG_CACHE_HOME/hark, or ~/.cache/hark.
func DefaultAckCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hark"), nil
}

// NewAcknowledger returns an acknowledger. Call Warm to preload the render.
func NewAcknowledger(opts AckOptions) *Acknowledger {
	opts.Text = strings.TrimSpace(opts.Text)
	return &Acknowledger{opts: opts, logger: logging.Component(opts.Logger, "ack")}
}

// Cached reports whether a render is loaded.
func (a *Acknowledger) Cached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clip.Samples) > 0
}

// Warm loads the cached render from disk, or synthesizes and persists it.
func (a *Acknowledger) Warm(ctx context.Context) error {
	if a.opts.Text == "" {
		return nil
	}
	if clip, err := a.load(); err == nil {
		a.store(clip)
		a.logger.Debug("acknowledgement loaded from cache", "sample_rate", clip.SampleRate)
		return nil
	}
	if a.opts.Synth == nil {
		return errors.New("acknowledgement: no synthesizer")
	}

	clip, err := a.opts.Synth.Synthesize(ctx, a.opts.Text)
	if err != nil {
		return fmt.Errorf("render acknowledgement: %w", err)
	}
	if len(clip.Samples) == 0 || clip.SampleRate <= 0 {
		return errors.New("render acknowledgement: empty clip")
	}
	a.store(clip)
	if err := a.save(clip); err != nil {
		a.logger.Warn("acknowledgement cache write failed", "error", err.Error())
	}
	return nil
}

// Acknowledge plays the cached render, an on-demand render, or the tone, in
// that order of preference.
func (a *Acknowledger) Acknowledge(ctx context.Context) error {
	a.mu.Lock()
	clip := a.clip
	a.mu.Unlock()

	if len(clip.Samples) > 0 {
		err := a.opts.Player.Play(ctx, clip)
		if err == nil {
			return nil
		}
		a.logger.Warn("cached acknowledgement playback failed", "error", err.Error())
	} else if a.opts.Text != "" && a.opts.Synth != nil {
		rendered, err := a.opts.Synth.Synthesize(ctx, a.opts.Text)
		if err == nil && len(rendered.Samples) > 0 {
			if err = a.opts.Player.Play(ctx, rendered); err == nil {
				return nil
			}
		}
		if err != nil {
			a.logger.Warn("acknowledgement render failed", "error", err.Error())
		}
	}

	if len(a.opts.Tone.Samples) == 0 {
		return errors.New("acknowledgement unavailable")
	}
	return a.opts.Player.Play(ctx, a.opts.Tone)
}

func (a *Acknowledger) store(clip audio.Clip) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clip = clip
}

func (a *Acknowledger) key() string {
	sum := sha256.Sum256([]byte(a.opts.Voice + "\n" + a.opts.Text))
	return hex.EncodeToString(sum[:8])
}

func (a *Acknowledger) cachePath(rate int) string {
	return filepath.Join(a.opts.CacheDir, fmt.Sprintf("ack-%s-%d.pcm", a.key(), rate))
}

func (a *Acknowledger) load() (audio.Clip, error) {
	if a.opts.CacheDir == "" {
		return audio.Clip{}, os.ErrNotExist
	}
	prefix := "ack-" + a.key() + "-"
	matches, err := filepath.Glob(filepath.Join(a.opts.CacheDir, prefix+"*.pcm"))
	if err != nil {
		return audio.Clip{}, err
	}
	for _, path := range matches {
		raw := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), prefix), ".pcm")
		rate, err := strconv.Atoi(raw)
		if err != nil || rate <= 0 {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil || len(data) < audio.BytesPerSample {
			continue
		}
		return audio.Clip{Samples: audio.Samples(data), SampleRate: rate}, nil
	}
	return audio.Clip{}, os.ErrNotExist
}

func (a *Acknowledger) save(clip audio.Clip) error {
	if a.opts.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.opts.CacheDir, 0o700); err != nil {
		return err
	}
	path := a.cachePath(clip.SampleRate)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, audio.AppendPCM(nil, clip.Samples), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
