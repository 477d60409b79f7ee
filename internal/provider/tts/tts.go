// Package tts defines the speech synthesis capability. Providers render a
// complete clip; playback is the caller's concern.
package tts

import (
	"context"
	"errors"

	"github.com/rbright/hark/internal/audio"
)

// ErrNoText is returned when asked to synthesize blank text.
var ErrNoText = errors.New("no text to synthesize")

// ErrNoAudio is returned when a provider produced no samples.
var ErrNoAudio = errors.New("synthesis produced no audio")

// Provider renders text to mono s16 PCM.
type Provider interface {
	Synthesize(ctx context.Context, text string) (audio.Clip, error)
}
