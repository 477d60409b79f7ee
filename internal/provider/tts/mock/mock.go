// Package mock provides a scripted tts.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/provider/tts"
)

// Provider returns Clip for every call, or a short silent clip when Clip is empty.
type Provider struct {
	mu sync.Mutex

	Clip audio.Clip
	Err  error

	Texts []string
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize records text and returns the configured clip.
func (p *Provider) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Texts = append(p.Texts, text)

	if err := ctx.Err(); err != nil {
		return audio.Clip{}, err
	}
	if p.Err != nil {
		return audio.Clip{}, p.Err
	}
	if len(p.Clip.Samples) == 0 {
		return audio.Clip{Samples: make([]int16, 160), SampleRate: audio.SampleRate}, nil
	}
	return p.Clip, nil
}

// Spoken returns a copy of every synthesized text.
func (p *Provider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Texts...)
}
