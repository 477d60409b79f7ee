// Package mock provides a scripted stt.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/rbright/hark/internal/provider/stt"
)

// Provider replays Transcripts in order, then returns Default.
type Provider struct {
	mu sync.Mutex

	Transcripts []string
	Default     string
	// Err is returned from every call when non-nil.
	Err error

	// Calls records every Audio passed to Transcribe.
	Calls []stt.Audio
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe records audio and returns the next scripted transcript.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, audio)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Transcripts) == 0 {
		return p.Default, nil
	}
	next := p.Transcripts[0]
	p.Transcripts = p.Transcripts[1:]
	return next, nil
}

// CallCount reports how many times Transcribe ran.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
