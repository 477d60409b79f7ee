// Package mock provides a scripted dialogue.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/rbright/hark/internal/provider/dialogue"
)

// Provider replays Replies in order, then returns Default.
type Provider struct {
	mu sync.Mutex

	Replies []string
	Default string
	Err     error

	Requests []dialogue.Request
}

var _ dialogue.Provider = (*Provider)(nil)

// Reply records req and returns the next scripted reply.
func (p *Provider) Reply(ctx context.Context, req dialogue.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Replies) == 0 {
		return p.Default, nil
	}
	next := p.Replies[0]
	p.Replies = p.Replies[1:]
	return next, nil
}

// Inputs returns the latest user message of every request.
func (p *Provider) Inputs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Requests))
	for _, r := range p.Requests {
		out = append(out, r.Latest())
	}
	return out
}
