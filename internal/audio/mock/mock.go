// Package mock provides scripted test doubles for audio.Source and audio.Player.
//
// A Source replays a list of Steps, one per ReadSamples call, then keeps
// producing Tail-valued frames so loops driven by it never starve:
//
//	src := &mock.Source{Steps: mock.Frames(10, 512, 2000)}
//	engine, _ := audio.NewEngine(src, 512)
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/rbright/hark/internal/audio"
)

// Step is one scripted ReadSamples result. A non-nil Err is returned instead of samples.
type Step struct {
	Samples []int16
	Err     error
}

// Source is a scripted implementation of audio.Source.
type Source struct {
	mu sync.Mutex

	// Steps are consumed in order.
	Steps []Step
	// Tail is the constant sample value produced after Steps run out.
	Tail int16
	// OnExhausted is called once, from the reading goroutine, when Steps run out.
	OnExhausted func()
	// RecoverErr is returned from every Recover call when non-nil.
	RecoverErr error

	// Reads counts successful reads, including tail frames.
	Reads int
	// RecoverCalls records the cause passed to each Recover call.
	RecoverCalls []error
	// Flushes counts Flush calls.
	Flushes int
	// Closed reports whether Close was called.
	Closed bool

	exhausted bool
}

// ReadSamples pops the next step into buf. Short steps are zero-padded.
func (s *Source) ReadSamples(ctx context.Context, buf []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if len(s.Steps) == 0 {
		for i := range buf {
			buf[i] = s.Tail
		}
		s.Reads++
		fire := !s.exhausted
		s.exhausted = true
		hook := s.OnExhausted
		s.mu.Unlock()
		if fire && hook != nil {
			hook()
		}
		return nil
	}

	step := s.Steps[0]
	s.Steps = s.Steps[1:]
	if step.Err != nil {
		s.mu.Unlock()
		return step.Err
	}
	n := copy(buf, step.Samples)
	clear(buf[n:])
	s.Reads++
	s.mu.Unlock()
	return nil
}

// Push appends steps to the script.
func (s *Source) Push(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps = append(s.Steps, steps...)
	s.exhausted = false
}

// Recover records cause and returns RecoverErr.
func (s *Source) Recover(_ context.Context, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecoverCalls = append(s.RecoverCalls, cause)
	return s.RecoverErr
}

// Flush drops leading ErrOverrun steps, the scripted form of a backlog
// that built up while nobody was reading.
func (s *Source) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flushes++
	for len(s.Steps) > 0 && errors.Is(s.Steps[0].Err, audio.ErrOverrun) {
		s.Steps = s.Steps[1:]
	}
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Remaining reports how many scripted steps have not been read.
func (s *Source) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Steps)
}

// Tone returns n samples alternating between +amplitude and -amplitude,
// which gives an RMS of exactly amplitude.
func Tone(n int, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return out
}

// Frames returns count steps of frameLen-sample tones at amplitude.
func Frames(count, frameLen int, amplitude int16) []Step {
	steps := make([]Step, count)
	for i := range steps {
		steps[i] = Step{Samples: Tone(frameLen, amplitude)}
	}
	return steps
}

// Player is a recording implementation of audio.Player.
type Player struct {
	mu sync.Mutex

	// PlayErr is returned from every Play call when non-nil.
	PlayErr error
	// OnPlay is called with each clip before Play returns.
	OnPlay func(audio.Clip)

	// Clips records every clip passed to Play.
	Clips []audio.Clip
}

// Play records clip and returns PlayErr.
func (p *Player) Play(ctx context.Context, clip audio.Clip) error {
	p.mu.Lock()
	p.Clips = append(p.Clips, clip)
	hook, err := p.OnPlay, p.PlayErr
	p.mu.Unlock()

	if hook != nil {
		hook(clip)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Played returns a snapshot of recorded clips.
func (p *Player) Played() []audio.Clip {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audio.Clip(nil), p.Clips...)
}
