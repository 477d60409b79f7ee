package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/errorsx"
	"github.com/rbright/hark/internal/logging"
)

var (
	// ErrOverrun reports that device audio was dropped because the consumer fell behind.
	ErrOverrun = errors.New("capture overrun")
	// ErrDeviceLost reports that the capture stream stopped delivering audio.
	ErrDeviceLost = errors.New("capture device lost")
	// ErrConcurrentRead is returned when a second goroutine reads while a read is in flight.
	ErrConcurrentRead = errors.New("capture engine has a single consumer")
)

const recoverBackoff = 250 * time.Millisecond

// Source is a capture device delivering mono s16 samples at SampleRate.
type Source interface {
	// ReadSamples fills buf completely. ErrOverrun and ErrDeviceLost (possibly
	// wrapped) are recoverable; every other non-context error is treated as a device loss.
	ReadSamples(ctx context.Context, buf []int16) error
	// Recover restores the device after a failed read.
	Recover(ctx context.Context, cause error) error
	Close() error
}

// Flusher is implemented by sources that can discard audio queued while
// nobody was reading.
type Flusher interface {
	Flush()
}

// Engine reads fixed-length frames from a Source and hides recoverable I/O
// faults from its consumer. It owns one reusable frame buffer.
type Engine struct {
	source    Source
	frame     []int16
	logger    *slog.Logger
	onRecover func(errorsx.ReasonCode)

	reading    atomic.Bool
	recoveries atomic.Int64
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logging.Component(logger, "capture") }
}

// WithRecoveryHook registers a callback invoked after every recovery attempt.
func WithRecoveryHook(fn func(errorsx.ReasonCode)) EngineOption {
	return func(e *Engine) { e.onRecover = fn }
}

// NewEngine wraps source with a frame reader of frameLen samples.
func NewEngine(source Source, frameLen int, opts ...EngineOption) (*Engine, error) {
	if source == nil {
		return nil, errors.New("capture source is required")
	}
	if frameLen <= 0 {
		return nil, fmt.Errorf("frame length must be > 0 (got %d)", frameLen)
	}
	e := &Engine{
		source: source,
		frame:  make([]int16, frameLen),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// FrameLength reports the fixed frame size in samples.
func (e *Engine) FrameLength() int {
	return len(e.frame)
}

// FrameDuration reports the fixed frame period.
func (e *Engine) FrameDuration() time.Duration {
	return FrameDuration(len(e.frame))
}

// Recoveries reports how many recoverable faults have been handled.
func (e *Engine) Recoveries() int64 {
	return e.recoveries.Load()
}

// ReadFrame blocks until one full frame is available. The returned slice is
// reused by the next call. Only context cancellation ends a read early.
func (e *Engine) ReadFrame(ctx context.Context) ([]int16, error) {
	if !e.reading.CompareAndSwap(false, true) {
		return nil, ErrConcurrentRead
	}
	defer e.reading.Store(false)

	for {
		err := e.source.ReadSamples(ctx, e.frame)
		if err == nil {
			return e.frame, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.recover(ctx, err)
	}
}

// Drain discards n frames.
func (e *Engine) Drain(ctx context.Context, n int) error {
	for range n {
		if _, err := e.ReadFrame(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Flush discards audio that queued up while the consumer was busy elsewhere,
// such as during a provider call or playback. A backlog overrun cleared here is
// expected and is neither logged as a fault nor counted as a recovery.
func (e *Engine) Flush() {
	if f, ok := e.source.(Flusher); ok {
		f.Flush()
	}
}

// Close releases the underlying source.
func (e *Engine) Close() error {
	return e.source.Close()
}

func (e *Engine) recover(ctx context.Context, cause error) {
	reason := errorsx.ReasonCaptureDeviceLost
	if errors.Is(cause, ErrOverrun) {
		reason = errorsx.ReasonCaptureOverrun
	}
	e.recoveries.Add(1)
	e.logger.Warn("capture fault; recovering device", "reason", string(reason), "error", cause.Error())

	if err := e.source.Recover(ctx, cause); err != nil {
		e.logger.Error("capture recovery failed; retrying", "reason", string(reason), "error", err.Error())
		timer := time.NewTimer(recoverBackoff)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	if e.onRecover != nil {
		e.onRecover(reason)
	}
}
