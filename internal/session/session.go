// Package session runs the wake, listen, respond loop and owns conversation state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/provider/dialogue"
	"github.com/rbright/hark/internal/vad"
	"github.com/rbright/hark/internal/wake"
)

// Phase names what the loop is doing right now.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseWaitingWake  Phase = "waiting_for_wake"
	PhaseAcknowledge  Phase = "acknowledging"
	PhaseListening    Phase = "listening"
	PhaseTranscribing Phase = "transcribing"
	PhaseThinking     Phase = "thinking"
	PhaseSpeaking     Phase = "speaking"
	PhaseSettling     Phase = "settling"
)

// wakeRetryBackoff paces the wake loop after the engine rejects a frame.
const wakeRetryBackoff = 50 * time.Millisecond

// FrameReader is the capture side used while spotting the wake word.
type FrameReader interface {
	ReadFrame(ctx context.Context) ([]int16, error)
	FrameLength() int
}

// Segmenter captures one utterance.
type Segmenter interface {
	Capture(ctx context.Context, timeout time.Duration) (vad.Result, error)
}

// Suppressor drains self-generated audio at each phase boundary.
type Suppressor interface {
	AfterWake(ctx context.Context) error
	AfterAck(ctx context.Context) error
	AfterReply(ctx context.Context, reply string) error
	AfterTurn(ctx context.Context) error
}

// Bridge is the provider boundary. Transcribe and Process absorb collaborator
// faults; Speak reports them after logging so callers may note the miss.
type Bridge interface {
	Transcribe(ctx context.Context, pcm []byte, conversationMode bool) string
	Process(ctx context.Context, input string) string
	Speak(ctx context.Context, text string) error
}

// Acknowledgement plays the response to a wake word.
type Acknowledgement interface {
	Acknowledge(ctx context.Context) error
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowListening(context.Context)
	ShowThinking(context.Context)
	Hide(context.Context)
}

type noopIndicator struct{}

func (noopIndicator) ShowListening(context.Context) {}
func (noopIndicator) ShowThinking(context.Context)  {}
func (noopIndicator) Hide(context.Context)          {}

// Options wires a Controller.
type Options struct {
	Config     config.ConversationConfig
	Frames     FrameReader
	Wake       wake.Detector
	Segmenter  Segmenter
	Echo       Suppressor
	Bridge     Bridge
	Ack        Acknowledgement
	Classifier *Classifier
	Indicator  Indicator
	Metrics    *observe.Metrics
	Logger     *slog.Logger
}

// Status is a point-in-time snapshot safe to read from other goroutines.
type Status struct {
	State     fsm.State
	Phase     Phase
	Retries   int
	SessionID string
}

// Controller owns the capture device and runs turns strictly in sequence.
type Controller struct {
	opts      Options
	indicator Indicator
	metrics   *observe.Metrics
	base      *slog.Logger
	logger    *slog.Logger

	conv fsm.Conversation

	mu     sync.RWMutex
	status Status

	resetRequested atomic.Bool
}

// NewController validates opts and returns a standby controller.
func NewController(opts Options) (*Controller, error) {
	switch {
	case opts.Frames == nil:
		return nil, errors.New("session: frame reader is required")
	case opts.Wake == nil:
		return nil, errors.New("session: wake detector is required")
	case opts.Segmenter == nil:
		return nil, errors.New("session: segmenter is required")
	case opts.Echo == nil:
		return nil, errors.New("session: echo suppressor is required")
	case opts.Bridge == nil:
		return nil, errors.New("session: bridge is required")
	}
	if opts.Frames.FrameLength() != opts.Wake.FrameLength() {
		return nil, fmt.Errorf("session: capture frame length %d does not match wake frame length %d",
			opts.Frames.FrameLength(), opts.Wake.FrameLength())
	}
	if opts.Classifier == nil {
		opts.Classifier = NewClassifier(config.DefaultFallbackPhrases, 0)
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observe.Discard()
	}
	base := logging.Component(opts.Logger, "session")

	conv := fsm.New(opts.Config.MaxRetries)
	return &Controller{
		opts:      opts,
		indicator: indicator,
		metrics:   metrics,
		base:      base,
		logger:    base,
		conv:      conv,
		status:    Status{State: conv.State, Phase: PhaseIdle},
	}, nil
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// State returns the conversation state.
func (c *Controller) State() fsm.State {
	return c.Status().State
}

// RequestReset asks the loop to drop conversation mode at the next turn boundary.
func (c *Controller) RequestReset() {
	c.resetRequested.Store(true)
}

// Handle serves IPC commands.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	st := c.Status()
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(st.State), Message: string(st.Phase)}
	case "reset":
		c.RequestReset()
		return ipc.Response{OK: true, State: string(st.State), Message: "reset requested"}
	default:
		return ipc.Response{OK: false, State: string(st.State), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// Run loops until ctx is cancelled. It returns nil on cancellation and an
// error only for faults the loop cannot recover from.
func (c *Controller) Run(ctx context.Context) error {
	defer c.setPhase(PhaseIdle)

	for {
		if ctx.Err() != nil {
			return nil
		}
		c.consumeReset(ctx)

		if c.conv.Active() {
			if err := sleep(ctx, time.Duration(c.opts.Config.PollIntervalMS)*time.Millisecond); err != nil {
				return c.exit(ctx, err)
			}
		} else {
			c.setPhase(PhaseWaitingWake)
			keyword, err := c.awaitWake(ctx)
			if err != nil {
				return c.exit(ctx, err)
			}
			if err := c.wake(ctx, keyword); err != nil {
				return c.exit(ctx, err)
			}
		}

		if err := c.turn(ctx); err != nil {
			return c.exit(ctx, err)
		}
		c.setPhase(PhaseSettling)
		if err := c.opts.Echo.AfterTurn(ctx); err != nil {
			return c.exit(ctx, err)
		}
	}
}

func (c *Controller) awaitWake(ctx context.Context) (int, error) {
	failures := 0
	for {
		frame, err := c.opts.Frames.ReadFrame(ctx)
		if err != nil {
			return -1, err
		}
		keyword, detected, err := c.opts.Wake.Process(frame)
		if err != nil {
			failures++
			if failures == 1 {
				c.logger.Warn("wake detection failed; still listening", "error", err.Error())
			} else {
				c.logger.Debug("wake detection failed", "error", err.Error(), "consecutive", failures)
			}
			if err := sleep(ctx, wakeRetryBackoff); err != nil {
				return -1, err
			}
			continue
		}
		failures = 0
		if detected {
			return keyword, nil
		}
	}
}

// wake starts a new session cycle and plays the acknowledgement between the
// two echo drains.
func (c *Controller) wake(ctx context.Context, keyword int) error {
	id := uuid.NewString()
	c.logger = c.base.With("session_id", id)
	c.mu.Lock()
	c.status.SessionID = id
	c.mu.Unlock()

	c.metrics.RecordWake(ctx, keyword)
	c.logger.Info("wake word detected", "keyword", keyword)

	if err := c.opts.Echo.AfterWake(ctx); err != nil {
		return err
	}
	c.setPhase(PhaseAcknowledge)
	if c.opts.Ack != nil {
		if err := c.opts.Ack.Acknowledge(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("acknowledgement failed", "error", err.Error())
		}
	}
	return c.opts.Echo.AfterAck(ctx)
}

// turn runs one capture, transcribe, respond cycle and applies its outcome.
func (c *Controller) turn(ctx context.Context) error {
	active := c.conv.Active()
	timeout := config.Seconds(c.opts.Config.StandbyTimeoutSeconds)
	if active {
		timeout = config.Seconds(c.opts.Config.ActiveTimeoutSeconds)
	}

	c.setPhase(PhaseListening)
	c.indicator.ShowListening(ctx)
	res, err := c.opts.Segmenter.Capture(ctx, timeout)
	if err != nil {
		return err
	}
	c.metrics.RecordUtterance(ctx, string(res.Outcome))
	if res.Empty() {
		c.logger.Debug("no utterance", "active", active, "frames", res.FramesRead)
		return c.advance(ctx, fsm.EventNoUtterance, "no_utterance")
	}

	c.setPhase(PhaseTranscribing)
	c.indicator.ShowThinking(ctx)
	text := strings.TrimSpace(c.opts.Bridge.Transcribe(ctx, res.PCM, active))
	if utf8.RuneCountInString(text) < max(c.opts.Config.MinTranscriptChars, 1) {
		return c.advance(ctx, fsm.EventEmptyTranscript, "empty_transcript")
	}
	c.logger.Info("transcript", "text", text, "active", active)

	if _, err := c.apply(ctx, fsm.EventTranscript); err != nil {
		return err
	}
	c.setPhase(PhaseThinking)
	reply := c.opts.Bridge.Process(ctx, text)
	if err := c.speak(ctx, reply); err != nil {
		return err
	}

	event, outcome := fsm.EventStatementReply, "statement"
	if c.opts.Classifier.IsQuestion(reply) {
		event, outcome = fsm.EventQuestionReply, "question"
	}
	if _, err := c.apply(ctx, event); err != nil {
		return err
	}
	c.metrics.RecordTurn(ctx, outcome)
	if !c.conv.Active() {
		c.indicator.Hide(ctx)
	}
	return nil
}

// advance applies an empty-turn event and sends the sentinel it calls for.
func (c *Controller) advance(ctx context.Context, event fsm.Event, outcome string) error {
	action, err := c.apply(ctx, event)
	if err != nil {
		return err
	}
	c.metrics.RecordTurn(ctx, outcome)

	var sentinel string
	switch action {
	case fsm.ActionSendTimeout:
		sentinel = dialogue.SentinelTimeout
		c.logger.Info("conversation timed out; returning to standby")
	case fsm.ActionSendEmpty:
		sentinel = dialogue.SentinelEmpty
		c.logger.Info("empty transcript; re-prompting", "retries", c.conv.Retries)
	}
	if sentinel != "" {
		c.setPhase(PhaseThinking)
		if err := c.speak(ctx, c.opts.Bridge.Process(ctx, sentinel)); err != nil {
			return err
		}
	}
	if !c.conv.Active() {
		c.indicator.Hide(ctx)
	}
	return nil
}

// speak plays reply and drains its echo. Blank replies are skipped.
func (c *Controller) speak(ctx context.Context, reply string) error {
	if strings.TrimSpace(reply) == "" {
		return nil
	}
	c.setPhase(PhaseSpeaking)
	c.logger.Info("reply", "text", reply)
	if err := c.opts.Bridge.Speak(ctx, reply); err != nil {
		c.logger.Debug("reply not spoken", "error", err.Error())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.setPhase(PhaseSettling)
	return c.opts.Echo.AfterReply(ctx, reply)
}

func (c *Controller) apply(ctx context.Context, event fsm.Event) (fsm.Action, error) {
	next, action, err := c.conv.Apply(event)
	if err != nil {
		return fsm.ActionNone, err
	}
	if next.State != c.conv.State {
		c.logger.Info("conversation state changed", "from", string(c.conv.State), "to", string(next.State), "event", string(event))
		c.metrics.SetConversationActive(ctx, next.Active())
	}
	c.conv = next

	c.mu.Lock()
	c.status.State = next.State
	c.status.Retries = next.Retries
	c.mu.Unlock()
	return action, nil
}

func (c *Controller) consumeReset(ctx context.Context) {
	if !c.resetRequested.Swap(false) {
		return
	}
	if !c.conv.Active() {
		return
	}
	if _, err := c.apply(ctx, fsm.EventReset); err == nil {
		c.logger.Info("conversation reset on request")
		c.indicator.Hide(ctx)
	}
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.status.Phase = p
	c.mu.Unlock()
}

func (c *Controller) exit(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
