// Package bridge is the single boundary between the turn-taking loop and the
// external speech, dialogue, and synthesis providers. Every collaborator fault
// is logged and normalized to an empty result so the loop never sees it.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/errorsx"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/provider/tts"
	"github.com/rbright/hark/internal/resilience"
	"github.com/rbright/hark/internal/transcript"
)

// Responder turns a transcript or sentinel into reply text.
type Responder interface {
	Respond(ctx context.Context, input string) (string, error)
}

// Config holds per-call budgets and transcript hygiene.
type Config struct {
	STTTimeout      time.Duration
	DialogueTimeout time.Duration
	TTSTimeout      time.Duration
	Filter          transcript.Filter
	// DumpDir receives one WAV per utterance when non-empty.
	DumpDir string
}

// Deps are the collaborators behind the bridge.
type Deps struct {
	// Normal is tried in order outside conversation mode (online, then offline).
	Normal *resilience.FallbackGroup[stt.Provider]
	// Conversation serves conversation mode (online only).
	Conversation *resilience.FallbackGroup[stt.Provider]
	Dialogue     Responder
	Voice        *resilience.FallbackGroup[tts.Provider]
	Player       audio.Player
	Metrics      *observe.Metrics
	Logger       *slog.Logger
}

// Bridge implements Transcribe, Process, and Speak.
type Bridge struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	met  *observe.Metrics
}

// New validates deps.
func New(cfg Config, deps Deps) (*Bridge, error) {
	if deps.Normal == nil || deps.Normal.Len() == 0 {
		return nil, errors.New("bridge: no stt providers")
	}
	if deps.Conversation == nil {
		deps.Conversation = deps.Normal
	}
	if deps.Dialogue == nil {
		return nil, errors.New("bridge: no dialogue responder")
	}
	if deps.Voice == nil || deps.Voice.Len() == 0 {
		return nil, errors.New("bridge: no tts providers")
	}
	if deps.Player == nil {
		return nil, errors.New("bridge: no audio player")
	}
	met := deps.Metrics
	if met == nil {
		met = observe.Discard()
	}
	return &Bridge{cfg: cfg, deps: deps, log: logging.Component(deps.Logger, "bridge"), met: met}, nil
}

// Transcribe returns the cleaned transcript for pcm, or "" on any failure or
// rejection. Conversation mode uses the conversation provider group.
func (b *Bridge) Transcribe(ctx context.Context, pcm []byte, conversationMode bool) string {
	if len(pcm) == 0 {
		return ""
	}
	b.dumpUtterance(pcm)

	group := b.deps.Normal
	if conversationMode {
		group = b.deps.Conversation
	}
	utterance := stt.Audio{PCM: pcm, SampleRate: audio.SampleRate}

	start := time.Now()
	text, err := resilience.ExecuteWithResult(ctx, group, func(name string, p stt.Provider) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.STTTimeout)
		defer cancel()
		text, err := p.Transcribe(callCtx, utterance)
		b.record(ctx, name, "stt", err)
		return text, err
	})
	b.met.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		b.fail(errorsx.ReasonSTTFailure, "transcription failed", err, "conversation_mode", conversationMode)
		return ""
	}

	cleaned, verdict := b.cfg.Filter.Clean(text)
	if verdict != transcript.VerdictOK {
		b.log.Debug("transcript rejected", "verdict", string(verdict), "raw", text)
	}
	return cleaned
}

// Process returns the dialogue reply for input, or "" on failure.
func (b *Bridge) Process(ctx context.Context, input string) string {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.DialogueTimeout)
	defer cancel()

	start := time.Now()
	reply, err := b.deps.Dialogue.Respond(callCtx, input)
	b.met.DialogueDuration.Record(ctx, time.Since(start).Seconds())
	b.record(ctx, "dialogue", "dialogue", err)
	if err != nil {
		b.fail(errorsx.ReasonDialogueFailure, "dialogue failed", err)
		return ""
	}
	return strings.TrimSpace(reply)
}

// Synthesize renders text through the voice group.
func (b *Bridge) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	return resilience.ExecuteWithResult(ctx, b.deps.Voice, func(name string, p tts.Provider) (audio.Clip, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.TTSTimeout)
		defer cancel()
		clip, err := p.Synthesize(callCtx, text)
		b.record(ctx, name, "tts", err)
		return clip, err
	})
}

// Play sends clip to the output device.
func (b *Bridge) Play(ctx context.Context, clip audio.Clip) error {
	if err := b.deps.Player.Play(ctx, clip); err != nil {
		return errorsx.Wrap(fmt.Errorf("play clip: %w", err), errorsx.ReasonPlaybackFailure)
	}
	return nil
}

// Speak synthesizes and plays text, returning once playback completes.
// Failures are logged and reported but never fatal.
func (b *Bridge) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	start := time.Now()
	defer func() { b.met.TTSDuration.Record(ctx, time.Since(start).Seconds()) }()

	clip, err := b.Synthesize(ctx, text)
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTTSFailure)
		b.fail(errorsx.ReasonTTSFailure, "synthesis failed", err)
		return err
	}
	if err := b.Play(ctx, clip); err != nil {
		b.fail(errorsx.ReasonPlaybackFailure, "playback failed", err)
		return err
	}
	return nil
}

func (b *Bridge) record(ctx context.Context, provider, kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		b.met.RecordProviderError(ctx, provider, kind)
	}
	b.met.RecordProviderRequest(ctx, provider, kind, status)
}

func (b *Bridge) fail(reason errorsx.ReasonCode, msg string, err error, attrs ...any) {
	attrs = append(attrs, "reason", string(reason), "error", err.Error())
	b.log.Warn(msg, attrs...)
}
