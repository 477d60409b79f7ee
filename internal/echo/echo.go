// Package echo keeps the assistant from hearing itself by draining the
// microphone after acknowledgements and synthesized replies.
package echo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
)

// FrameReader is the capture side consumed by the suppressor.
type FrameReader interface {
	ReadFrame(ctx context.Context) ([]int16, error)
	Drain(ctx context.Context, n int) error
	Flush()
	FrameLength() int
}

// Drain summarizes one suppression pass.
type Drain struct {
	Frames int
	// Settled reports whether the silence streak was reached before the budget ran out.
	Settled bool
}

// Suppressor drains captured audio with fixed and silence-driven passes.
type Suppressor struct {
	cfg    config.EchoConfig
	reader FrameReader
	logger *slog.Logger
}

// New returns a suppressor reading from reader.
func New(cfg config.EchoConfig, reader FrameReader, logger *slog.Logger) (*Suppressor, error) {
	if reader == nil {
		return nil, errors.New("echo frame reader is required")
	}
	if cfg.SilentFrames <= 0 {
		return nil, errors.New("echo silent frames must be > 0")
	}
	return &Suppressor{cfg: cfg, reader: reader, logger: logging.Component(logger, "echo")}, nil
}

// DrainFixed discards n frames unconditionally.
func (s *Suppressor) DrainFixed(ctx context.Context, n int) error {
	return s.reader.Drain(ctx, n)
}

// DrainUntilSilent reads until SilentFrames consecutive frames fall below
// SilentRMS, or until maxWait worth of frames has been read.
func (s *Suppressor) DrainUntilSilent(ctx context.Context, maxWait time.Duration) (Drain, error) {
	budget := audio.FramesFor(maxWait, s.reader.FrameLength())
	streak := 0
	var d Drain
	for d.Frames < budget {
		frame, err := s.reader.ReadFrame(ctx)
		if err != nil {
			return d, err
		}
		d.Frames++
		if audio.RMS(frame) < s.cfg.SilentRMS {
			streak++
			if streak >= s.cfg.SilentFrames {
				d.Settled = true
				return d, nil
			}
		} else {
			streak = 0
		}
	}
	return d, nil
}

// ReplyDrainFrames sizes the fixed drain that follows a spoken reply.
func (s *Suppressor) ReplyDrainFrames(reply string) int {
	words := len(strings.Fields(reply))
	return max(s.cfg.MinReplyDrainFrames, words*s.cfg.FramesPerWord)
}

// AfterReply runs the word-count drain and then waits for the room to settle.
// Audio queued during synthesis and playback is discarded first.
func (s *Suppressor) AfterReply(ctx context.Context, reply string) error {
	s.reader.Flush()
	return s.run(ctx, "reply", s.ReplyDrainFrames(reply), s.cfg.AfterReplySeconds)
}

// AfterWake clears the tail of the wake word before the acknowledgement plays.
func (s *Suppressor) AfterWake(ctx context.Context) error {
	return s.run(ctx, "wake", s.cfg.WakeDrainFrames, s.cfg.WakeSilenceSeconds)
}

// AfterAck clears the acknowledgement playback before the first turn.
func (s *Suppressor) AfterAck(ctx context.Context) error {
	s.reader.Flush()
	return s.run(ctx, "ack", s.cfg.AckDrainFrames, s.cfg.AckSilenceSeconds)
}

// AfterTurn waits for silence once a turn has completed.
func (s *Suppressor) AfterTurn(ctx context.Context) error {
	s.reader.Flush()
	return s.run(ctx, "turn", 0, s.cfg.AfterTurnSeconds)
}

func (s *Suppressor) run(ctx context.Context, phase string, fixed int, seconds float64) error {
	if err := s.DrainFixed(ctx, fixed); err != nil {
		return err
	}
	d, err := s.DrainUntilSilent(ctx, config.Seconds(seconds))
	if err != nil {
		return err
	}
	s.logger.Debug("echo drain complete",
		"phase", phase,
		"fixed_frames", fixed,
		"silence_frames", d.Frames,
		"settled", d.Settled,
	)
	return nil
}
