// Package vad segments a live frame stream into utterances with an
// energy-based, hysteresis-gated voice activity detector.
package vad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
)

// FrameReader is the capture side consumed by the segmenter.
type FrameReader interface {
	ReadFrame(ctx context.Context) ([]int16, error)
	FrameLength() int
}

// Outcome classifies how a capture ended.
type Outcome string

const (
	// OutcomeSpeech means a complete utterance was captured.
	OutcomeSpeech Outcome = "speech"
	// OutcomeTimeout means the frame budget ran out without qualifying speech.
	OutcomeTimeout Outcome = "timeout"
)

// Result is one capture attempt.
type Result struct {
	// PCM is the utterance as s16le bytes. Empty unless Outcome is OutcomeSpeech.
	PCM          []byte
	Outcome      Outcome
	SpeechFrames int
	// FramesRead counts every frame consumed, including pre-speech frames.
	FramesRead int
	// FalseStarts counts noise bursts discarded during this attempt.
	FalseStarts int
}

// Empty reports whether no utterance was captured.
func (r Result) Empty() bool {
	return len(r.PCM) == 0
}

// Duration reports the utterance length.
func (r Result) Duration() time.Duration {
	return time.Duration(len(r.PCM)/audio.BytesPerSample) * time.Second / audio.SampleRate
}

type state int

const (
	waitingForSpeech state = iota
	inSpeech
)

// Segmenter turns frames into utterances. It is not safe for concurrent use.
type Segmenter struct {
	cfg    config.VADConfig
	reader FrameReader
	ring   *PreRollRing
	logger *slog.Logger
}

// New returns a segmenter reading from reader.
func New(cfg config.VADConfig, reader FrameReader, logger *slog.Logger) (*Segmenter, error) {
	if reader == nil {
		return nil, errors.New("vad frame reader is required")
	}
	if !(cfg.StartThreshold > cfg.EndThreshold && cfg.EndThreshold > cfg.NoiseFloor && cfg.NoiseFloor >= 0) {
		return nil, fmt.Errorf("vad thresholds out of order: start=%.0f end=%.0f noise=%.0f",
			cfg.StartThreshold, cfg.EndThreshold, cfg.NoiseFloor)
	}
	if cfg.SilenceEndFrames <= 0 {
		return nil, errors.New("vad silence end frames must be > 0")
	}
	return &Segmenter{
		cfg:    cfg,
		reader: reader,
		ring:   NewPreRollRing(cfg.PreRollFrames),
		logger: logging.Component(logger, "vad"),
	}, nil
}

// Capture reads frames until one utterance completes or timeout worth of
// frames has been consumed. Running out of time is not an error.
func (s *Segmenter) Capture(ctx context.Context, timeout time.Duration) (Result, error) {
	budget := audio.FramesFor(timeout, s.reader.FrameLength())
	s.ring.Clear()

	var (
		res     Result
		buf     []byte
		st      = waitingForSpeech
		silence int
		speech  int
	)

	for res.FramesRead < budget {
		frame, err := s.reader.ReadFrame(ctx)
		if err != nil {
			return Result{}, err
		}
		res.FramesRead++
		level := audio.RMS(frame)

		if st == waitingForSpeech {
			if level > s.cfg.NoiseFloor {
				s.ring.Push(frame)
			}
			if level > s.cfg.StartThreshold {
				st = inSpeech
				buf = s.ring.Flush(buf[:0])
				if s.ring.Cap() == 0 {
					buf = audio.AppendPCM(buf, frame)
				}
				silence, speech = 0, 0
			}
			continue
		}

		buf = audio.AppendPCM(buf, frame)
		if level < s.cfg.EndThreshold {
			silence++
		} else {
			silence = 0
			speech++
		}

		if silence > s.cfg.SilenceEndFrames && speech > s.cfg.MinSpeechFrames {
			return s.finish(res, buf, speech), nil
		}
		if silence > 2*s.cfg.SilenceEndFrames && speech <= s.cfg.MinSpeechFrames {
			res.FalseStarts++
			s.logger.Debug("vad false start discarded", "speech_frames", speech, "frames", len(buf)/(audio.BytesPerSample*len(frame)))
			buf = buf[:0]
			s.ring.Clear()
			st = waitingForSpeech
			silence, speech = 0, 0
		}
	}

	if st == inSpeech && speech > s.cfg.MinSpeechFrames {
		return s.finish(res, buf, speech), nil
	}
	res.Outcome = OutcomeTimeout
	return res, nil
}

func (s *Segmenter) finish(res Result, buf []byte, speech int) Result {
	res.PCM = append([]byte(nil), buf...)
	res.Outcome = OutcomeSpeech
	res.SpeechFrames = speech
	s.logger.Debug("vad utterance captured",
		"duration_ms", res.Duration().Milliseconds(),
		"speech_frames", speech,
		"frames_read", res.FramesRead,
	)
	return res
}
