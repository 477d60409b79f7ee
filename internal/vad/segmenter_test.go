package vad

import (
	"context"
	"testing"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/audio/mock"
	"github.com/rbright/hark/internal/config"
	"github.com/stretchr/testify/require"
)

const frameLen = 512

var frameBytes = frameLen * audio.BytesPerSample

func newTestSegmenter(t *testing.T, steps ...[]mock.Step) (*Segmenter, *mock.Source) {
	t.Helper()
	return newTestSegmenterWith(t, config.Default().VAD, steps...)
}

func newTestSegmenterWith(t *testing.T, cfg config.VADConfig, steps ...[]mock.Step) (*Segmenter, *mock.Source) {
	t.Helper()
	src := &mock.Source{}
	for _, s := range steps {
		src.Steps = append(src.Steps, s...)
	}
	engine, err := audio.NewEngine(src, frameLen)
	require.NoError(t, err)
	seg, err := New(cfg, engine, nil)
	require.NoError(t, err)
	return seg, src
}

func tone(n int, amplitude int16) []mock.Step {
	return mock.Frames(n, frameLen, amplitude)
}

func quiet(n int) []mock.Step {
	return tone(n, 0)
}

func TestCaptureBelowNoiseFloorTimesOutAfterExactFrameBudget(t *testing.T) {
	seg, src := newTestSegmenter(t, tone(300, 140))

	res, err := seg.Capture(context.Background(), 6*time.Second)
	require.NoError(t, err)
	require.True(t, res.Empty())
	require.Equal(t, OutcomeTimeout, res.Outcome)
	require.Equal(t, 188, res.FramesRead)
	require.Equal(t, 188, src.Reads)
	require.Zero(t, seg.ring.Len())
}

func TestCaptureSustainedToneThenSilence(t *testing.T) {
	seg, _ := newTestSegmenter(t, tone(8, 1000), quiet(20))

	res, err := seg.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, OutcomeSpeech, res.Outcome)
	require.GreaterOrEqual(t, len(res.PCM), 4*frameBytes)
	// start frame + 7 speech frames + 13 silent frames
	require.Len(t, res.PCM, 21*frameBytes)
	require.Equal(t, 7, res.SpeechFrames)
	require.Equal(t, 21, res.FramesRead)
}

func TestCaptureIncludesPreRollFrame(t *testing.T) {
	seg, _ := newTestSegmenter(t, quiet(3), tone(1, 200), tone(8, 1000), quiet(13))

	res, err := seg.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.False(t, res.Empty())

	preRoll := audio.AppendPCM(nil, mock.Tone(frameLen, 200))
	require.Equal(t, preRoll, res.PCM[:frameBytes])
	start := audio.AppendPCM(nil, mock.Tone(frameLen, 1000))
	require.Equal(t, start, res.PCM[frameBytes:2*frameBytes])
}

func TestCaptureFalseStartDiscardsBurstAndClearsRing(t *testing.T) {
	seg, _ := newTestSegmenter(t,
		tone(1, 200),
		tone(2, 400),
		quiet(25),
		tone(7, 1000),
		quiet(13),
	)

	res, err := seg.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, res.FalseStarts)
	require.Equal(t, OutcomeSpeech, res.Outcome)
	// The earlier pre-roll and burst frames must not leak into the utterance.
	require.Len(t, res.PCM, (1+6+13)*frameBytes)
	start := audio.AppendPCM(nil, mock.Tone(frameLen, 1000))
	require.Equal(t, start, res.PCM[:frameBytes])
}

func TestCaptureBurstOnlyYieldsNoUtterance(t *testing.T) {
	seg, _ := newTestSegmenter(t, tone(1, 200), tone(3, 500), quiet(40))

	res, err := seg.Capture(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.True(t, res.Empty())
	require.Equal(t, 1, res.FalseStarts)
	require.Zero(t, seg.ring.Len())
}

func TestCaptureQuietFramesBetweenThresholdsDoNotEndSpeech(t *testing.T) {
	// 250 sits between END and START: it keeps speech alive without starting it.
	seg, _ := newTestSegmenter(t, tone(1, 1000), tone(20, 250), quiet(13))

	res, err := seg.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, 20, res.SpeechFrames)
	require.Len(t, res.PCM, 34*frameBytes)
}

func TestCaptureReturnsInProgressUtteranceAtTimeout(t *testing.T) {
	seg, _ := newTestSegmenter(t, tone(7, 1000))

	res, err := seg.Capture(context.Background(), 7*32*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, OutcomeSpeech, res.Outcome)
	require.Equal(t, 6, res.SpeechFrames)
	require.Len(t, res.PCM, 7*frameBytes)
}

func TestCaptureDropsShortUtteranceAtTimeout(t *testing.T) {
	seg, _ := newTestSegmenter(t, tone(4, 1000))

	res, err := seg.Capture(context.Background(), 4*32*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.Empty())
	require.Equal(t, OutcomeTimeout, res.Outcome)
}

func TestCaptureWithoutPreRollKeepsStartFrame(t *testing.T) {
	cfg := config.Default().VAD
	cfg.PreRollFrames = 0
	seg, _ := newTestSegmenterWith(t, cfg, tone(1, 200), tone(6, 1000), quiet(13))

	res, err := seg.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Len(t, res.PCM, (1+5+13)*frameBytes)
}

func TestCaptureStopsOnContextCancel(t *testing.T) {
	seg, _ := newTestSegmenter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seg.Capture(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	src := &mock.Source{}
	engine, err := audio.NewEngine(src, frameLen)
	require.NoError(t, err)

	cfg := config.Default().VAD
	cfg.EndThreshold = cfg.StartThreshold
	_, err = New(cfg, engine, nil)
	require.Error(t, err)

	cfg = config.Default().VAD
	cfg.SilenceEndFrames = 0
	_, err = New(cfg, engine, nil)
	require.Error(t, err)

	_, err = New(config.Default().VAD, nil, nil)
	require.Error(t, err)
}

func TestResultDuration(t *testing.T) {
	res := Result{PCM: make([]byte, audio.SampleRate*audio.BytesPerSample/2)}
	require.Equal(t, 500*time.Millisecond, res.Duration())
}
