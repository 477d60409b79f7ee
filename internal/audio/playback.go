package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// Clip is mono s16 audio at an arbitrary sample rate.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// Duration reports the clip play time.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Player renders clips to the default output device. Play returns once the
// clip has finished or ctx is done.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// PulsePlayer plays clips through a short-lived Pulse playback stream.
type PulsePlayer struct {
	MediaName string
}

// NewPulsePlayer returns a player labelled with mediaName in the mixer.
func NewPulsePlayer(mediaName string) *PulsePlayer {
	return &PulsePlayer{MediaName: mediaName}
}

// Play blocks until clip has been drained to the output device.
func (p *PulsePlayer) Play(ctx context.Context, clip Clip) error {
	if len(clip.Samples) == 0 {
		return nil
	}
	if clip.SampleRate <= 0 {
		return errors.New("clip sample rate must be > 0")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	samples := clip.Samples
	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	name := p.MediaName
	if name == "" {
		name = clientName + " speech"
	}
	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(clip.SampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(name),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play stream: %w", err)
	}
	return ctx.Err()
}
