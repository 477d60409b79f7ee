// Package stt defines the speech-to-text capability used by the bridge.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrNoAudio is returned when a provider is asked to transcribe an empty utterance.
var ErrNoAudio = errors.New("no audio to transcribe")

// Audio is one utterance of mono s16le PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
}

// Duration reports the utterance length.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.PCM)/2) * time.Second / time.Duration(a.SampleRate)
}

// Provider converts one utterance into text. An empty transcript is a valid result.
type Provider interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}
