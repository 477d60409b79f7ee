package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/audio"
)

func TestWakeTone(t *testing.T) {
	clip := WakeTone()
	require.Equal(t, audio.SampleRate, clip.SampleRate)
	want := samplesForDuration(80*time.Millisecond) + samplesForDuration(25*time.Millisecond) + samplesForDuration(110*time.Millisecond)
	require.Len(t, clip.Samples, want)
	require.Greater(t, audio.RMS(clip.Samples), 1000.0)
}

func TestSynthesizeToneEnvelopeStartsAndEndsSilent(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
	require.Zero(t, got[0])
	require.Zero(t, got[len(got)-1])
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}
