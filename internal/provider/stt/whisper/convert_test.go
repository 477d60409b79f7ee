package whisper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatSamplesScalesToUnitRange(t *testing.T) {
	pcm := []byte{
		0x00, 0x00, // 0
		0xff, 0x7f, // 32767
		0x00, 0x80, // -32768
		0x00, 0x40, // 16384
	}
	got := floatSamples(pcm)
	require.Len(t, got, 4)
	require.InDelta(t, 0, got[0], 1e-6)
	require.InDelta(t, 32767.0/32768.0, got[1], 1e-6)
	require.InDelta(t, -1, got[2], 1e-6)
	require.InDelta(t, 0.5, got[3], 1e-6)
}

func TestFloatSamplesIgnoresTrailingByte(t *testing.T) {
	require.Len(t, floatSamples([]byte{0, 0, 1}), 1)
}
