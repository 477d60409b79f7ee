package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// SampleRate is the fixed capture rate shared by every capability.
	SampleRate = 16000
	// BytesPerSample is the width of one s16le sample.
	BytesPerSample = 2
)

// RMS returns the root-mean-square amplitude of a frame.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// FrameDuration is the wall-clock period of one frame of frameLen samples.
func FrameDuration(frameLen int) time.Duration {
	if frameLen <= 0 {
		return 0
	}
	return time.Duration(frameLen) * time.Second / SampleRate
}

// FramesFor converts a duration to a frame budget, rounding up so the budget
// never undershoots the requested time.
func FramesFor(d time.Duration, frameLen int) int {
	if d <= 0 || frameLen <= 0 {
		return 0
	}
	samples := d.Nanoseconds() * SampleRate
	perFrame := int64(frameLen) * int64(time.Second)
	return int((samples + perFrame - 1) / perFrame)
}

// AppendPCM appends frame to dst as little-endian s16 bytes.
func AppendPCM(dst []byte, frame []int16) []byte {
	for _, s := range frame {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// Samples decodes little-endian s16 bytes. A trailing odd byte is ignored.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}
