package indicator

import (
	"math"
	"time"

	"github.com/rbright/hark/internal/audio"
)

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

// wakeCue is a rising two-note chime.
var wakeCue = []toneSpec{
	{frequencyHz: 880, duration: 80 * time.Millisecond, volume: 0.2},
	{frequencyHz: 1320, duration: 110 * time.Millisecond, volume: 0.2},
}

// WakeTone returns the chime played when no spoken acknowledgement is available.
func WakeTone() audio.Clip {
	return audio.Clip{Samples: synthesizeCue(wakeCue), SampleRate: audio.SampleRate}
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gap := samplesForDuration(25 * time.Millisecond)

	var pcm []int16
	for i, part := range parts {
		pcm = append(pcm, synthesizeTone(part)...)
		if i < len(parts)-1 {
			pcm = append(pcm, make([]int16, gap)...)
		}
	}
	return pcm
}

// synthesizeTone renders a sine with a short linear attack and release so the
// cue does not click.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}
	ramp := min(max(n/10, 1), audio.SampleRate/200)

	pcm := make([]int16, n)
	for i := range n {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		t := float64(i) / audio.SampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*spec.frequencyHz*t) * spec.volume * envelope * math.MaxInt16))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * audio.SampleRate))
}
