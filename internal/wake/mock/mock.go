// Package mock provides a deterministic wake.Detector.
//
// Detection fires when a frame's first sample equals Marker, which lets tests
// place a wake word at an exact position in a scripted audio stream.
package mock

import (
	"fmt"
	"sync"

	"github.com/rbright/hark/internal/wake"
)

// Detector is a marker-driven implementation of wake.Detector.
type Detector struct {
	mu sync.Mutex

	// Length is the required frame size. Zero means 512.
	Length int
	// Marker triggers a detection when it equals frame[0]. Zero disables detection.
	Marker int16
	// Keyword is the index reported on detection.
	Keyword int
	// ProcessErr is returned from Process calls when non-nil.
	ProcessErr error
	// Failures limits ProcessErr to the first Failures calls. Zero means every call.
	Failures int

	// Calls counts Process invocations.
	Calls int
	// Detections counts reported detections.
	Detections int
	// Closed reports whether Close was called.
	Closed bool
}

var _ wake.Detector = (*Detector)(nil)

// FrameLength returns Length, defaulting to 512.
func (d *Detector) FrameLength() int {
	if d.Length <= 0 {
		return 512
	}
	return d.Length
}

// Process reports a detection for marker frames.
func (d *Detector) Process(frame []int16) (int, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++

	if d.ProcessErr != nil && (d.Failures == 0 || d.Calls <= d.Failures) {
		return -1, false, d.ProcessErr
	}
	if len(frame) != d.FrameLength() {
		return -1, false, fmt.Errorf("%w: got %d", wake.ErrFrameLength, len(frame))
	}
	if d.Marker != 0 && frame[0] == d.Marker {
		d.Detections++
		return d.Keyword, true, nil
	}
	return -1, false, nil
}

// Close marks the detector closed.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}
