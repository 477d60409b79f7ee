package vad

import "github.com/rbright/hark/internal/audio"

// PreRollRing keeps the most recent near-threshold frames seen while waiting
// for speech. Frames are copied on push.
type PreRollRing struct {
	slots [][]int16
	start int
	size  int
}

// NewPreRollRing returns a ring holding at most capacity frames.
func NewPreRollRing(capacity int) *PreRollRing {
	return &PreRollRing{slots: make([][]int16, max(capacity, 0))}
}

// Cap reports the ring capacity.
func (r *PreRollRing) Cap() int {
	return len(r.slots)
}

// Len reports the number of buffered frames.
func (r *PreRollRing) Len() int {
	return r.size
}

// Push stores a copy of frame, evicting the oldest frame when full.
func (r *PreRollRing) Push(frame []int16) {
	if len(r.slots) == 0 {
		return
	}

	idx := (r.start + r.size) % len(r.slots)
	if r.size == len(r.slots) {
		idx = r.start
		r.start = (r.start + 1) % len(r.slots)
	} else {
		r.size++
	}
	r.slots[idx] = append(r.slots[idx][:0], frame...)
}

// Flush appends buffered frames oldest-first to dst as PCM and empties the ring.
func (r *PreRollRing) Flush(dst []byte) []byte {
	for i := range r.size {
		dst = audio.AppendPCM(dst, r.slots[(r.start+i)%len(r.slots)])
	}
	r.Clear()
	return dst
}

// Clear drops every buffered frame. Slot storage is kept for reuse.
func (r *PreRollRing) Clear() {
	r.start = 0
	r.size = 0
}
