package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	fragmentBytes = 640 // 20ms @ 16kHz mono s16
	stallTimeout  = 2 * time.Second
)

// PulseSource captures 16 kHz mono s16le audio from one Pulse source.
// The record callback never blocks: when the consumer falls behind, chunks are
// dropped and the next read reports ErrOverrun.
type PulseSource struct {
	device       Device
	bufferChunks int

	mu     sync.Mutex
	client *pulse.Client
	stream *pulse.RecordStream
	chunks chan []byte
	stopCh chan struct{}
	closed bool

	overrun atomic.Bool
	dropped atomic.Int64

	// pending is only touched by the reading goroutine.
	pending []byte
}

// OpenPulse connects to the Pulse server and starts recording from selected.
func OpenPulse(selected Device, bufferChunks int) (*PulseSource, error) {
	p := &PulseSource{device: selected, bufferChunks: max(bufferChunks, 1)}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}

// Device returns the capture source metadata.
func (p *PulseSource) Device() Device {
	return p.device
}

// Dropped reports how many device chunks were discarded due to overruns.
func (p *PulseSource) Dropped() int64 {
	return p.dropped.Load()
}

func (p *PulseSource) open() error {
	client, err := newClient()
	if err != nil {
		return err
	}

	source, err := client.SourceByID(p.device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve source %q: %w", p.device.ID, err)
	}

	chunks := make(chan []byte, p.bufferChunks)
	stopCh := make(chan struct{})
	writer := pulse.NewWriter(writerFunc(func(b []byte) (int, error) {
		return p.onPCM(chunks, stopCh, b)
	}), pulseproto.FormatInt16LE)

	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("hark microphone"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	p.mu.Lock()
	p.client = client
	p.stream = stream
	p.chunks = chunks
	p.stopCh = stopCh
	p.closed = false
	p.mu.Unlock()

	p.pending = p.pending[:0]
	p.overrun.Store(false)
	stream.Start()
	return nil
}

// onPCM copies one device fragment into the chunk queue without blocking.
func (p *PulseSource) onPCM(chunks chan<- []byte, stopCh <-chan struct{}, buffer []byte) (int, error) {
	select {
	case <-stopCh:
		return 0, io.EOF
	default:
	}
	if len(buffer) == 0 {
		return 0, nil
	}

	chunk := make([]byte, len(buffer))
	copy(chunk, buffer)
	select {
	case chunks <- chunk:
	default:
		p.overrun.Store(true)
		p.dropped.Add(1)
	}
	return len(buffer), nil
}

// ReadSamples fills buf with exactly len(buf) samples.
func (p *PulseSource) ReadSamples(ctx context.Context, buf []int16) error {
	if p.overrun.Load() {
		return ErrOverrun
	}

	p.mu.Lock()
	chunks, stream, closed := p.chunks, p.stream, p.closed
	p.mu.Unlock()
	if closed || stream == nil {
		return fmt.Errorf("%w: capture stream closed", ErrDeviceLost)
	}

	need := len(buf) * BytesPerSample
	if len(p.pending) < need {
		timer := time.NewTimer(stallTimeout)
		defer timer.Stop()

		for len(p.pending) < need {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chunk := <-chunks:
				p.pending = append(p.pending, chunk...)
			case <-timer.C:
				if err := stream.Error(); err != nil {
					return fmt.Errorf("%w: %v", ErrDeviceLost, err)
				}
				return fmt.Errorf("%w: no audio for %s", ErrDeviceLost, stallTimeout)
			}
			if p.overrun.Load() {
				return ErrOverrun
			}
		}
	}

	for i := range buf {
		buf[i] = int16(binary.LittleEndian.Uint16(p.pending[i*2:]))
	}
	p.pending = append(p.pending[:0], p.pending[need:]...)
	return nil
}

// Recover flushes queued audio after an overrun, or reopens the stream after a device loss.
func (p *PulseSource) Recover(_ context.Context, cause error) error {
	if errors.Is(cause, ErrOverrun) {
		p.Flush()
		return nil
	}

	p.shutdown()
	if err := p.open(); err != nil {
		return fmt.Errorf("reopen capture source %q: %w", p.device.ID, err)
	}
	return nil
}

// Flush drops queued chunks and clears a pending overrun.
func (p *PulseSource) Flush() {
	p.mu.Lock()
	chunks := p.chunks
	p.mu.Unlock()

	for {
		select {
		case <-chunks:
		default:
			p.pending = p.pending[:0]
			p.overrun.Store(false)
			return
		}
	}
}

// Close stops recording and releases the Pulse connection.
func (p *PulseSource) Close() error {
	p.shutdown()
	return nil
}

func (p *PulseSource) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	stopCh, stream, client := p.stopCh, p.stream, p.client
	p.stream = nil
	p.client = nil
	p.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
