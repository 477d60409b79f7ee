package wake

import (
	"fmt"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"
)

// keywordEngine is the subset of the Porcupine handle used by the adapter.
type keywordEngine interface {
	Process(pcm []int16) (int, error)
	Delete() error
}

// Porcupine is a Detector backed by the Picovoice Porcupine engine.
type Porcupine struct {
	engine   keywordEngine
	frameLen int
	keywords int
}

// NewPorcupine initializes Porcupine with one fixed sensitivity for every keyword.
func NewPorcupine(res Resources) (*Porcupine, error) {
	sensitivities := make([]float32, len(res.KeywordPaths))
	for i := range sensitivities {
		sensitivities[i] = res.Sensitivity
	}

	handle := &porcupine.Porcupine{
		AccessKey:     res.AccessKey,
		ModelPath:     res.ModelPath,
		KeywordPaths:  res.KeywordPaths,
		Sensitivities: sensitivities,
	}
	if err := handle.Init(); err != nil {
		return nil, fatal(fmt.Errorf("init porcupine: %w", err))
	}
	if porcupine.SampleRate != 16000 {
		_ = handle.Delete()
		return nil, fatal(fmt.Errorf("porcupine sample rate %d is unsupported", porcupine.SampleRate))
	}
	return newPorcupine(handle, porcupine.FrameLength, len(res.KeywordPaths)), nil
}

func newPorcupine(engine keywordEngine, frameLen, keywords int) *Porcupine {
	return &Porcupine{engine: engine, frameLen: frameLen, keywords: keywords}
}

// FrameLength returns the engine's required samples per frame.
func (p *Porcupine) FrameLength() int {
	return p.frameLen
}

// Process runs one frame through the engine.
func (p *Porcupine) Process(frame []int16) (int, bool, error) {
	if err := checkFrame(frame, p.frameLen); err != nil {
		return -1, false, err
	}
	idx, err := p.engine.Process(frame)
	if err != nil {
		return -1, false, fmt.Errorf("porcupine process: %w", err)
	}
	if idx < 0 || idx >= p.keywords {
		return -1, false, nil
	}
	return idx, true, nil
}

// Close releases native resources.
func (p *Porcupine) Close() error {
	if p.engine == nil {
		return nil
	}
	err := p.engine.Delete()
	p.engine = nil
	return err
}
