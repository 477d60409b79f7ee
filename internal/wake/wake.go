// Package wake adapts a keyword-spotting engine to the capture frame stream.
package wake

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/errorsx"
)

// ErrFrameLength is returned when a frame does not match the detector's required length.
var ErrFrameLength = errors.New("wake frame length mismatch")

// Detector spots wake keywords in fixed-length 16 kHz frames.
type Detector interface {
	// FrameLength is the exact number of samples Process accepts.
	FrameLength() int
	// Process returns the index of the detected keyword, if any.
	Process(frame []int16) (keyword int, detected bool, err error)
	Close() error
}

// Resources are the resolved credential and model paths needed to initialize a detector.
type Resources struct {
	AccessKey    string
	ModelPath    string
	KeywordPaths []string
	Sensitivity  float32
}

// Resolve expands paths and checks that the credential and every model file exist.
// All failures carry the fatal_init reason.
func Resolve(cfg config.WakeConfig) (Resources, error) {
	key := config.Secret(cfg.AccessKey, cfg.AccessKeyEnv)
	if key == "" {
		source := "wake.access_key"
		if cfg.AccessKeyEnv != "" {
			source = "$" + cfg.AccessKeyEnv
		}
		return Resources{}, fatal(fmt.Errorf("wake access key missing (set %s)", source))
	}

	model := config.ExpandUserPath(cfg.ModelPath)
	if err := requireFile("wake model", model); err != nil {
		return Resources{}, err
	}
	if len(cfg.KeywordPaths) == 0 {
		return Resources{}, fatal(errors.New("no wake keyword models configured"))
	}
	keywords := make([]string, 0, len(cfg.KeywordPaths))
	for _, raw := range cfg.KeywordPaths {
		path := config.ExpandUserPath(raw)
		if err := requireFile("wake keyword", path); err != nil {
			return Resources{}, err
		}
		keywords = append(keywords, path)
	}

	return Resources{
		AccessKey:    key,
		ModelPath:    model,
		KeywordPaths: keywords,
		Sensitivity:  float32(cfg.Sensitivity),
	}, nil
}

func requireFile(label, path string) error {
	if strings.TrimSpace(path) == "" {
		return fatal(fmt.Errorf("%s path is empty", label))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fatal(fmt.Errorf("%s %q: %w", label, path, err))
	}
	if info.IsDir() {
		return fatal(fmt.Errorf("%s %q is a directory", label, path))
	}
	return nil
}

func fatal(err error) error {
	return errorsx.Wrap(err, errorsx.ReasonFatalInit)
}

func checkFrame(frame []int16, want int) error {
	if len(frame) != want {
		return fmt.Errorf("%w: got %d samples, want %d", ErrFrameLength, len(frame), want)
	}
	return nil
}
