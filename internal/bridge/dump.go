package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/logging"
)

// DefaultDumpDir returns $XDG_STATE_HOME/hark/debug.
func DefaultDumpDir() (string, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "debug"), nil
}

// dumpUtterance writes pcm as a timestamped WAV when dumping is enabled.
func (b *Bridge) dumpUtterance(pcm []byte) {
	if b.cfg.DumpDir == "" {
		return
	}
	path, err := writeDump(b.cfg.DumpDir, pcm, time.Now())
	if err != nil {
		b.log.Warn("unable to write debug audio dump", "error", err.Error())
		return
	}
	b.log.Debug("wrote debug audio dump", "path", path)
}

func writeDump(dir string, pcm []byte, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("utterance-%s.wav", at.Format("20060102-150405.000")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open debug file %q: %w", path, err)
	}
	defer file.Close()
	if err := audio.WriteWAV(file, pcm, audio.SampleRate); err != nil {
		return "", fmt.Errorf("write debug wav: %w", err)
	}
	return path, nil
}
