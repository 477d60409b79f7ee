package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// SocketName is the control socket file name under XDG_RUNTIME_DIR.
const SocketName = "hark.sock"

const takeoverBackoff = 25 * time.Millisecond

// ErrAlreadyRunning means a responsive instance already owns the socket.
var ErrAlreadyRunning = errors.New("hark is already running")

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/hark.sock.
func RuntimeSocketPath() (string, error) {
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, SocketName), nil
}

// Acquire binds the control socket at path. A leftover socket file from a
// crashed instance is unlinked and the bind retried up to retries times.
// A peer that answers status yields ErrAlreadyRunning; a peer that accepts
// but never answers is left alone and reported as an error.
func Acquire(ctx context.Context, path string, probeTimeout time.Duration, retries int) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := range retries + 1 {
		if attempt > 0 {
			if err := sleepCtx(ctx, time.Duration(attempt)*takeoverBackoff); err != nil {
				return nil, err
			}
		}
		listener, err := listen(path)
		if err == nil {
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		if err := takeover(ctx, path, probeTimeout); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("acquire socket %s: still in use after %d retries", path, retries)
}

// Release closes listener and unlinks its socket file.
func Release(listener net.Listener, path string) {
	_ = listener.Close()
	_ = os.Remove(path)
}

func listen(path string) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}
	_ = os.Chmod(path, 0o600)
	return listener, nil
}

// takeover removes path when nothing is serving on it.
func takeover(ctx context.Context, path string, probeTimeout time.Duration) error {
	alive, err := Probe(ctx, path, probeTimeout)
	switch {
	case alive:
		return ErrAlreadyRunning
	case err != nil:
		return fmt.Errorf("probe existing socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
