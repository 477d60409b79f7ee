package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireTakesOverStaleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), SocketName)
	require.NoError(t, os.WriteFile(path, []byte("left behind"), 0o600))

	listener, err := Acquire(context.Background(), path, 50*time.Millisecond, 2)
	require.NoError(t, err)
	t.Cleanup(func() { Release(listener, path) })

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.ModeSocket, info.Mode().Type())
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireCreatesRuntimeDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", SocketName)
	listener, err := Acquire(context.Background(), path, 50*time.Millisecond, 0)
	require.NoError(t, err)

	Release(listener, path)
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAcquireRefusesLiveInstance(t *testing.T) {
	t.Parallel()

	path, _ := serveOn(t, func(context.Context, Request) Response {
		return Response{OK: true, State: "standby"}
	})

	_, err := Acquire(context.Background(), path, 80*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestAcquireKeepsSocketWhenPeerIsSilent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), SocketName)
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				time.Sleep(250 * time.Millisecond)
			}()
		}
	}()

	_, err = Acquire(context.Background(), path, 30*time.Millisecond, 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-accepted
}

func TestAcquireHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), SocketName)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Acquire(ctx, path, 50*time.Millisecond, 3)
	require.Error(t, err)
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", " ")
	_, err := RuntimeSocketPath()
	require.Error(t, err)

	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/hark.sock", path)
}
