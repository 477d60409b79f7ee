package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serveOn starts Serve on a fresh socket and returns its path plus a stop
// function that asserts a clean shutdown.
func serveOn(t *testing.T, handler HandlerFunc) (string, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), SocketName)
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	var stopped atomic.Bool
	stop := func() {
		if stopped.Swap(true) {
			return
		}
		cancel()
		require.NoError(t, <-done)
	}
	t.Cleanup(stop)
	return path, stop
}

// rawPeer accepts one connection and runs fn on it.
func rawPeer(t *testing.T, fn func(net.Conn)) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), SocketName)
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()
	return path
}

func TestSendRoundTrip(t *testing.T) {
	path, _ := serveOn(t, func(_ context.Context, req Request) Response {
		if req.Command != CommandStatus {
			return Response{Error: "unexpected " + req.Command}
		}
		return Response{OK: true, State: "active", Message: "listening"}
	})

	resp, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Response{OK: true, State: "active", Message: "listening"}, resp)
}

func TestSendResponseFailures(t *testing.T) {
	tests := []struct {
		name string
		peer func(net.Conn)
		want string
	}{
		{
			name: "garbage reply",
			peer: func(c net.Conn) {
				_, _ = bufio.NewReader(c).ReadBytes('\n')
				_, _ = c.Write([]byte("not-json\n"))
			},
			want: "decode response",
		},
		{
			name: "hang up",
			peer: func(c net.Conn) {
				_, _ = bufio.NewReader(c).ReadBytes('\n')
			},
			want: "read response",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := rawPeer(t, tc.peer)

			_, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
			require.False(t, Unavailable(err))
		})
	}
}

func TestServeRejectsMalformedRequest(t *testing.T) {
	var calls atomic.Int32
	path, _ := serveOn(t, func(context.Context, Request) Response {
		calls.Add(1)
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
	require.Zero(t, calls.Load())
}

func TestServeAnswersConcurrentClients(t *testing.T) {
	path, _ := serveOn(t, func(_ context.Context, req Request) Response {
		return Response{OK: true, Message: req.Command}
	})

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			resp, err := Send(context.Background(), path, Request{Command: CommandReset}, time.Second)
			if err == nil && resp.Message != CommandReset {
				err = errors.New("wrong reply: " + resp.Message)
			}
			errs <- err
		}()
	}
	for range 8 {
		require.NoError(t, <-errs)
	}
}

func TestProbe(t *testing.T) {
	path, stop := serveOn(t, func(context.Context, Request) Response {
		return Response{OK: true, State: "standby"}
	})

	alive, err := Probe(context.Background(), path, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	stop()

	alive, err = Probe(context.Background(), path, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestUnavailable(t *testing.T) {
	_, err := Send(context.Background(), filepath.Join(t.TempDir(), SocketName), Request{Command: CommandStatus}, 50*time.Millisecond)
	require.Error(t, err)
	require.True(t, Unavailable(err))
	require.False(t, Unavailable(errors.New("boom")))
	require.False(t, Unavailable(nil))
}
