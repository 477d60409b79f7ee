package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type captured struct {
	auth   string
	query  map[string]string
	audio  int
	closed bool
}

func startServer(t *testing.T, finals []string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		got.query = map[string]string{}
		for k := range r.URL.Query() {
			got.query[k] = r.URL.Query().Get(k)
		}
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ == websocket.MessageBinary {
				got.audio += len(data)
				continue
			}
			if strings.Contains(string(data), "CloseStream") {
				got.closed = true
				break
			}
		}

		for _, text := range finals {
			msg := map[string]any{
				"type":     "Results",
				"is_final": true,
				"channel":  map[string]any{"alternatives": []map[string]any{{"transcript": text}}},
			}
			data, _ := json.Marshal(msg)
			_ = conn.Write(ctx, websocket.MessageText, data)
		}
		interim, _ := json.Marshal(map[string]any{
			"type":     "Results",
			"is_final": false,
			"channel":  map[string]any{"alternatives": []map[string]any{{"transcript": "ignored"}}},
		})
		_ = conn.Write(ctx, websocket.MessageText, interim)
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Metadata"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribeJoinsFinalResults(t *testing.T) {
	var got captured
	srv := startServer(t, []string{"open the", " terminal "}, &got)

	p, err := New(Settings{APIKey: "k", Model: "nova-2", Language: "en", Endpoint: wsURL(srv), Keywords: []string{"hark"}})
	require.NoError(t, err)

	text, err := p.Transcribe(context.Background(), stt.Audio{PCM: make([]byte, 20000), SampleRate: 16000})
	require.NoError(t, err)
	require.Equal(t, "open the terminal", text)

	require.Equal(t, "Token k", got.auth)
	require.Equal(t, "16000", got.query["sample_rate"])
	require.Equal(t, "linear16", got.query["encoding"])
	require.Equal(t, "nova-2", got.query["model"])
	require.Equal(t, "hark", got.query["keywords"])
	require.Equal(t, 20000, got.audio)
	require.True(t, got.closed)
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	p, err := New(Settings{APIKey: "k"})
	require.NoError(t, err)
	_, err = p.Transcribe(context.Background(), stt.Audio{SampleRate: 16000})
	require.ErrorIs(t, err, stt.ErrNoAudio)
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("HARK_TEST_DG", "")
	_, err := New(Settings{APIKeyEnv: "HARK_TEST_DG"})
	require.Error(t, err)

	t.Setenv("HARK_TEST_DG", "from-env")
	p, err := New(Settings{APIKeyEnv: "HARK_TEST_DG"})
	require.NoError(t, err)
	require.Equal(t, "from-env", p.apiKey)
	require.Equal(t, defaultEndpoint, p.endpoint)
}

func TestTranscribeDialFailure(t *testing.T) {
	p, err := New(Settings{APIKey: "k", Endpoint: "ws://127.0.0.1:1/v1/listen"})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = p.Transcribe(ctx, stt.Audio{PCM: []byte{1, 2}, SampleRate: 16000})
	require.Error(t, err)
}
