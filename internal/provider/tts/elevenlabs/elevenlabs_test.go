package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/provider/tts"
)

type received struct {
	path     string
	query    string
	messages []map[string]any
}

func startServer(t *testing.T, chunks [][]byte, got *received) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg map[string]any
			_ = json.Unmarshal(data, &msg)
			got.messages = append(got.messages, msg)
			if msg["text"] == "" {
				break
			}
		}
		for _, c := range chunks {
			resp, _ := json.Marshal(map[string]any{"audio": base64.StdEncoding.EncodeToString(c)})
			_ = conn.Write(ctx, websocket.MessageText, resp)
		}
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"isFinal":true}`))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSynthesizeCollectsAudioChunks(t *testing.T) {
	var got received
	endpoint := startServer(t, [][]byte{{1, 0}, {2, 0, 3, 0}}, &got)

	p, err := New(Settings{APIKey: "xi", VoiceID: "voice-1", Endpoint: endpoint, Stability: 0.4, SimilarityBoost: 0.7})
	require.NoError(t, err)

	clip, err := p.Synthesize(context.Background(), "Opening Firefox.")
	require.NoError(t, err)
	require.Equal(t, []int16{1, 2, 3}, clip.Samples)
	require.Equal(t, 16000, clip.SampleRate)

	require.Equal(t, "/v1/text-to-speech/voice-1/stream-input", got.path)
	require.Contains(t, got.query, "model_id=eleven_flash_v2_5")
	require.Contains(t, got.query, "output_format=pcm_16000")
	require.Len(t, got.messages, 3)
	require.Equal(t, "xi", got.messages[0]["xi_api_key"])
	require.Equal(t, "Opening Firefox. ", got.messages[1]["text"])
	require.Equal(t, "", got.messages[2]["text"])
}

func TestSynthesizeWithoutAudioIsError(t *testing.T) {
	var got received
	endpoint := startServer(t, nil, &got)
	p, err := New(Settings{APIKey: "xi", VoiceID: "v", Endpoint: endpoint})
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), "hello")
	require.ErrorIs(t, err, tts.ErrNoAudio)
}

func TestNewValidatesSettings(t *testing.T) {
	t.Setenv("HARK_TEST_XI", "")
	_, err := New(Settings{APIKeyEnv: "HARK_TEST_XI", VoiceID: "v"})
	require.ErrorContains(t, err, "api key")

	_, err = New(Settings{APIKey: "k"})
	require.ErrorContains(t, err, "voice_id")

	p, err := New(Settings{APIKey: "k", VoiceID: "v"})
	require.NoError(t, err)
	u, err := p.streamURL()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "wss://api.elevenlabs.io/v1/text-to-speech/v/stream-input?"))
}

func TestSynthesizeRejectsBlankText(t *testing.T) {
	p, err := New(Settings{APIKey: "k", VoiceID: "v"})
	require.NoError(t, err)
	_, err = p.Synthesize(context.Background(), " ")
	require.ErrorIs(t, err, tts.ErrNoText)
}
