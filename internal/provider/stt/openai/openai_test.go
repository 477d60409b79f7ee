package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rbright/hark/internal/provider/stt"
	"github.com/stretchr/testify/require"
)

func TestTranscribeUploadsWAV(t *testing.T) {
	var (
		gotPath  string
		gotModel string
		gotAuth  string
		gotRIFF  bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		file, header, err := r.FormFile("file")
		if err == nil {
			data, _ := io.ReadAll(file)
			gotRIFF = strings.HasPrefix(string(data), "RIFF") && strings.HasSuffix(header.Filename, ".wav")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"  turn on   the lights "}`)
	}))
	defer srv.Close()

	p, err := New(Settings{APIKey: "sk-test", Model: "whisper-1", Language: "en", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	text, err := p.Transcribe(context.Background(), stt.Audio{PCM: make([]byte, 3200), SampleRate: 16000})
	require.NoError(t, err)
	require.Equal(t, "turn on the lights", text)
	require.True(t, strings.HasSuffix(gotPath, "/audio/transcriptions"))
	require.Equal(t, "whisper-1", gotModel)
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.True(t, gotRIFF)
}

func TestTranscribeSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad audio","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p, err := New(Settings{APIKey: "sk-test", Model: "whisper-1", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = p.Transcribe(context.Background(), stt.Audio{PCM: make([]byte, 320), SampleRate: 16000})
	require.ErrorContains(t, err, "openai stt")
}

func TestNewValidatesSettings(t *testing.T) {
	t.Setenv("HARK_TEST_OPENAI", "")
	_, err := New(Settings{APIKeyEnv: "HARK_TEST_OPENAI", Model: "whisper-1"})
	require.Error(t, err)

	_, err = New(Settings{APIKey: "k"})
	require.ErrorContains(t, err, "model")
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	p, err := New(Settings{APIKey: "k", Model: "whisper-1"})
	require.NoError(t, err)
	_, err = p.Transcribe(context.Background(), stt.Audio{SampleRate: 16000})
	require.ErrorIs(t, err, stt.ErrNoAudio)
}
