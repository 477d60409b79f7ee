package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/provider/dialogue"
)

func TestConvertMessageRoles(t *testing.T) {
	require.NotNil(t, convertMessage(dialogue.Message{Role: dialogue.RoleSystem, Content: "s"}).OfSystem)
	require.NotNil(t, convertMessage(dialogue.Message{Role: dialogue.RoleUser, Content: "u"}).OfUser)
	require.NotNil(t, convertMessage(dialogue.Message{Role: dialogue.RoleAssistant, Content: "a"}).OfAssistant)
}

func TestReplyPostsChatCompletion(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxCompletionTokens int `json:"max_completion_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Which app should I open?"}}]}`)
	}))
	defer srv.Close()

	p, err := New(Settings{APIKey: "sk", Model: "gpt-4o-mini", MaxTokens: 64, BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	reply, err := p.Reply(context.Background(), dialogue.Request{
		SystemPrompt: "be brief",
		Messages:     []dialogue.Message{{Role: dialogue.RoleUser, Content: "open an app"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Which app should I open?", reply)

	require.Equal(t, "gpt-4o-mini", body.Model)
	require.Equal(t, 64, body.MaxCompletionTokens)
	require.Len(t, body.Messages, 2)
	require.Equal(t, "system", body.Messages[0].Role)
	require.Equal(t, "open an app", body.Messages[1].Content)
}

func TestReplyEmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	p, err := New(Settings{APIKey: "sk", Model: "m", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	_, err = p.Reply(context.Background(), dialogue.Request{Messages: []dialogue.Message{{Role: dialogue.RoleUser, Content: "hi"}}})
	require.ErrorContains(t, err, "empty choices")
}

func TestNewValidatesSettings(t *testing.T) {
	t.Setenv("HARK_TEST_OPENAI", "")
	_, err := New(Settings{APIKeyEnv: "HARK_TEST_OPENAI", Model: "m"})
	require.ErrorContains(t, err, "api key")
	_, err = New(Settings{APIKey: "k"})
	require.ErrorContains(t, err, "model")
}
