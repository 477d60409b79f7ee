package anyllm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/provider/dialogue"
)

func TestBuildParamsPrependsSystemPrompt(t *testing.T) {
	p := &Provider{settings: Settings{Model: "claude-3-5-haiku-latest", Temperature: 0.2, MaxTokens: 128}}
	params := p.buildParams(dialogue.Request{
		SystemPrompt: "be brief",
		Messages: []dialogue.Message{
			{Role: dialogue.RoleUser, Content: "open firefox"},
			{Role: dialogue.RoleAssistant, Content: "Opening."},
			{Role: dialogue.RoleUser, Content: "thanks"},
		},
	})

	require.Equal(t, "claude-3-5-haiku-latest", params.Model)
	require.Len(t, params.Messages, 4)
	require.Equal(t, "system", params.Messages[0].Role)
	require.Equal(t, "be brief", params.Messages[0].ContentString())
	require.Equal(t, "assistant", params.Messages[2].Role)
	require.Equal(t, "thanks", params.Messages[3].ContentString())
	require.NotNil(t, params.Temperature)
	require.InDelta(t, 0.2, *params.Temperature, 1e-9)
	require.NotNil(t, params.MaxTokens)
	require.Equal(t, 128, *params.MaxTokens)
}

func TestBuildParamsOmitsUnsetTuning(t *testing.T) {
	p := &Provider{settings: Settings{Model: "m"}}
	params := p.buildParams(dialogue.Request{Messages: []dialogue.Message{{Role: dialogue.RoleUser, Content: "hi"}}})
	require.Len(t, params.Messages, 1)
	require.Nil(t, params.Temperature)
	require.Nil(t, params.MaxTokens)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Settings{Backend: "telepathy", Model: "m"})
	require.ErrorContains(t, err, "unsupported backend")
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(Settings{Backend: "ollama"})
	require.ErrorContains(t, err, "model")
}
