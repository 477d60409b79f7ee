package providers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.STT.Online = config.ProviderConfig{Name: "deepgram", Settings: map[string]any{"api_key": "dg-key"}}
	cfg.STT.Offline = config.ProviderConfig{Name: "riva", Settings: map[string]any{"endpoint": "127.0.0.1:1"}}
	cfg.Dialogue.Provider = config.ProviderConfig{Name: "command", Settings: map[string]any{"command": "cat"}}
	cfg.TTS.Primary = config.ProviderConfig{Name: "piper", Settings: map[string]any{"command": "cat", "sample-rate": "16000"}}
	cfg.TTS.Fallback = config.ProviderConfig{Name: "openai", Settings: map[string]any{"api_key": "oa-key"}}
	return cfg
}

func TestBuildArrangesFallbackGroups(t *testing.T) {
	set, err := Build(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, set.Close()) })

	require.Equal(t, []string{"online:deepgram", "offline:riva"}, set.Normal.Names())
	require.Equal(t, []string{"online:deepgram"}, set.Conversation.Names())
	require.Equal(t, []string{"primary:piper", "fallback:openai"}, set.Voice.Names())
	require.NotNil(t, set.Dialogue)
	require.Len(t, set.closers, 1)
}

func TestBuildOfflineOnlySharesGroup(t *testing.T) {
	cfg := testConfig()
	cfg.STT.Online = config.ProviderConfig{}

	set, err := Build(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = set.Close() })

	require.Equal(t, []string{"offline:riva"}, set.Normal.Names())
	require.Same(t, set.Normal, set.Conversation)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "no stt",
			mutate:  func(c *config.Config) { c.STT.Online, c.STT.Offline = config.ProviderConfig{}, config.ProviderConfig{} },
			wantErr: "no stt provider",
		},
		{
			name: "unknown setting",
			mutate: func(c *config.Config) {
				c.STT.Online.Settings = map[string]any{"api_key": "k", "bogus": true}
			},
			wantErr: "stt.online",
		},
		{
			name:    "unknown dialogue",
			mutate:  func(c *config.Config) { c.Dialogue.Provider.Name = "oracle" },
			wantErr: "unknown dialogue provider",
		},
		{
			name:    "missing api key",
			mutate:  func(c *config.Config) { c.TTS.Fallback.Settings = map[string]any{"api_key_env": "HARK_TEST_UNSET_KEY"} },
			wantErr: "tts.fallback",
		},
		{
			name:    "empty piper command",
			mutate:  func(c *config.Config) { c.TTS.Primary.Settings = map[string]any{"command": ""} },
			wantErr: "tts.primary",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := Build(cfg, nil)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
