package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSettings struct {
	APIKeyEnv  string  `mapstructure:"api_key_env"`
	Model      string  `mapstructure:"model"`
	SampleRate int     `mapstructure:"sample_rate"`
	Boost      float64 `mapstructure:"boost"`
	Punctuate  bool    `mapstructure:"punctuate"`
}

func TestDecodeSettingsNormalizesKeysAndTypes(t *testing.T) {
	var out testSettings
	err := DecodeSettings(map[string]any{
		"API-KEY-ENV": "X_KEY",
		"model":       "nova-2",
		"sampleRate":  float64(22050),
		"boost":       "2.5",
		"punctuate":   "true",
	}, &out)
	require.NoError(t, err)
	require.Equal(t, testSettings{APIKeyEnv: "X_KEY", Model: "nova-2", SampleRate: 22050, Boost: 2.5, Punctuate: true}, out)
}

func TestDecodeSettingsRejectsUnknownKeys(t *testing.T) {
	var out testSettings
	err := DecodeSettings(map[string]any{"modle": "typo"}, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "modle")
}

func TestDecodeSettingsEmptyKeepsDefaults(t *testing.T) {
	out := testSettings{Model: "keep"}
	require.NoError(t, DecodeSettings(nil, &out))
	require.Equal(t, "keep", out.Model)
}

func TestSecretPrefersInlineValue(t *testing.T) {
	t.Setenv("HARK_TEST_SECRET", "from-env")
	require.Equal(t, "inline", Secret(" inline ", "HARK_TEST_SECRET"))
	require.Equal(t, "from-env", Secret("", "HARK_TEST_SECRET"))
	require.Empty(t, Secret("", ""))
}

func TestExpandUserPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.Equal(t, home, ExpandUserPath("~"))
	require.Equal(t, filepath.Join(home, "models", "a.ppn"), ExpandUserPath("~/models/a.ppn"))
	require.Equal(t, "/abs/path", ExpandUserPath(" /abs/path "))
	require.Equal(t, "~other/x", ExpandUserPath("~other/x"))
}

func TestCommandArgvExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	argv, err := CommandArgv(`piper --model "~/voices/en.onnx" --output-raw`)
	require.NoError(t, err)
	require.Equal(t, []string{"piper", "--model", filepath.Join(home, "voices", "en.onnx"), "--output-raw"}, argv)

	_, err = CommandArgv("   ")
	require.Error(t, err)
}
