package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "hark", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "hark", "config.jsonc"), resolved)
}

func TestResolvePathExpandsHomeInExplicitPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	resolved, err := ResolvePath(" ~/dotfiles/hark.jsonc ")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "dotfiles", "hark.jsonc"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "audio": {
    "input": "default",
    "fallback": "default"
  },
  "debug": {
    "audio_dump": true
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.True(t, loaded.Config.Debug.EnableAudioDump)
}

func TestLoadMergesFallbackPhraseFile(t *testing.T) {
	dir := t.TempDir()
	phrasesPath := filepath.Join(dir, "phrases.yaml")
	require.NoError(t, os.WriteFile(phrasesPath, []byte("phrases:\n  - come again\n  - \"  \"\n  - one more time\n"), 0o600))

	path := filepath.Join(dir, "config.jsonc")
	contents := `{"conversation": {"fallback_phrases": ["pardon"], "fallback_phrases_file": "` + phrasesPath + `"}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"pardon", "come again", "one more time"}, loaded.Config.Conversation.FallbackPhrases)
}

func TestLoadMissingPhraseFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	contents := `{"conversation": {"fallback_phrases_file": "` + filepath.Join(dir, "nope.yaml") + `"}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "read phrase file")
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}
