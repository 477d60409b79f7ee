package piper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/provider/tts"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "piper")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestSynthesizeDecodesRawPCM(t *testing.T) {
	dir := t.TempDir()
	capture := filepath.Join(dir, "text.txt")
	// Two samples: 1 and -1 in little-endian s16.
	script := writeScript(t, "#!/usr/bin/env bash\ncat > \"$1\"\nprintf '\\x01\\x00\\xff\\xff'\n")

	p, err := New(Settings{Command: script + " " + capture, SampleRate: 22050})
	require.NoError(t, err)

	clip, err := p.Synthesize(context.Background(), "  Hello there. ")
	require.NoError(t, err)
	require.Equal(t, []int16{1, -1}, clip.Samples)
	require.Equal(t, 22050, clip.SampleRate)

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	require.Equal(t, "Hello there.\n", string(data))
}

func TestSynthesizeRejectsBlankText(t *testing.T) {
	p, err := New(Settings{Command: "piper", SampleRate: 16000})
	require.NoError(t, err)
	_, err = p.Synthesize(context.Background(), "   ")
	require.ErrorIs(t, err, tts.ErrNoText)
}

func TestSynthesizeEmptyOutputIsError(t *testing.T) {
	script := writeScript(t, "#!/usr/bin/env bash\ncat >/dev/null\n")
	p, err := New(Settings{Command: script, SampleRate: 16000})
	require.NoError(t, err)
	_, err = p.Synthesize(context.Background(), "hi")
	require.ErrorIs(t, err, tts.ErrNoAudio)
}

func TestNewValidatesSettings(t *testing.T) {
	_, err := New(Settings{SampleRate: 16000})
	require.Error(t, err)
	_, err = New(Settings{Command: "piper"})
	require.ErrorContains(t, err, "sample_rate")

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	p, err := New(DefaultSettings())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local/share/hark/voice.onnx"), p.Argv()[2])
}
