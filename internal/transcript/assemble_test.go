package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{" open", "firefox.", "\nand", "play music"})
	require.Equal(t, "open firefox. and play music", got)
}

func TestAssembleEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Assemble(nil))
	require.Empty(t, Assemble([]string{"  ", "\n\t"}))
}

func TestAssembleSkipsWhitespaceOnlySegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello", Assemble([]string{"  ", "\n\t", "hello"}))
}

func TestNormalizeFoldsQuotes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "don't say \"that\"", Normalize("don’t  say “that”"))
}
