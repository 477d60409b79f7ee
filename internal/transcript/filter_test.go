package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterClean(t *testing.T) {
	t.Parallel()

	f := NewFilter([]string{"Thanks for watching", "  ", "subtitles by"}, 2)

	tests := []struct {
		name    string
		in      string
		want    string
		verdict Verdict
	}{
		{name: "accepted", in: "  open   firefox ", want: "open firefox", verdict: VerdictOK},
		{name: "blank", in: " \n\t", verdict: VerdictEmpty},
		{name: "too short", in: " a ", verdict: VerdictTooShort},
		{name: "garbage case insensitive", in: "THANKS FOR WATCHING!", verdict: VerdictGarbage},
		{name: "garbage substring", in: "Subtitles by the community", verdict: VerdictGarbage},
		{name: "two runes pass", in: "hi", want: "hi", verdict: VerdictOK},
		{name: "garbage with punctuation", in: "Thanks for watching!", verdict: VerdictGarbage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, verdict := f.Clean(tc.in)
			require.Equal(t, tc.verdict, verdict)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFilterCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	f := NewFilter(nil, 2)
	got, verdict := f.Clean("हाँ")
	require.Equal(t, VerdictOK, verdict)
	require.Equal(t, "हाँ", got)

	_, verdict = f.Clean("é")
	require.Equal(t, VerdictTooShort, verdict)
}

func TestFilterNegativeMinimumIsClamped(t *testing.T) {
	t.Parallel()

	got, verdict := NewFilter(nil, -3).Clean("a")
	require.Equal(t, VerdictOK, verdict)
	require.Equal(t, "a", got)
}

func TestFilterZeroValueAcceptsAnyText(t *testing.T) {
	t.Parallel()

	got, verdict := Filter{}.Clean("x")
	require.Equal(t, "x", got)
	require.Equal(t, VerdictOK, verdict)
}
