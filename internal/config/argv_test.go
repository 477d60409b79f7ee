package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "   ", want: nil},
		{name: "comment", input: "# piper --output-raw", want: nil},
		{name: "plain words", input: "piper  --output-raw\t--quiet", want: []string{"piper", "--output-raw", "--quiet"}},
		{name: "double quotes", input: `brain --prompt "be brief"`, want: []string{"brain", "--prompt", "be brief"}},
		{name: "single quotes keep backslashes", input: `brain 'a\b'`, want: []string{"brain", `a\b`}},
		{name: "escaped space", input: `piper --model my\ voice.onnx`, want: []string{"piper", "--model", "my voice.onnx"}},
		{name: "escaped quote inside double quotes", input: `say "\"hi\""`, want: []string{"say", `"hi"`}},
		{name: "empty quoted argument", input: `brain --system ""`, want: []string{"brain", "--system", ""}},
		{name: "adjacent quoted parts join", input: `a"b c"d`, want: []string{"ab cd"}},
		{name: "unterminated quote", input: `brain "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `brain oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
