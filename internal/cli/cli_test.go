package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Parsed
	}{
		{name: "no args runs", args: nil, want: Parsed{Command: CommandRun}},
		{name: "config only runs", args: []string{"--config", "/tmp/hark.jsonc"}, want: Parsed{Command: CommandRun, ConfigPath: "/tmp/hark.jsonc"}},
		{name: "config with equals", args: []string{"--config=/tmp/hark.jsonc", "status"}, want: Parsed{Command: CommandStatus, ConfigPath: "/tmp/hark.jsonc"}},
		{name: "doctor with config", args: []string{"--config", "/tmp/hark.jsonc", "doctor"}, want: Parsed{Command: CommandDoctor, ConfigPath: "/tmp/hark.jsonc"}},
		{name: "short help", args: []string{"-h"}, want: Parsed{Command: CommandHelp, ShowHelp: true}},
		{name: "long help", args: []string{"--help"}, want: Parsed{Command: CommandHelp, ShowHelp: true}},
		{name: "help command", args: []string{"help"}, want: Parsed{Command: CommandHelp, ShowHelp: true}},
		{name: "version flag", args: []string{"--version"}, want: Parsed{Command: CommandVersion}},
		{name: "reset", args: []string{"reset"}, want: Parsed{Command: CommandReset}},
		{name: "devices", args: []string{"devices"}, want: Parsed{Command: CommandDevices}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.args)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing config value", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "blank config value", args: []string{"--config", " "}, wantErr: "requires a path"},
		{name: "blank config equals", args: []string{"--config="}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: "unknown flag: --verbose"},
		{name: "unknown command", args: []string{"listen"}, wantErr: "unknown command: listen"},
		{name: "flag after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "two commands", args: []string{"doctor", "devices"}, wantErr: `after command "doctor": devices`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	text := HelpText("hark")
	require.True(t, strings.HasPrefix(text, "Usage:\n  hark [--config PATH] [command]\n"))
	for _, c := range commands {
		require.Contains(t, text, "  "+string(c.name)+" ")
	}
	require.Contains(t, text, "$XDG_CONFIG_HOME/hark/config.jsonc")
}
