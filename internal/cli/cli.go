// Package cli parses the hark command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandStatus  Command = "status"
	CommandReset   Command = "reset"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// commands lists every command in help order.
var commands = []struct {
	name    Command
	summary string
}{
	{CommandRun, "Listen for the wake word and hold conversations (default)"},
	{CommandStatus, "Print the running instance's conversation state and phase"},
	{CommandReset, "Drop conversation mode at the next turn boundary"},
	{CommandDevices, "List available input devices"},
	{CommandDoctor, "Run configuration and environment checks"},
	{CommandVersion, "Print version information"},
	{CommandHelp, "Show this help"},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

// Parse reads global flags followed by at most one command. With no command
// the assistant runs in the foreground.
func Parse(args []string) (Parsed, error) {
	out := Parsed{Command: CommandRun}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			out.Command, out.ShowHelp = CommandHelp, true
		case arg == "--version":
			out.Command, out.ShowHelp = CommandVersion, false
		case arg == "--config":
			i++
			if i >= len(args) || strings.TrimSpace(args[i]) == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
			out.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			value := strings.TrimPrefix(arg, "--config=")
			if strings.TrimSpace(value) == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
			out.ConfigPath = value
		case strings.HasPrefix(arg, "-"):
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			cmd, ok := lookup(arg)
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			if rest := args[i+1:]; len(rest) > 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q: %s", arg, strings.Join(rest, " "))
			}
			out.Command, out.ShowHelp = cmd, cmd == CommandHelp
		}
	}
	return out, nil
}

func lookup(name string) (Command, bool) {
	for _, c := range commands {
		if string(c.name) == name {
			return c.name, true
		}
	}
	return "", false
}

func HelpText(binaryName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage:\n  %s [--config PATH] [command]\n\nCommands:\n", binaryName)
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(&b, `
Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/%s/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
	return b.String()
}
