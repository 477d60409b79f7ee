// Package command produces replies by running an external program once per
// turn. The program reads the request on stdin and prints the reply on stdout.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	runner "github.com/rbright/hark/internal/command"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/dialogue"
)

// Input formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Settings configure the provider.
type Settings struct {
	Command string `mapstructure:"command"`
	// Format is "text" (latest transcript only) or "json" (full request).
	Format string `mapstructure:"format"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{Format: FormatText}
}

// Provider implements dialogue.Provider.
type Provider struct {
	argv   []string
	format string
}

var _ dialogue.Provider = (*Provider)(nil)

// New parses the command line.
func New(s Settings) (*Provider, error) {
	argv, err := config.CommandArgv(s.Command)
	if err != nil {
		return nil, fmt.Errorf("dialogue command: %w", err)
	}
	format := strings.ToLower(strings.TrimSpace(s.Format))
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("dialogue command: format must be %q or %q", FormatText, FormatJSON)
	}
	return &Provider{argv: argv, format: format}, nil
}

// Argv returns the resolved command line.
func (p *Provider) Argv() []string {
	return append([]string(nil), p.argv...)
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Messages     []wireMessage `json:"messages"`
}

// Reply runs the program and returns its trimmed stdout.
func (p *Provider) Reply(ctx context.Context, req dialogue.Request) (string, error) {
	input, err := p.encode(req)
	if err != nil {
		return "", err
	}
	out, err := runner.Output(ctx, runner.Spec{
		Argv:  p.argv,
		Env:   []string{"HARK_TRANSCRIPT=" + req.Latest()},
		Input: input,
	})
	if err != nil {
		return "", fmt.Errorf("dialogue command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *Provider) encode(req dialogue.Request) ([]byte, error) {
	if p.format == FormatText {
		return []byte(req.Latest()), nil
	}
	wire := wireRequest{SystemPrompt: req.SystemPrompt, Messages: make([]wireMessage, 0, len(req.Messages))}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("dialogue command: encode request: %w", err)
	}
	return data, nil
}
