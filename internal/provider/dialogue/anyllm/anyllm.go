// Package anyllm produces replies through github.com/mozilla-ai/any-llm-go,
// which fronts Anthropic, Gemini, Ollama, and other chat backends.
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/dialogue"
)

// Backends lists the accepted backend names.
var Backends = []string{"anthropic", "deepseek", "gemini", "groq", "llamacpp", "mistral", "ollama", "openai"}

// Settings configure the provider. An empty key defers to the backend's own
// environment variable (ANTHROPIC_API_KEY, GEMINI_API_KEY, ...).
type Settings struct {
	Backend     string  `mapstructure:"backend"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		Backend:   "ollama",
		Model:     "llama3.2",
		MaxTokens: 256,
	}
}

// Provider implements dialogue.Provider.
type Provider struct {
	backend  anyllmlib.Provider
	settings Settings
}

var _ dialogue.Provider = (*Provider)(nil)

// New creates the backend named by settings.
func New(s Settings) (*Provider, error) {
	if strings.TrimSpace(s.Model) == "" {
		return nil, errors.New("anyllm: model must not be empty")
	}
	var opts []anyllmlib.Option
	if key := config.Secret(s.APIKey, s.APIKeyEnv); key != "" {
		opts = append(opts, anyllmlib.WithAPIKey(key))
	}
	if s.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(s.BaseURL))
	}
	backend, err := createBackend(s.Backend, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", s.Backend, err)
	}
	return &Provider{backend: backend, settings: s}, nil
}

func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: %s", name, strings.Join(Backends, ", "))
	}
}

// Reply sends the conversation and returns the first choice.
func (p *Provider) Reply(ctx context.Context, req dialogue.Request) (string, error) {
	resp, err := p.backend.Completion(ctx, p.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}

func (p *Provider) buildParams(req dialogue.Request) anyllmlib.CompletionParams {
	messages := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, anyllmlib.Message{Role: anyllmlib.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, anyllmlib.Message{Role: string(m.Role), Content: m.Content})
	}

	params := anyllmlib.CompletionParams{
		Model:    p.settings.Model,
		Messages: messages,
	}
	if p.settings.Temperature != 0 {
		t := p.settings.Temperature
		params.Temperature = &t
	}
	if p.settings.MaxTokens > 0 {
		mt := p.settings.MaxTokens
		params.MaxTokens = &mt
	}
	return params
}
