// Package openai produces replies with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/dialogue"
)

// Settings configure the provider.
type Settings struct {
	APIKey      string  `mapstructure:"api_key"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		APIKeyEnv: "OPENAI_API_KEY",
		Model:     "gpt-4o-mini",
		MaxTokens: 256,
	}
}

// Provider implements dialogue.Provider.
type Provider struct {
	client   oai.Client
	settings Settings
}

var _ dialogue.Provider = (*Provider)(nil)

// New builds a client from settings.
func New(s Settings) (*Provider, error) {
	key := config.Secret(s.APIKey, s.APIKeyEnv)
	if key == "" {
		return nil, errors.New("openai dialogue: api key is empty")
	}
	if strings.TrimSpace(s.Model) == "" {
		return nil, errors.New("openai dialogue: model is empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Provider{client: oai.NewClient(opts...), settings: s}, nil
}

// Reply sends the conversation and returns the first choice.
func (p *Provider) Reply(ctx context.Context, req dialogue.Request) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("openai dialogue: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai dialogue: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) buildParams(req dialogue.Request) oai.ChatCompletionNewParams {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		messages = append(messages, convertMessage(m))
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.settings.Model),
		Messages: messages,
	}
	if p.settings.Temperature != 0 {
		params.Temperature = param.NewOpt(p.settings.Temperature)
	}
	if p.settings.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(p.settings.MaxTokens))
	}
	return params
}

func convertMessage(m dialogue.Message) oai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case dialogue.RoleSystem:
		return oai.SystemMessage(m.Content)
	case dialogue.RoleAssistant:
		return oai.AssistantMessage(m.Content)
	default:
		return oai.UserMessage(m.Content)
	}
}
