// Package openai synthesizes speech with the OpenAI audio speech API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/tts"
)

// pcmRate is the fixed rate of the API's "pcm" response format.
const pcmRate = 24000

// Settings configure the provider.
type Settings struct {
	APIKey       string  `mapstructure:"api_key"`
	APIKeyEnv    string  `mapstructure:"api_key_env"`
	Model        string  `mapstructure:"model"`
	Voice        string  `mapstructure:"voice"`
	Instructions string  `mapstructure:"instructions"`
	Speed        float64 `mapstructure:"speed"`
	BaseURL      string  `mapstructure:"base_url"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		APIKeyEnv: "OPENAI_API_KEY",
		Model:     "gpt-4o-mini-tts",
		Voice:     "alloy",
	}
}

// Provider implements tts.Provider.
type Provider struct {
	client   oai.Client
	settings Settings
}

var _ tts.Provider = (*Provider)(nil)

// New builds a client from settings.
func New(s Settings) (*Provider, error) {
	key := config.Secret(s.APIKey, s.APIKeyEnv)
	if key == "" {
		return nil, errors.New("openai tts: api key is empty")
	}
	if strings.TrimSpace(s.Model) == "" || strings.TrimSpace(s.Voice) == "" {
		return nil, errors.New("openai tts: model and voice must be set")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Provider{client: oai.NewClient(opts...), settings: s}, nil
}

// Synthesize requests raw 24 kHz PCM for text.
func (p *Provider) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.Clip{}, tts.ErrNoText
	}

	params := oai.AudioSpeechNewParams{
		Input:          text,
		Model:          oai.SpeechModel(p.settings.Model),
		Voice:          oai.AudioSpeechNewParamsVoice(p.settings.Voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if p.settings.Instructions != "" {
		params.Instructions = oai.String(p.settings.Instructions)
	}
	if p.settings.Speed > 0 {
		params.Speed = oai.Float(p.settings.Speed)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("openai tts: speech: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("openai tts: read audio: %w", err)
	}
	if len(pcm) < audio.BytesPerSample {
		return audio.Clip{}, tts.ErrNoAudio
	}
	return audio.Clip{Samples: audio.Samples(pcm), SampleRate: pcmRate}, nil
}
