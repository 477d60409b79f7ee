// Package openai transcribes utterances with the OpenAI audio transcription API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/transcript"
)

// Settings configure the provider.
type Settings struct {
	APIKey    string `mapstructure:"api_key"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	Model     string `mapstructure:"model"`
	Language  string `mapstructure:"language"`
	BaseURL   string `mapstructure:"base_url"`
	Prompt    string `mapstructure:"prompt"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		APIKeyEnv: "OPENAI_API_KEY",
		Model:     string(oai.AudioModelWhisper1),
		Language:  "en",
	}
}

// Provider implements stt.Provider.
type Provider struct {
	client   oai.Client
	model    string
	language string
	prompt   string
}

var _ stt.Provider = (*Provider)(nil)

// New builds a client from settings.
func New(s Settings) (*Provider, error) {
	key := config.Secret(s.APIKey, s.APIKeyEnv)
	if key == "" {
		return nil, errors.New("openai stt: api key is empty")
	}
	if strings.TrimSpace(s.Model) == "" {
		return nil, errors.New("openai stt: model is empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Provider{
		client:   oai.NewClient(opts...),
		model:    s.Model,
		language: s.Language,
		prompt:   s.Prompt,
	}, nil
}

// Transcribe uploads the utterance as a WAV file.
func (p *Provider) Transcribe(ctx context.Context, a stt.Audio) (string, error) {
	if len(a.PCM) == 0 {
		return "", stt.ErrNoAudio
	}
	var wav bytes.Buffer
	if err := audio.WriteWAV(&wav, a.PCM, a.SampleRate); err != nil {
		return "", fmt.Errorf("openai stt: encode wav: %w", err)
	}

	params := oai.AudioTranscriptionNewParams{
		File:  &namedReader{Reader: bytes.NewReader(wav.Bytes()), name: "utterance.wav"},
		Model: oai.AudioModel(p.model),
	}
	if p.language != "" {
		params.Language = oai.String(p.language)
	}
	if p.prompt != "" {
		params.Prompt = oai.String(p.prompt)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai stt: transcribe: %w", err)
	}
	return transcript.Normalize(resp.Text), nil
}

// namedReader gives the multipart encoder a file name and content type.
type namedReader struct {
	*bytes.Reader
	name string
}

func (n *namedReader) Filename() string    { return n.name }
func (n *namedReader) Name() string        { return n.name }
func (n *namedReader) ContentType() string { return "audio/wav" }
