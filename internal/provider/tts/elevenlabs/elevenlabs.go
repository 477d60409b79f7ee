// Package elevenlabs synthesizes speech over the ElevenLabs stream-input
// websocket, collecting the whole reply before returning.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/tts"
)

const (
	defaultEndpoint = "wss://api.elevenlabs.io"
	defaultModel    = "eleven_flash_v2_5"
	outputFormat    = "pcm_16000"
	outputRate      = 16000
)

// Settings configure the provider.
type Settings struct {
	APIKey          string  `mapstructure:"api_key"`
	APIKeyEnv       string  `mapstructure:"api_key_env"`
	VoiceID         string  `mapstructure:"voice_id"`
	Model           string  `mapstructure:"model"`
	Endpoint        string  `mapstructure:"endpoint"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		APIKeyEnv:       "ELEVENLABS_API_KEY",
		Model:           defaultModel,
		Endpoint:        defaultEndpoint,
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}
}

// Provider implements tts.Provider.
type Provider struct {
	apiKey   string
	settings Settings
}

var _ tts.Provider = (*Provider)(nil)

// New validates settings.
func New(s Settings) (*Provider, error) {
	key := config.Secret(s.APIKey, s.APIKeyEnv)
	if key == "" {
		return nil, errors.New("elevenlabs: api key is empty")
	}
	if strings.TrimSpace(s.VoiceID) == "" {
		return nil, errors.New("elevenlabs: voice_id must not be empty")
	}
	if s.Model == "" {
		s.Model = defaultModel
	}
	if s.Endpoint == "" {
		s.Endpoint = defaultEndpoint
	}
	return &Provider{apiKey: key, settings: s}, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
	OutputFormat  string         `json:"output_format,omitempty"`
}

type textMessage struct {
	Text string `json:"text"`
}

type audioResponse struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (p *Provider) streamURL() (string, error) {
	u, err := url.Parse(strings.TrimRight(p.settings.Endpoint, "/"))
	if err != nil {
		return "", err
	}
	u = u.JoinPath("v1", "text-to-speech", p.settings.VoiceID, "stream-input")
	q := u.Query()
	q.Set("model_id", p.settings.Model)
	q.Set("output_format", outputFormat)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Synthesize sends text followed by a flush and decodes every audio chunk.
func (p *Provider) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.Clip{}, tts.ErrNoText
	}
	wsURL, err := p.streamURL()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("elevenlabs: build url: %w", err)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(4 << 20)

	messages := []any{
		boiMessage{
			Text: " ",
			VoiceSettings: &voiceSettings{
				Stability:       p.settings.Stability,
				SimilarityBoost: p.settings.SimilarityBoost,
			},
			XiAPIKey:     p.apiKey,
			OutputFormat: outputFormat,
		},
		// A trailing space lets the server treat the text as complete words.
		textMessage{Text: text + " "},
		textMessage{Text: ""},
	}
	for _, msg := range messages {
		data, _ := json.Marshal(msg)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			return audio.Clip{}, fmt.Errorf("elevenlabs: send: %w", err)
		}
	}

	var pcm []byte
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				break
			}
			return audio.Clip{}, fmt.Errorf("elevenlabs: read: %w", err)
		}
		var resp audioResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Error != "" {
			return audio.Clip{}, fmt.Errorf("elevenlabs: %s: %s", resp.Error, resp.Message)
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return audio.Clip{}, fmt.Errorf("elevenlabs: decode audio: %w", err)
			}
			pcm = append(pcm, chunk...)
		}
		if resp.IsFinal {
			break
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")

	if len(pcm) < audio.BytesPerSample {
		return audio.Clip{}, tts.ErrNoAudio
	}
	return audio.Clip{Samples: audio.Samples(pcm), SampleRate: outputRate}, nil
}
