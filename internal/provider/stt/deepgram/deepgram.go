// Package deepgram transcribes utterances with Deepgram's live websocket API.
// Each utterance is streamed in full and the stream is closed immediately, so
// the server returns only finalized results.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/transcript"
)

const (
	defaultEndpoint = "wss://api.deepgram.com/v1/listen"
	chunkBytes      = 8192
)

// Settings configure the provider.
type Settings struct {
	APIKey    string   `mapstructure:"api_key"`
	APIKeyEnv string   `mapstructure:"api_key_env"`
	Model     string   `mapstructure:"model"`
	Language  string   `mapstructure:"language"`
	Endpoint  string   `mapstructure:"endpoint"`
	Keywords  []string `mapstructure:"keywords"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		APIKeyEnv: "DEEPGRAM_API_KEY",
		Model:     "nova-2",
		Language:  "en",
		Endpoint:  defaultEndpoint,
	}
}

// Provider implements stt.Provider.
type Provider struct {
	apiKey   string
	endpoint string
	model    string
	language string
	keywords []string
}

var _ stt.Provider = (*Provider)(nil)

// New validates settings and resolves the API key.
func New(s Settings) (*Provider, error) {
	key := config.Secret(s.APIKey, s.APIKeyEnv)
	if key == "" {
		return nil, errors.New("deepgram: api key is empty")
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		s.Endpoint = defaultEndpoint
	}
	return &Provider{
		apiKey:   key,
		endpoint: s.Endpoint,
		model:    s.Model,
		language: s.Language,
		keywords: s.Keywords,
	}, nil
}

func (p *Provider) buildURL(sampleRate int) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", "1")
	q.Set("punctuate", "true")
	q.Set("interim_results", "false")
	if p.model != "" {
		q.Set("model", p.model)
	}
	if p.language != "" {
		q.Set("language", p.language)
	}
	for _, kw := range p.keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			q.Add("keywords", kw)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type response struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Transcribe streams audio and joins every final result.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	if len(audio.PCM) == 0 {
		return "", stt.ErrNoAudio
	}
	wsURL, err := p.buildURL(audio.SampleRate)
	if err != nil {
		return "", fmt.Errorf("deepgram: build url: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return "", fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	type readResult struct {
		finals []string
		err    error
	}
	done := make(chan readResult, 1)
	go func() {
		finals, err := readFinals(ctx, conn)
		done <- readResult{finals: finals, err: err}
	}()

	for off := 0; off < len(audio.PCM); off += chunkBytes {
		end := min(off+chunkBytes, len(audio.PCM))
		if err := conn.Write(ctx, websocket.MessageBinary, audio.PCM[off:end]); err != nil {
			return "", fmt.Errorf("deepgram: send audio: %w", err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return "", fmt.Errorf("deepgram: close stream: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		_ = conn.Close(websocket.StatusNormalClosure, "done")
		return transcript.Assemble(res.finals), nil
	}
}

// readFinals collects final transcripts until the server sends its metadata
// summary or closes the stream.
func readFinals(ctx context.Context, conn *websocket.Conn) ([]string, error) {
	var finals []string
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return finals, nil
			}
			return finals, fmt.Errorf("deepgram: read: %w", err)
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		switch resp.Type {
		case "Metadata":
			return finals, nil
		case "Results":
			if resp.IsFinal && len(resp.Channel.Alternatives) > 0 {
				finals = append(finals, resp.Channel.Alternatives[0].Transcript)
			}
		}
	}
}
