// Package riva transcribes utterances with an NVIDIA Riva server's offline
// Recognize RPC. Messages are built from runtime descriptors with dynamicpb.
package riva

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/transcript"
)

// Phrase is one vocabulary boost entry.
type Phrase struct {
	Phrase string  `mapstructure:"phrase"`
	Boost  float32 `mapstructure:"boost"`
}

// Settings configure the provider.
type Settings struct {
	Endpoint             string   `mapstructure:"endpoint"`
	LanguageCode         string   `mapstructure:"language_code"`
	Model                string   `mapstructure:"model"`
	AutomaticPunctuation bool     `mapstructure:"automatic_punctuation"`
	Phrases              []Phrase `mapstructure:"phrases"`
	DialTimeoutMS        int      `mapstructure:"dial_timeout_ms"`
}

// DefaultSettings returns the settings used before user overrides are decoded.
func DefaultSettings() Settings {
	return Settings{
		Endpoint:             "127.0.0.1:50051",
		LanguageCode:         "en-US",
		AutomaticPunctuation: true,
		DialTimeoutMS:        3000,
	}
}

// Provider implements stt.Provider over one lazily connected gRPC channel.
type Provider struct {
	conn        *grpc.ClientConn
	schema      *schema
	settings    Settings
	dialTimeout time.Duration
}

var _ stt.Provider = (*Provider)(nil)

// New creates the client. No connection is attempted until first use.
func New(s Settings) (*Provider, error) {
	endpoint := strings.TrimSpace(s.Endpoint)
	if endpoint == "" {
		return nil, errors.New("riva endpoint is empty")
	}
	if strings.TrimSpace(s.LanguageCode) == "" {
		s.LanguageCode = "en-US"
	}
	if s.DialTimeoutMS <= 0 {
		s.DialTimeoutMS = 3000
	}

	sch, err := loadSchema()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial riva grpc %q: %w", endpoint, err)
	}
	return &Provider{
		conn:        conn,
		schema:      sch,
		settings:    s,
		dialTimeout: time.Duration(s.DialTimeoutMS) * time.Millisecond,
	}, nil
}

// Ready waits for the channel to connect within the dial timeout.
func (p *Provider) Ready(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	p.conn.Connect()
	if err := waitForReady(readyCtx, p.conn); err != nil {
		return fmt.Errorf("wait for riva grpc readiness: %w", err)
	}
	return nil
}

// Close releases the channel.
func (p *Provider) Close() error {
	return p.conn.Close()
}

// Transcribe sends the whole utterance in a single Recognize call.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	if len(audio.PCM) == 0 {
		return "", stt.ErrNoAudio
	}
	if err := p.Ready(ctx); err != nil {
		return "", err
	}

	req := p.buildRequest(audio)
	resp := dynamicpb.NewMessage(p.schema.response)
	if err := p.conn.Invoke(ctx, recognizeMethod, req, resp); err != nil {
		return "", fmt.Errorf("riva recognize: %w", err)
	}
	return transcript.Assemble(p.segments(resp)), nil
}

func (p *Provider) buildRequest(audio stt.Audio) *dynamicpb.Message {
	s := p.schema
	cfg := dynamicpb.NewMessage(s.config)
	cfg.Set(s.field(s.config, "encoding"), protoreflect.ValueOfEnum(encodingLinearPCM))
	cfg.Set(s.field(s.config, "sample_rate_hertz"), protoreflect.ValueOfInt32(int32(audio.SampleRate)))
	cfg.Set(s.field(s.config, "language_code"), protoreflect.ValueOfString(p.settings.LanguageCode))
	cfg.Set(s.field(s.config, "max_alternatives"), protoreflect.ValueOfInt32(1))
	cfg.Set(s.field(s.config, "audio_channel_count"), protoreflect.ValueOfInt32(1))
	cfg.Set(s.field(s.config, "enable_automatic_punctuation"), protoreflect.ValueOfBool(p.settings.AutomaticPunctuation))
	if model := strings.TrimSpace(p.settings.Model); model != "" {
		cfg.Set(s.field(s.config, "model"), protoreflect.ValueOfString(model))
	}

	contexts := cfg.Mutable(s.field(s.config, "speech_contexts")).List()
	for _, phrase := range p.settings.Phrases {
		text := strings.TrimSpace(phrase.Phrase)
		if text == "" {
			continue
		}
		sc := dynamicpb.NewMessage(s.context)
		sc.Mutable(s.field(s.context, "phrases")).List().Append(protoreflect.ValueOfString(text))
		sc.Set(s.field(s.context, "boost"), protoreflect.ValueOfFloat32(phrase.Boost))
		contexts.Append(protoreflect.ValueOfMessage(sc))
	}

	req := dynamicpb.NewMessage(s.request)
	req.Set(s.field(s.request, "config"), protoreflect.ValueOfMessage(cfg))
	req.Set(s.field(s.request, "audio"), protoreflect.ValueOfBytes(audio.PCM))
	return req
}

// segments returns the top alternative of every result in order.
func (p *Provider) segments(resp *dynamicpb.Message) []string {
	s := p.schema
	results := resp.Get(s.field(s.response, "results")).List()
	out := make([]string, 0, results.Len())
	for i := range results.Len() {
		result := results.Get(i).Message()
		alts := result.Get(result.Descriptor().Fields().ByName("alternatives")).List()
		if alts.Len() == 0 {
			continue
		}
		alt := alts.Get(0).Message()
		out = append(out, alt.Get(alt.Descriptor().Fields().ByName("transcript")).String())
	}
	return out
}
