// Package providers builds the speech, dialogue, and synthesis capabilities
// named in configuration and arranges them into fallback groups.
package providers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/provider/dialogue"
	dialoguecommand "github.com/rbright/hark/internal/provider/dialogue/command"
	"github.com/rbright/hark/internal/provider/dialogue/anyllm"
	dialogueopenai "github.com/rbright/hark/internal/provider/dialogue/openai"
	"github.com/rbright/hark/internal/provider/stt"
	"github.com/rbright/hark/internal/provider/stt/deepgram"
	sttopenai "github.com/rbright/hark/internal/provider/stt/openai"
	"github.com/rbright/hark/internal/provider/stt/riva"
	"github.com/rbright/hark/internal/provider/stt/whisper"
	"github.com/rbright/hark/internal/provider/tts"
	"github.com/rbright/hark/internal/provider/tts/elevenlabs"
	ttsopenai "github.com/rbright/hark/internal/provider/tts/openai"
	"github.com/rbright/hark/internal/provider/tts/piper"
	"github.com/rbright/hark/internal/resilience"
)

// Set is every built capability. Close releases providers that hold native
// or network resources.
type Set struct {
	// Normal tries online then offline speech recognition.
	Normal *resilience.FallbackGroup[stt.Provider]
	// Conversation is the online recognizer alone, or offline when no online one is configured.
	Conversation *resilience.FallbackGroup[stt.Provider]
	Dialogue     dialogue.Provider
	Voice        *resilience.FallbackGroup[tts.Provider]

	closers []io.Closer
}

// Close releases held resources.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build constructs every configured provider. On error, anything already
// built is released.
func Build(cfg config.Config, logger *slog.Logger) (_ *Set, err error) {
	set := &Set{}
	defer func() {
		if err != nil {
			_ = set.Close()
		}
	}()
	breaker := resilience.BreakerConfig{Logger: logger}

	var online, offline stt.Provider
	if cfg.STT.Online.Enabled() {
		if online, err = set.stt(cfg.STT.Online, logger); err != nil {
			return nil, fmt.Errorf("stt.online: %w", err)
		}
	}
	if cfg.STT.Offline.Enabled() {
		if offline, err = set.stt(cfg.STT.Offline, logger); err != nil {
			return nil, fmt.Errorf("stt.offline: %w", err)
		}
	}
	switch {
	case online != nil:
		set.Normal = resilience.NewFallbackGroup("online:"+cfg.STT.Online.Name, online, breaker)
		set.Conversation = resilience.NewFallbackGroup("online:"+cfg.STT.Online.Name, online, breaker)
		if offline != nil {
			set.Normal.Add("offline:"+cfg.STT.Offline.Name, offline)
		}
	case offline != nil:
		logging.Component(logger, "providers").Warn("no online stt configured; conversation mode uses the offline recognizer")
		set.Normal = resilience.NewFallbackGroup("offline:"+cfg.STT.Offline.Name, offline, breaker)
		set.Conversation = set.Normal
	default:
		return nil, errors.New("no stt provider configured")
	}

	if set.Dialogue, err = NewDialogue(cfg.Dialogue.Provider); err != nil {
		return nil, fmt.Errorf("dialogue: %w", err)
	}

	primary, err := NewTTS(cfg.TTS.Primary)
	if err != nil {
		return nil, fmt.Errorf("tts.primary: %w", err)
	}
	set.Voice = resilience.NewFallbackGroup("primary:"+cfg.TTS.Primary.Name, primary, breaker)
	if cfg.TTS.Fallback.Enabled() {
		fallback, err := NewTTS(cfg.TTS.Fallback)
		if err != nil {
			return nil, fmt.Errorf("tts.fallback: %w", err)
		}
		set.Voice.Add("fallback:"+cfg.TTS.Fallback.Name, fallback)
	}

	return set, nil
}

func (s *Set) stt(pc config.ProviderConfig, logger *slog.Logger) (stt.Provider, error) {
	p, err := NewSTT(pc, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := p.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
	return p, nil
}

// NewSTT builds one speech recognizer.
func NewSTT(pc config.ProviderConfig, logger *slog.Logger) (stt.Provider, error) {
	switch pc.Name {
	case "deepgram":
		s := deepgram.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return deepgram.New(s)
	case "openai":
		s := sttopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return sttopenai.New(s)
	case "riva":
		s := riva.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return riva.New(s)
	case "whisper":
		s := whisper.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return whisper.New(s, logger)
	default:
		return nil, fmt.Errorf("unknown stt provider %q", pc.Name)
	}
}

// NewDialogue builds the dialogue engine.
func NewDialogue(pc config.ProviderConfig) (dialogue.Provider, error) {
	switch pc.Name {
	case "openai":
		s := dialogueopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return dialogueopenai.New(s)
	case "anyllm":
		s := anyllm.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return anyllm.New(s)
	case "command":
		s := dialoguecommand.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return dialoguecommand.New(s)
	default:
		return nil, fmt.Errorf("unknown dialogue provider %q", pc.Name)
	}
}

// NewTTS builds one synthesizer.
func NewTTS(pc config.ProviderConfig) (tts.Provider, error) {
	switch pc.Name {
	case "piper":
		s := piper.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return piper.New(s)
	case "elevenlabs":
		s := elevenlabs.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return elevenlabs.New(s)
	case "openai":
		s := ttsopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return nil, err
		}
		return ttsopenai.New(s)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", pc.Name)
	}
}
