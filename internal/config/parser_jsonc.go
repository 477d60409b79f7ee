package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Log          *jsoncLog          `json:"log"`
	Audio        *jsoncAudio        `json:"audio"`
	Wake         *jsoncWake         `json:"wake"`
	VAD          *jsoncVAD          `json:"vad"`
	Echo         *jsoncEcho         `json:"echo"`
	Conversation *jsoncConversation `json:"conversation"`
	STT          *jsoncSTT          `json:"stt"`
	Dialogue     *jsoncDialogue     `json:"dialogue"`
	TTS          *jsoncTTS          `json:"tts"`
	Indicator    *jsoncIndicator    `json:"indicator"`
	Metrics      *jsoncMetrics      `json:"metrics"`
	Debug        *jsoncDebug        `json:"debug"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

type jsoncAudio struct {
	Input        *string `json:"input"`
	Fallback     *string `json:"fallback"`
	BufferChunks *int    `json:"buffer_chunks"`
}

type jsoncWake struct {
	AccessKey    *string          `json:"access_key"`
	AccessKeyEnv *string          `json:"access_key_env"`
	ModelPath    *string          `json:"model_path"`
	KeywordPaths *jsoncStringList `json:"keyword_paths"`
	Sensitivity  *float64         `json:"sensitivity"`
}

type jsoncVAD struct {
	StartThreshold   *float64 `json:"start_threshold"`
	EndThreshold     *float64 `json:"end_threshold"`
	NoiseFloor       *float64 `json:"noise_floor"`
	SilenceEndFrames *int     `json:"silence_end_frames"`
	MinSpeechFrames  *int     `json:"min_speech_frames"`
	PreRollFrames    *int     `json:"preroll_frames"`
}

type jsoncEcho struct {
	SilentRMS           *float64 `json:"silent_rms"`
	SilentFrames        *int     `json:"silent_frames"`
	FramesPerWord       *int     `json:"frames_per_word"`
	MinReplyDrainFrames *int     `json:"min_reply_drain_frames"`
	AfterReplySeconds   *float64 `json:"after_reply_seconds"`
	WakeDrainFrames     *int     `json:"wake_drain_frames"`
	WakeSilenceSeconds  *float64 `json:"wake_silence_seconds"`
	AckDrainFrames      *int     `json:"ack_drain_frames"`
	AckSilenceSeconds   *float64 `json:"ack_silence_seconds"`
	AfterTurnSeconds    *float64 `json:"after_turn_seconds"`
}

type jsoncConversation struct {
	Acknowledgement       *string          `json:"acknowledgement"`
	StandbyTimeoutSeconds *float64         `json:"standby_timeout_seconds"`
	ActiveTimeoutSeconds  *float64         `json:"active_timeout_seconds"`
	MaxRetries            *int             `json:"max_retries"`
	MinTranscriptChars    *int             `json:"min_transcript_chars"`
	PollIntervalMS        *int             `json:"poll_interval_ms"`
	FallbackPhrases       *jsoncStringList `json:"fallback_phrases"`
	FallbackPhrasesFile   *string          `json:"fallback_phrases_file"`
	FuzzyThreshold        *float64         `json:"fuzzy_threshold"`
}

type jsoncProvider struct {
	Provider *string        `json:"provider"`
	Settings map[string]any `json:"settings"`
}

type jsoncSTT struct {
	Online         *jsoncProvider   `json:"online"`
	Offline        *jsoncProvider   `json:"offline"`
	TimeoutSeconds *float64         `json:"timeout_seconds"`
	GarbagePhrases *jsoncStringList `json:"garbage_phrases"`
}

type jsoncDialogue struct {
	Provider       *string          `json:"provider"`
	Settings       map[string]any   `json:"settings"`
	SystemPrompt   *string          `json:"system_prompt"`
	HistoryTurns   *int             `json:"history_turns"`
	TimeoutSeconds *float64         `json:"timeout_seconds"`
	StopKeywords   *jsoncStringList `json:"stop_keywords"`
	Replies        *jsoncReplies    `json:"replies"`
}

type jsoncReplies struct {
	Timeout *string `json:"timeout"`
	Empty   *string `json:"empty"`
	Stop    *string `json:"stop"`
}

type jsoncTTS struct {
	Primary        *jsoncProvider `json:"primary"`
	Fallback       *jsoncProvider `json:"fallback"`
	TimeoutSeconds *float64       `json:"timeout_seconds"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	TextListening  *string `json:"text_listening"`
	TextThinking   *string `json:"text_thinking"`
	TimeoutMS      *int    `json:"timeout_ms"`
}

type jsoncMetrics struct {
	Listen *string `json:"listen"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *jsoncStringList) values() []string {
	out := make([]string, 0, len(*l))
	for _, item := range *l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, validatedWarnings, nil
}

// set copies src into dst when the key was present in the document.
func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setList(dst *[]string, src *jsoncStringList) {
	if src != nil {
		*dst = src.values()
	}
}

// applyProvider replaces the provider slot wholesale: settings from defaults never
// leak into a different provider selection.
func applyProvider(dst *ProviderConfig, name *string, settings map[string]any) {
	if name == nil && settings == nil {
		return
	}
	if name != nil {
		next := strings.ToLower(strings.TrimSpace(*name))
		if next != dst.Name {
			dst.Settings = nil
		}
		dst.Name = next
	}
	if settings != nil {
		dst.Settings = settings
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Log != nil {
		setTrimmed(&cfg.Log.Level, payload.Log.Level)
	}

	if payload.Audio != nil {
		set(&cfg.Audio.Input, payload.Audio.Input)
		set(&cfg.Audio.Fallback, payload.Audio.Fallback)
		set(&cfg.Audio.BufferChunks, payload.Audio.BufferChunks)
	}

	if w := payload.Wake; w != nil {
		setTrimmed(&cfg.Wake.AccessKey, w.AccessKey)
		setTrimmed(&cfg.Wake.AccessKeyEnv, w.AccessKeyEnv)
		setTrimmed(&cfg.Wake.ModelPath, w.ModelPath)
		setList(&cfg.Wake.KeywordPaths, w.KeywordPaths)
		set(&cfg.Wake.Sensitivity, w.Sensitivity)
	}

	if v := payload.VAD; v != nil {
		set(&cfg.VAD.StartThreshold, v.StartThreshold)
		set(&cfg.VAD.EndThreshold, v.EndThreshold)
		set(&cfg.VAD.NoiseFloor, v.NoiseFloor)
		set(&cfg.VAD.SilenceEndFrames, v.SilenceEndFrames)
		set(&cfg.VAD.MinSpeechFrames, v.MinSpeechFrames)
		set(&cfg.VAD.PreRollFrames, v.PreRollFrames)
	}

	if e := payload.Echo; e != nil {
		set(&cfg.Echo.SilentRMS, e.SilentRMS)
		set(&cfg.Echo.SilentFrames, e.SilentFrames)
		set(&cfg.Echo.FramesPerWord, e.FramesPerWord)
		set(&cfg.Echo.MinReplyDrainFrames, e.MinReplyDrainFrames)
		set(&cfg.Echo.AfterReplySeconds, e.AfterReplySeconds)
		set(&cfg.Echo.WakeDrainFrames, e.WakeDrainFrames)
		set(&cfg.Echo.WakeSilenceSeconds, e.WakeSilenceSeconds)
		set(&cfg.Echo.AckDrainFrames, e.AckDrainFrames)
		set(&cfg.Echo.AckSilenceSeconds, e.AckSilenceSeconds)
		set(&cfg.Echo.AfterTurnSeconds, e.AfterTurnSeconds)
	}

	if c := payload.Conversation; c != nil {
		set(&cfg.Conversation.Acknowledgement, c.Acknowledgement)
		set(&cfg.Conversation.StandbyTimeoutSeconds, c.StandbyTimeoutSeconds)
		set(&cfg.Conversation.ActiveTimeoutSeconds, c.ActiveTimeoutSeconds)
		set(&cfg.Conversation.MaxRetries, c.MaxRetries)
		set(&cfg.Conversation.MinTranscriptChars, c.MinTranscriptChars)
		set(&cfg.Conversation.PollIntervalMS, c.PollIntervalMS)
		setList(&cfg.Conversation.FallbackPhrases, c.FallbackPhrases)
		setTrimmed(&cfg.Conversation.FallbackPhrasesFile, c.FallbackPhrasesFile)
		set(&cfg.Conversation.FuzzyThreshold, c.FuzzyThreshold)
	}

	if s := payload.STT; s != nil {
		if s.Online != nil {
			applyProvider(&cfg.STT.Online, s.Online.Provider, s.Online.Settings)
		}
		if s.Offline != nil {
			applyProvider(&cfg.STT.Offline, s.Offline.Provider, s.Offline.Settings)
		}
		set(&cfg.STT.TimeoutSeconds, s.TimeoutSeconds)
		setList(&cfg.STT.GarbagePhrases, s.GarbagePhrases)
	}

	if d := payload.Dialogue; d != nil {
		applyProvider(&cfg.Dialogue.Provider, d.Provider, d.Settings)
		set(&cfg.Dialogue.SystemPrompt, d.SystemPrompt)
		set(&cfg.Dialogue.HistoryTurns, d.HistoryTurns)
		set(&cfg.Dialogue.TimeoutSeconds, d.TimeoutSeconds)
		setList(&cfg.Dialogue.StopKeywords, d.StopKeywords)
		if r := d.Replies; r != nil {
			set(&cfg.Dialogue.Replies.Timeout, r.Timeout)
			set(&cfg.Dialogue.Replies.Empty, r.Empty)
			set(&cfg.Dialogue.Replies.Stop, r.Stop)
		}
	}

	if t := payload.TTS; t != nil {
		if t.Primary != nil {
			applyProvider(&cfg.TTS.Primary, t.Primary.Provider, t.Primary.Settings)
		}
		if t.Fallback != nil {
			applyProvider(&cfg.TTS.Fallback, t.Fallback.Provider, t.Fallback.Settings)
		}
		set(&cfg.TTS.TimeoutSeconds, t.TimeoutSeconds)
	}

	if i := payload.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		setTrimmed(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		set(&cfg.Indicator.TextListening, i.TextListening)
		set(&cfg.Indicator.TextThinking, i.TextThinking)
		set(&cfg.Indicator.TimeoutMS, i.TimeoutMS)
	}

	if payload.Metrics != nil {
		setTrimmed(&cfg.Metrics.Listen, payload.Metrics.Listen)
	}

	if payload.Debug != nil {
		set(&cfg.Debug.EnableAudioDump, payload.Debug.AudioDump)
	}
}
