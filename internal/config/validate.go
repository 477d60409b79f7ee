package config

import (
	"fmt"
	"slices"
	"strings"
)

// Known provider names per capability slot.
var (
	STTProviders      = []string{"deepgram", "openai", "riva", "whisper"}
	DialogueProviders = []string{"openai", "anyllm", "command"}
	TTSProviders      = []string{"piper", "elevenlabs", "openai"}
	logLevels         = []string{"debug", "info", "warn", "error"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if !slices.Contains(logLevels, strings.ToLower(cfg.Log.Level)) {
		return nil, fmt.Errorf("log.level must be one of: %s", strings.Join(logLevels, ", "))
	}
	if cfg.Audio.BufferChunks <= 0 {
		return nil, fmt.Errorf("audio.buffer_chunks must be > 0")
	}

	if strings.TrimSpace(cfg.Wake.ModelPath) == "" {
		return nil, fmt.Errorf("wake.model_path must not be empty")
	}
	if len(cfg.Wake.KeywordPaths) == 0 {
		return nil, fmt.Errorf("wake.keyword_paths must not be empty")
	}
	if cfg.Wake.Sensitivity < 0 || cfg.Wake.Sensitivity > 1 {
		return nil, fmt.Errorf("wake.sensitivity must be within [0, 1]")
	}
	if cfg.Wake.AccessKey == "" && cfg.Wake.AccessKeyEnv == "" {
		return nil, fmt.Errorf("wake.access_key or wake.access_key_env must be set")
	}

	vad := cfg.VAD
	if !(vad.StartThreshold > vad.EndThreshold && vad.EndThreshold > vad.NoiseFloor && vad.NoiseFloor >= 0) {
		return nil, fmt.Errorf("vad thresholds must satisfy start_threshold > end_threshold > noise_floor >= 0 (got %.0f, %.0f, %.0f)",
			vad.StartThreshold, vad.EndThreshold, vad.NoiseFloor)
	}
	if vad.SilenceEndFrames <= 0 {
		return nil, fmt.Errorf("vad.silence_end_frames must be > 0")
	}
	if vad.MinSpeechFrames < 0 {
		return nil, fmt.Errorf("vad.min_speech_frames must be >= 0")
	}
	if vad.PreRollFrames < 0 {
		return nil, fmt.Errorf("vad.preroll_frames must be >= 0")
	}

	echo := cfg.Echo
	if echo.SilentRMS <= 0 || echo.SilentFrames <= 0 {
		return nil, fmt.Errorf("echo.silent_rms and echo.silent_frames must be > 0")
	}
	for name, v := range map[string]int{
		"echo.frames_per_word":        echo.FramesPerWord,
		"echo.min_reply_drain_frames": echo.MinReplyDrainFrames,
		"echo.wake_drain_frames":      echo.WakeDrainFrames,
		"echo.ack_drain_frames":       echo.AckDrainFrames,
	} {
		if v < 0 {
			return nil, fmt.Errorf("%s must be >= 0", name)
		}
	}
	for name, v := range map[string]float64{
		"echo.after_reply_seconds":  echo.AfterReplySeconds,
		"echo.wake_silence_seconds": echo.WakeSilenceSeconds,
		"echo.ack_silence_seconds":  echo.AckSilenceSeconds,
		"echo.after_turn_seconds":   echo.AfterTurnSeconds,
	} {
		if v < 0 {
			return nil, fmt.Errorf("%s must be >= 0", name)
		}
	}

	conv := cfg.Conversation
	if conv.StandbyTimeoutSeconds <= 0 || conv.ActiveTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("conversation timeouts must be > 0")
	}
	if conv.MaxRetries <= 0 {
		return nil, fmt.Errorf("conversation.max_retries must be > 0")
	}
	if conv.MinTranscriptChars < 0 {
		return nil, fmt.Errorf("conversation.min_transcript_chars must be >= 0")
	}
	if conv.PollIntervalMS < 0 {
		return nil, fmt.Errorf("conversation.poll_interval_ms must be >= 0")
	}
	if conv.FuzzyThreshold < 0 || conv.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("conversation.fuzzy_threshold must be within [0, 1]")
	}
	if conv.ActiveTimeoutSeconds < 1 {
		warnings = append(warnings, Warning{Message: "conversation.active_timeout_seconds below 1s leaves little time for a follow-up"})
	}
	if conv.ActiveTimeoutSeconds > conv.StandbyTimeoutSeconds {
		warnings = append(warnings, Warning{Message: "conversation.active_timeout_seconds exceeds standby_timeout_seconds"})
	}
	if len(conv.FallbackPhrases) == 0 && conv.FallbackPhrasesFile == "" {
		warnings = append(warnings, Warning{Message: "no fallback phrases configured; every reply with '?' keeps the conversation open"})
	}

	if !cfg.STT.Online.Enabled() && !cfg.STT.Offline.Enabled() {
		return nil, fmt.Errorf("stt.online or stt.offline must name a provider")
	}
	if err := validateProvider("stt.online", cfg.STT.Online, STTProviders); err != nil {
		return nil, err
	}
	if err := validateProvider("stt.offline", cfg.STT.Offline, STTProviders); err != nil {
		return nil, err
	}
	if !cfg.STT.Offline.Enabled() {
		warnings = append(warnings, Warning{Message: "stt.offline not configured; normal mode has no offline fallback"})
	}
	if cfg.STT.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("stt.timeout_seconds must be > 0")
	}

	if !cfg.Dialogue.Provider.Enabled() {
		return nil, fmt.Errorf("dialogue.provider must not be empty")
	}
	if err := validateProvider("dialogue", cfg.Dialogue.Provider, DialogueProviders); err != nil {
		return nil, err
	}
	if cfg.Dialogue.HistoryTurns < 0 {
		return nil, fmt.Errorf("dialogue.history_turns must be >= 0")
	}
	if cfg.Dialogue.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("dialogue.timeout_seconds must be > 0")
	}

	if !cfg.TTS.Primary.Enabled() {
		return nil, fmt.Errorf("tts.primary must name a provider")
	}
	if err := validateProvider("tts.primary", cfg.TTS.Primary, TTSProviders); err != nil {
		return nil, err
	}
	if err := validateProvider("tts.fallback", cfg.TTS.Fallback, TTSProviders); err != nil {
		return nil, err
	}
	if cfg.TTS.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("tts.timeout_seconds must be > 0")
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	return warnings, nil
}

func validateProvider(path string, p ProviderConfig, known []string) error {
	if !p.Enabled() {
		return nil
	}
	if !slices.Contains(known, p.Name) {
		return fmt.Errorf("%s: unknown provider %q (supported: %s)", path, p.Name, strings.Join(known, ", "))
	}
	return nil
}
