// Package config resolves, parses, validates, and defaults hark configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by hark.
// It is loaded once at startup and treated as immutable afterwards.
type Config struct {
	Log          LogConfig
	Audio        AudioConfig
	Wake         WakeConfig
	VAD          VADConfig
	Echo         EchoConfig
	Conversation ConversationConfig
	STT          STTConfig
	Dialogue     DialogueConfig
	TTS          TTSConfig
	Indicator    IndicatorConfig
	Metrics      MetricsConfig
	Debug        DebugConfig
}

// LogConfig controls the runtime log level.
type LogConfig struct {
	Level string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
	// BufferChunks bounds how many device callbacks may queue before an overrun is reported.
	BufferChunks int
}

// WakeConfig holds the keyword-spotting credential, models, and fixed sensitivity.
type WakeConfig struct {
	AccessKey    string
	AccessKeyEnv string
	ModelPath    string
	KeywordPaths []string
	Sensitivity  float64
}

// VADConfig holds the energy thresholds and frame counts used by the utterance segmenter.
type VADConfig struct {
	StartThreshold   float64
	EndThreshold     float64
	NoiseFloor       float64
	SilenceEndFrames int
	MinSpeechFrames  int
	PreRollFrames    int
}

// EchoConfig controls the microphone drains that follow acknowledgements and replies.
type EchoConfig struct {
	SilentRMS           float64
	SilentFrames        int
	FramesPerWord       int
	MinReplyDrainFrames int
	AfterReplySeconds   float64
	WakeDrainFrames     int
	WakeSilenceSeconds  float64
	AckDrainFrames      int
	AckSilenceSeconds   float64
	AfterTurnSeconds    float64
}

// ConversationConfig controls turn-taking timeouts, retries, and reply classification.
type ConversationConfig struct {
	Acknowledgement       string
	StandbyTimeoutSeconds float64
	ActiveTimeoutSeconds  float64
	MaxRetries            int
	MinTranscriptChars    int
	PollIntervalMS        int
	FallbackPhrases       []string
	FallbackPhrasesFile   string
	// FuzzyThreshold enables Jaro-Winkler fallback matching when > 0.
	FuzzyThreshold float64
}

// ProviderConfig selects one provider implementation and carries its free-form settings.
// An empty Name disables the slot.
type ProviderConfig struct {
	Name     string
	Settings map[string]any
}

// Enabled reports whether a provider has been selected.
func (p ProviderConfig) Enabled() bool {
	return p.Name != ""
}

// STTConfig selects the online and offline speech-to-text providers.
type STTConfig struct {
	Online         ProviderConfig
	Offline        ProviderConfig
	TimeoutSeconds float64
	GarbagePhrases []string
}

// DialogueConfig selects the dialogue engine and its conversational behavior.
type DialogueConfig struct {
	Provider       ProviderConfig
	SystemPrompt   string
	HistoryTurns   int
	TimeoutSeconds float64
	StopKeywords   []string
	Replies        RepliesConfig
}

// RepliesConfig holds the canned replies produced without consulting the dialogue model.
type RepliesConfig struct {
	Timeout string
	Empty   string
	Stop    string
}

// TTSConfig selects the primary and fallback speech synthesis providers.
type TTSConfig struct {
	Primary        ProviderConfig
	Fallback       ProviderConfig
	TimeoutSeconds float64
}

// IndicatorConfig controls desktop notification and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	DesktopAppName string
	SoundEnable    bool
	TextListening  string
	TextThinking   string
	TimeoutMS      int
}

// MetricsConfig controls the Prometheus scrape endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Seconds converts a fractional-seconds config value to a duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
