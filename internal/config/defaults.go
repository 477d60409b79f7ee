package config

// DefaultFallbackPhrases are apology and re-prompt fragments that mark a reply
// containing "?" as a request to repeat rather than a genuine follow-up question.
var DefaultFallbackPhrases = []string{
	"could you repeat",
	"can you repeat",
	"say that again",
	"didn't catch",
	"did not catch",
	"didn't hear",
	"didn't understand",
	"please repeat",
	"dobara bolein",
	"samajh nahi",
	"sunai nahi",
	"phir se bolein",
	"kuch sunai",
	"clear nahi",
}

// DefaultGarbagePhrases are transcripts offline recognizers hallucinate on noise.
var DefaultGarbagePhrases = []string{
	"thanks for watching",
	"thank you for watching",
	"subtitles by",
	"please subscribe",
}

// DefaultStopKeywords cancel the current exchange without consulting the dialogue model.
var DefaultStopKeywords = []string{
	"stop",
	"cancel",
	"never mind",
	"hold on",
	"wait",
	"ruko",
	"bas",
}

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Audio: AudioConfig{
			Input:        "default",
			Fallback:     "default",
			BufferChunks: 64,
		},
		Wake: WakeConfig{
			AccessKeyEnv: "PICOVOICE_KEY",
			ModelPath:    "~/.local/share/hark/porcupine_params.pv",
			KeywordPaths: []string{"~/.local/share/hark/assistant.ppn"},
			Sensitivity:  0.85,
		},
		VAD: VADConfig{
			StartThreshold:   320,
			EndThreshold:     180,
			NoiseFloor:       150,
			SilenceEndFrames: 12,
			MinSpeechFrames:  4,
			PreRollFrames:    6,
		},
		Echo: EchoConfig{
			SilentRMS:           900,
			SilentFrames:        15,
			FramesPerWord:       20,
			MinReplyDrainFrames: 80,
			AfterReplySeconds:   2.5,
			WakeDrainFrames:     25,
			WakeSilenceSeconds:  1.5,
			AckDrainFrames:      50,
			AckSilenceSeconds:   1.2,
			AfterTurnSeconds:    4.0,
		},
		Conversation: ConversationConfig{
			Acknowledgement:       "Yes?",
			StandbyTimeoutSeconds: 10,
			ActiveTimeoutSeconds:  6,
			MaxRetries:            2,
			MinTranscriptChars:    2,
			PollIntervalMS:        100,
			FallbackPhrases:       append([]string(nil), DefaultFallbackPhrases...),
		},
		STT: STTConfig{
			Online: ProviderConfig{
				Name: "deepgram",
				Settings: map[string]any{
					"api_key_env": "DEEPGRAM_API_KEY",
					"model":       "nova-2",
					"language":    "en",
				},
			},
			TimeoutSeconds: 15,
			GarbagePhrases: append([]string(nil), DefaultGarbagePhrases...),
		},
		Dialogue: DialogueConfig{
			Provider: ProviderConfig{
				Name: "openai",
				Settings: map[string]any{
					"api_key_env": "OPENAI_API_KEY",
					"model":       "gpt-4o-mini",
				},
			},
			SystemPrompt:   "You are a concise desktop voice assistant. Answer in one or two spoken sentences. Ask a question only when you need more information.",
			HistoryTurns:   10,
			TimeoutSeconds: 30,
			StopKeywords:   append([]string(nil), DefaultStopKeywords...),
			Replies: RepliesConfig{
				Timeout: "",
				Empty:   "Sorry, I didn't catch that. Could you say that again?",
				Stop:    "Okay, stopping.",
			},
		},
		TTS: TTSConfig{
			Primary: ProviderConfig{
				Name: "piper",
				Settings: map[string]any{
					"command":     "piper --model ~/.local/share/hark/voice.onnx --output-raw",
					"sample_rate": 22050,
				},
			},
			TimeoutSeconds: 20,
		},
		Indicator: IndicatorConfig{
			Enable:         false,
			DesktopAppName: "hark",
			SoundEnable:    true,
			TimeoutMS:      8000,
		},
		Metrics: MetricsConfig{},
		Debug:   DebugConfig{},
	}
}
