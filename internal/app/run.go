package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dimiro1/banner"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/bridge"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/echo"
	"github.com/rbright/hark/internal/errorsx"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/provider/dialogue"
	"github.com/rbright/hark/internal/providers"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/transcript"
	"github.com/rbright/hark/internal/vad"
	"github.com/rbright/hark/internal/version"
	"github.com/rbright/hark/internal/wake"
)

const (
	socketProbeTimeout = 180 * time.Millisecond
	socketRetries      = 8
)

const bannerTemplate = `{{ .Title "hark" "" 0 }}
version {{ .Version }} | input {{ .Device }}
`

// commandRun owns the socket and the microphone until ctx is cancelled.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if err := r.run(ctx, cfg, logger); err != nil {
		reason := errorsx.Reason(err)
		logger.Error("run failed", "reason", string(reason), "error", err.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("run stopped")
	return 0
}

func (r Runner) run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonFatalInit)
	}
	listener, err := ipc.Acquire(ctx, socketPath, socketProbeTimeout, socketRetries)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonFatalInit)
	}
	defer ipc.Release(listener, socketPath)

	res, err := wake.Resolve(cfg.Wake)
	if err != nil {
		return err
	}
	detector, err := wake.NewPorcupine(res)
	if err != nil {
		return err
	}
	defer func() { _ = detector.Close() }()

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("select input device: %w", err), errorsx.ReasonFatalInit)
	}
	if selection.Warning != "" {
		logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	provider, metrics, err := initMetrics(cfg.Metrics)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("init metrics: %w", err), errorsx.ReasonFatalInit)
	}
	if provider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	source, err := audio.OpenPulse(selection.Device, cfg.Audio.BufferChunks)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("open capture: %w", err), errorsx.ReasonFatalInit)
	}
	engine, err := audio.NewEngine(source, detector.FrameLength(),
		audio.WithLogger(logger),
		audio.WithRecoveryHook(func(reason errorsx.ReasonCode) {
			metrics.RecordRecovery(context.Background(), string(reason))
		}),
	)
	if err != nil {
		_ = source.Close()
		return errorsx.Wrap(err, errorsx.ReasonFatalInit)
	}
	defer func() { _ = engine.Close() }()

	set, err := providers.Build(cfg, logger)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("build providers: %w", err), errorsx.ReasonFatalInit)
	}
	defer func() { _ = set.Close() }()

	player := audio.NewPulsePlayer(binaryName)
	conversation := dialogue.NewConversation(set.Dialogue, dialogue.ConversationOptions{
		SystemPrompt: cfg.Dialogue.SystemPrompt,
		HistoryTurns: cfg.Dialogue.HistoryTurns,
		StopKeywords: cfg.Dialogue.StopKeywords,
		Replies:      cfg.Dialogue.Replies,
		Logger:       logger,
	})

	bridgeCfg := bridge.Config{
		STTTimeout:      config.Seconds(cfg.STT.TimeoutSeconds),
		DialogueTimeout: config.Seconds(cfg.Dialogue.TimeoutSeconds),
		TTSTimeout:      config.Seconds(cfg.TTS.TimeoutSeconds),
		Filter:          transcript.NewFilter(cfg.STT.GarbagePhrases, cfg.Conversation.MinTranscriptChars),
	}
	if cfg.Debug.EnableAudioDump {
		if bridgeCfg.DumpDir, err = bridge.DefaultDumpDir(); err != nil {
			logger.Warn("audio dump disabled", "error", err.Error())
		}
	}
	speech, err := bridge.New(bridgeCfg, bridge.Deps{
		Normal:       set.Normal,
		Conversation: set.Conversation,
		Dialogue:     conversation,
		Voice:        set.Voice,
		Player:       player,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonFatalInit)
	}

	ack := newAcknowledger(cfg, speech, player, logger)
	if err := ack.Warm(ctx); err != nil {
		logger.Warn("acknowledgement not cached; will render on demand", "error", err.Error())
	}

	segmenter, err := vad.New(cfg.VAD, engine, logger)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfigInvalid)
	}
	suppressor, err := echo.New(cfg.Echo, engine, logger)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfigInvalid)
	}

	controller, err := session.NewController(session.Options{
		Config:     cfg.Conversation,
		Frames:     engine,
		Wake:       detector,
		Segmenter:  segmenter,
		Echo:       suppressor,
		Bridge:     speech,
		Ack:        ack,
		Classifier: session.NewClassifier(cfg.Conversation.FallbackPhrases, cfg.Conversation.FuzzyThreshold),
		Indicator:  indicator.New(cfg.Indicator, logger),
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonFatalInit)
	}

	printBanner(r.Stdout, selection.Device.ID)
	logger.Info("assistant ready",
		"device", selection.Device.ID,
		"stt", set.Normal.Names(),
		"tts", set.Voice.Names(),
		"dialogue", cfg.Dialogue.Provider.Name,
		"ack_cached", ack.Cached(),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return controller.Run(gctx)
	})
	g.Go(func() error {
		if err := ipc.Serve(gctx, listener, controller); err != nil {
			return fmt.Errorf("ipc server: %w", err)
		}
		return nil
	})
	if provider != nil {
		g.Go(func() error {
			if err := observe.Serve(gctx, cfg.Metrics.Listen, provider.Handler()); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initMetrics returns a Prometheus-backed provider when an endpoint is configured.
func initMetrics(cfg config.MetricsConfig) (*observe.Provider, *observe.Metrics, error) {
	if strings.TrimSpace(cfg.Listen) == "" {
		return nil, observe.Discard(), nil
	}
	provider, err := observe.InitProvider(observe.ProviderConfig{
		ServiceName:    binaryName,
		ServiceVersion: version.Version,
	})
	if err != nil {
		return nil, nil, err
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		return nil, nil, err
	}
	return provider, metrics, nil
}

func newAcknowledger(cfg config.Config, synth session.Synthesizer, player audio.Player, logger *slog.Logger) *session.Acknowledger {
	cacheDir, err := session.DefaultAckCacheDir()
	if err != nil {
		logger.Warn("acknowledgement cache disabled", "error", err.Error())
	}
	opts := session.AckOptions{
		Text:     cfg.Conversation.Acknowledgement,
		Voice:    ackVoice(cfg.TTS.Primary),
		CacheDir: cacheDir,
		Synth:    synth,
		Player:   player,
		Logger:   logger,
	}
	if cfg.Indicator.SoundEnable {
		opts.Tone = indicator.WakeTone()
	}
	return session.NewAcknowledger(opts)
}

// ackVoice identifies the primary voice; fmt prints map keys sorted.
func ackVoice(pc config.ProviderConfig) string {
	return fmt.Sprintf("%s %v", pc.Name, pc.Settings)
}

func printBanner(w io.Writer, device string) {
	tpl := strings.NewReplacer("{{ .Version }}", version.Version, "{{ .Device }}", device).Replace(bannerTemplate)
	banner.Init(w, true, false, bytes.NewBufferString(tpl))
}
