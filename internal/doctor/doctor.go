// Package doctor runs readiness diagnostics for config, wake models, audio,
// and the configured speech, dialogue, and synthesis providers.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/provider/dialogue/anyllm"
	dialoguecommand "github.com/rbright/hark/internal/provider/dialogue/command"
	dialogueopenai "github.com/rbright/hark/internal/provider/dialogue/openai"
	"github.com/rbright/hark/internal/provider/stt/deepgram"
	sttopenai "github.com/rbright/hark/internal/provider/stt/openai"
	"github.com/rbright/hark/internal/provider/stt/riva"
	"github.com/rbright/hark/internal/provider/stt/whisper"
	"github.com/rbright/hark/internal/provider/tts/elevenlabs"
	ttsopenai "github.com/rbright/hark/internal/provider/tts/openai"
	"github.com/rbright/hark/internal/provider/tts/piper"
	"github.com/rbright/hark/internal/wake"
)

const rivaProbeTimeout = 2 * time.Second

// keylessBackends run locally and need no API key.
var keylessBackends = []string{"ollama", "llamacpp"}

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Options replace live probes in tests.
type Options struct {
	// SelectDevice defaults to audio.SelectDevice.
	SelectDevice func(ctx context.Context, preferred, fallback string) (audio.Selection, error)
}

// Run executes every check for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, opts Options) Report {
	if opts.SelectDevice == nil {
		opts.SelectDevice = audio.SelectDevice
	}
	cfg := loaded.Config

	configMsg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		configMsg = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	checks := []Check{{Name: "config", Pass: true, Message: configMsg}}

	checks = append(checks, checkWake(cfg.Wake))
	checks = append(checks, checkAudioSelection(ctx, cfg.Audio, opts.SelectDevice))
	checks = append(checks, checkRuntimeDir())

	for _, slot := range []struct {
		name string
		kind string
		pc   config.ProviderConfig
	}{
		{"stt.online", "stt", cfg.STT.Online},
		{"stt.offline", "stt", cfg.STT.Offline},
		{"dialogue", "dialogue", cfg.Dialogue.Provider},
		{"tts.primary", "tts", cfg.TTS.Primary},
		{"tts.fallback", "tts", cfg.TTS.Fallback},
	} {
		if !slot.pc.Enabled() {
			continue
		}
		check := checkProvider(ctx, slot.kind, slot.pc)
		check.Name = slot.name + "." + slot.pc.Name
		checks = append(checks, check)
	}

	return Report{Checks: checks}
}

func checkWake(cfg config.WakeConfig) Check {
	res, err := wake.Resolve(cfg)
	if err != nil {
		return Check{Name: "wake", Pass: false, Message: err.Error()}
	}
	return Check{Name: "wake", Pass: true, Message: fmt.Sprintf("%d keyword model(s), sensitivity %.2f", len(res.KeywordPaths), res.Sensitivity)}
}

func checkRuntimeDir() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "ipc.socket", Pass: false, Message: err.Error()}
	}
	return Check{Name: "ipc.socket", Pass: true, Message: path}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(
	ctx context.Context,
	cfg config.AudioConfig,
	selectDevice func(context.Context, string, string) (audio.Selection, error),
) Check {
	selection, err := selectDevice(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkProvider decodes one provider's settings and verifies what it needs
// locally: a key, a binary, a model file, or a reachable server.
func checkProvider(ctx context.Context, kind string, pc config.ProviderConfig) Check {
	fail := func(err error) Check { return Check{Pass: false, Message: err.Error()} }

	switch kind + "/" + pc.Name {
	case "stt/deepgram":
		s := deepgram.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	case "stt/openai":
		s := sttopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	case "stt/riva":
		s := riva.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkRivaReady(ctx, s)
	case "stt/whisper":
		s := whisper.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkFile(s.ModelPath)
	case "dialogue/openai":
		s := dialogueopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	case "dialogue/anyllm":
		s := anyllm.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		if !slices.Contains(anyllm.Backends, s.Backend) {
			return Check{Pass: false, Message: fmt.Sprintf("unknown backend %q", s.Backend)}
		}
		if slices.Contains(keylessBackends, s.Backend) || (s.APIKey == "" && s.APIKeyEnv == "") {
			return Check{Pass: true, Message: fmt.Sprintf("backend %s, model %s", s.Backend, s.Model)}
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	case "dialogue/command":
		s := dialoguecommand.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkCommand(s.Command)
	case "tts/piper":
		s := piper.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkCommand(s.Command)
	case "tts/elevenlabs":
		s := elevenlabs.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	case "tts/openai":
		s := ttsopenai.DefaultSettings()
		if err := config.DecodeSettings(pc.Settings, &s); err != nil {
			return fail(err)
		}
		return checkKey(s.APIKey, s.APIKeyEnv)
	default:
		return Check{Pass: false, Message: fmt.Sprintf("unknown %s provider %q", kind, pc.Name)}
	}
}

func checkKey(inline, env string) Check {
	if config.Secret(inline, env) != "" {
		if strings.TrimSpace(inline) != "" {
			return Check{Pass: true, Message: "api key set inline"}
		}
		return Check{Pass: true, Message: fmt.Sprintf("api key read from $%s", env)}
	}
	if env == "" {
		return Check{Pass: false, Message: "api_key or api_key_env must be set"}
	}
	return Check{Pass: false, Message: fmt.Sprintf("$%s is empty", env)}
}

// checkCommand validates that a command line parses and its binary is on PATH.
func checkCommand(raw string) Check {
	argv, err := config.CommandArgv(raw)
	if err != nil {
		return Check{Pass: false, Message: err.Error()}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return Check{Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", argv[0])}
	}
	return Check{Pass: true, Message: fmt.Sprintf("found at %s", path)}
}

func checkFile(raw string) Check {
	path := config.ExpandUserPath(raw)
	if path == "" {
		return Check{Pass: false, Message: "model_path is empty"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Check{Pass: false, Message: err.Error()}
	}
	if info.IsDir() {
		return Check{Pass: false, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return Check{Pass: true, Message: path}
}

// checkRivaReady waits for the gRPC channel to reach READY.
func checkRivaReady(ctx context.Context, s riva.Settings) Check {
	if s.DialTimeoutMS <= 0 || s.DialTimeoutMS > int(rivaProbeTimeout/time.Millisecond) {
		s.DialTimeoutMS = int(rivaProbeTimeout / time.Millisecond)
	}
	p, err := riva.New(s)
	if err != nil {
		return Check{Pass: false, Message: err.Error()}
	}
	defer p.Close()

	if err := p.Ready(ctx); err != nil {
		return Check{Pass: false, Message: fmt.Sprintf("%s: %v", s.Endpoint, err)}
	}
	return Check{Pass: true, Message: fmt.Sprintf("ready at %s", s.Endpoint)}
}
