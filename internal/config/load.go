package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is the outcome of Load. Warnings are non-fatal and meant for the
// user; Exists is false when defaults were used because no file was found.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config file selected by ResolvePath. A missing file is not
// an error. Phrases from conversation.fallback_phrases_file are appended to
// the inline fallback phrases.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	out := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		out.Warnings = append(out.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return out, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}
	out.Exists = true

	if out.Config, out.Warnings, err = Parse(string(content), out.Config); err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := mergePhraseFile(&out.Config.Conversation); err != nil {
		return Loaded{}, err
	}
	return out, nil
}

func mergePhraseFile(cfg *ConversationConfig) error {
	if cfg.FallbackPhrasesFile == "" {
		return nil
	}
	extra, err := LoadPhraseFile(cfg.FallbackPhrasesFile)
	if err != nil {
		return err
	}
	cfg.FallbackPhrases = append(cfg.FallbackPhrases, extra...)
	return nil
}
