package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeSettings decodes a free-form provider settings map into a typed struct.
// Keys match field names case-insensitively, ignoring '_' and '-'.
func DecodeSettings(input map[string]any, out any) error {
	if len(input) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode provider settings: %w", err)
	}
	return nil
}

// Secret resolves a credential from an inline value or, failing that, an env var name.
func Secret(inline, envName string) string {
	if v := strings.TrimSpace(inline); v != "" {
		return v
	}
	if envName = strings.TrimSpace(envName); envName == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envName))
}

// ExpandUserPath expands a leading "~" to the current user's home directory.
func ExpandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

// CommandArgv parses a shell-like command string and expands "~" in each argument.
func CommandArgv(raw string) ([]string, error) {
	argv, err := ParseArgv(raw)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command must not be empty")
	}
	for i, arg := range argv {
		argv[i] = ExpandUserPath(arg)
	}
	return argv, nil
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	return strings.ReplaceAll(value, "-", "")
}
