package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configFileName = "config.jsonc"

// ResolvePath picks the config file: the --config value first, then
// $XDG_CONFIG_HOME/hark, then ~/.config/hark.
func ResolvePath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return ExpandUserPath(p), nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hark", configFileName), nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}
