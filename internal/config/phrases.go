package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type phraseFile struct {
	Phrases []string `yaml:"phrases"`
}

// LoadPhraseFile reads a YAML document of the form `phrases: [...]`.
func LoadPhraseFile(path string) ([]string, error) {
	data, err := os.ReadFile(ExpandUserPath(path))
	if err != nil {
		return nil, fmt.Errorf("read phrase file %q: %w", path, err)
	}

	var doc phraseFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse phrase file %q: %w", path, err)
	}

	out := make([]string, 0, len(doc.Phrases))
	for _, phrase := range doc.Phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		out = append(out, phrase)
	}
	return out, nil
}
