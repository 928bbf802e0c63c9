// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"luxsync/internal/section"
)

type cueFile struct {
	Cues section.CueSheet `yaml:"cues"`
}

// LoadCueSheet reads a YAML cue sheet:
//
//	cues:
//	  - { at: 0s, label: intro }
//	  - { at: 32s, label: buildup }
//	  - { at: 48s, label: drop }
func LoadCueSheet(path string) (section.CueSheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cue sheet: %w", err)
	}
	var f cueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse cue sheet: %w", err)
	}
	if err := f.Cues.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cue sheet %s: %w", path, err)
	}
	return f.Cues, nil
}
