// Package config loads the optional YAML settings file. Everything has
// a default; a missing file is not an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable editor and history settings. Shell
// variables (WREN_PROMPT and friends) override these at runtime.
type Config struct {
	// Prompt is the primary prompt template.
	Prompt string `yaml:"prompt"`
	// ContinuationPrompt is shown while a command is incomplete.
	ContinuationPrompt string `yaml:"continuation_prompt"`
	// Editor selects the line editor: "rich" or "minimal".
	Editor string `yaml:"editor"`
	// HistorySize caps how many entries the editor loads.
	HistorySize int `yaml:"history_size"`
	// HistoryDedup collapses consecutive duplicate commands.
	HistoryDedup *bool `yaml:"history_dedup"`
	// MenuRows caps the completion menu height.
	MenuRows int `yaml:"menu_rows"`
}

func Default() Config {
	dedup := true
	return Config{
		Prompt:             "wren$ ",
		ContinuationPrompt: "> ",
		Editor:             "rich",
		HistorySize:        1000,
		HistoryDedup:       &dedup,
		MenuRows:           8,
	}
}

// Load reads the config file at path, layering it over the defaults.
// A missing file returns the defaults; a malformed one is an error so
// typos do not silently revert settings.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Editor {
	case "rich", "minimal":
	default:
		return fmt.Errorf("invalid editor %q (want rich or minimal)", c.Editor)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative")
	}
	if c.MenuRows < 1 {
		return fmt.Errorf("menu_rows must be at least 1")
	}
	return nil
}

// DedupEnabled resolves the optional dedup flag.
func (c Config) DedupEnabled() bool {
	return c.HistoryDedup == nil || *c.HistoryDedup
}
