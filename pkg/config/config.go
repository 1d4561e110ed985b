// Package config loads server settings from an optional YAML file with
// environment overrides. API keys stay in the environment only.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string `yaml:"addr"`
	Provider     string `yaml:"provider"` // openai, gemini, grok, stub
	Model        string `yaml:"model"`
	PromptDir    string `yaml:"prompt_dir"`
	LogDir       string `yaml:"log_dir"`
	Database     string `yaml:"database"`
	ProgressFile string `yaml:"progress_file"`
	Stub         bool   `yaml:"stub"`
}

func Default() Config {
	return Config{
		Addr:         ":5002",
		Provider:     "openai",
		PromptDir:    "prompts",
		LogDir:       "logs",
		Database:     "worldweaver.sqlite",
		ProgressFile: "progress.json",
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults plus environment overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if provider := os.Getenv("WORLDWEAVER_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	if model := os.Getenv("WORLDWEAVER_MODEL"); model != "" {
		c.Model = model
	}
	if dir := os.Getenv("WORLDWEAVER_PROMPT_DIR"); dir != "" {
		c.PromptDir = dir
	}
	if dir := os.Getenv("WORLDWEAVER_LOG_DIR"); dir != "" {
		c.LogDir = dir
	}
}
