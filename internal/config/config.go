// Package config loads SDD-Recall configuration from an optional YAML
// file and environment variables. Environment variables win over the
// file, the file wins over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// EmbeddingConfig points at the Ollama-compatible embedding endpoint.
type EmbeddingConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RetrievalConfig sets per-collection limits for context bundles.
type RetrievalConfig struct {
	SectionLimit int `yaml:"section_limit"`
	JournalLimit int `yaml:"journal_limit"`
	SessionLimit int `yaml:"session_limit"`
}

// WatchConfig controls the checklist file watcher.
type WatchConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Paths      []string `yaml:"paths"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// Load reads configuration from an optional YAML file and environment
// variables. The file path comes from RECALL_CONFIG, falling back to
// <data dir>/config.yaml; a missing file is not an error.
func Load() (Config, error) {
	home, _ := os.UserHomeDir()
	cfg := Config{
		DataDir: filepath.Join(home, ".recall"),
		Embedding: EmbeddingConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "nomic-embed-text",
			Dimensions:     768,
			TimeoutSeconds: 30,
		},
		Retrieval: RetrievalConfig{
			SectionLimit: 5,
			JournalLimit: 3,
			SessionLimit: 5,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}

	path := os.Getenv("RECALL_CONFIG")
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dir := os.Getenv("RECALL_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if url := os.Getenv("RECALL_EMBED_URL"); url != "" {
		cfg.Embedding.BaseURL = url
	}
	if model := os.Getenv("RECALL_EMBED_MODEL"); model != "" {
		cfg.Embedding.Model = model
	}
	if dimsStr := os.Getenv("RECALL_EMBED_DIMENSIONS"); dimsStr != "" {
		dims, err := strconv.Atoi(dimsStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RECALL_EMBED_DIMENSIONS: %w", err)
		}
		cfg.Embedding.Dimensions = dims
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
