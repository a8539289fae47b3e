package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup from the YAML file, then overridden by
// MINDLOOM_* environment variables. A missing file means defaults.
type Config struct {
	ServerURL     string `yaml:"server_url"`
	ChatID        string `yaml:"chat_id"`
	RoomID        string `yaml:"room_id"`
	CSRFToken     string `yaml:"csrf_token"`
	MapSize       string `yaml:"map_size"`
	Confirmations bool   `yaml:"confirmations"`
	ExportDir     string `yaml:"export_dir"`
	HistoryPath   string `yaml:"history_path"`
}

// Size multipliers deliberately exceed the exact-fit scale for visual
// emphasis.
var sizeMultipliers = map[string]float64{
	"small":  1.4,
	"medium": 1.5,
	"large":  1.6,
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ServerURL:     "http://localhost:8000",
		MapSize:       "medium",
		Confirmations: true,
		HistoryPath:   filepath.Join(home, ".local", "share", "mindloom", "history.db"),
	}
}

func configPath() string {
	if p := os.Getenv("MINDLOOM_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mindloom", "config.yaml")
}

func loadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := configPath(); path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if uerr := yaml.Unmarshal(raw, cfg); uerr != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, uerr)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if _, ok := sizeMultipliers[cfg.MapSize]; !ok {
		cfg.MapSize = "medium"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		"MINDLOOM_SERVER_URL": &cfg.ServerURL,
		"MINDLOOM_CHAT_ID":    &cfg.ChatID,
		"MINDLOOM_ROOM_ID":    &cfg.RoomID,
		"MINDLOOM_CSRF_TOKEN": &cfg.CSRFToken,
		"MINDLOOM_MAP_SIZE":   &cfg.MapSize,
		"MINDLOOM_EXPORT_DIR": &cfg.ExportDir,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// SizeMultiplier maps the configured map size to its fit multiplier.
func (c *Config) SizeMultiplier() float64 {
	if m, ok := sizeMultipliers[c.MapSize]; ok {
		return m
	}
	return sizeMultipliers["medium"]
}

// ExportPath places an export file in the configured directory, creating it
// on demand.
func (c *Config) ExportPath(filename string) string {
	if c.ExportDir == "" {
		return filename
	}
	os.MkdirAll(c.ExportDir, 0755)
	return filepath.Join(c.ExportDir, filename)
}
