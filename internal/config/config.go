package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"go-markdown-preview/internal/render"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "GO_MARKDOWN_PREVIEW_CONFIG"

// Theme values.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr       string         `yaml:"addr"`
	DebounceMS int            `yaml:"debounce_ms"`
	Extensions []string       `yaml:"extensions"`
	Theme      string         `yaml:"theme"`
	LogFile    string         `yaml:"log_file"`
	Renderer   RendererConfig `yaml:"renderer"`
}

type RendererConfig struct {
	Engine     string `yaml:"engine"`
	Sanitize   bool   `yaml:"sanitize"`
	Mermaid    bool   `yaml:"mermaid"`
	LightStyle string `yaml:"light_style"`
	DarkStyle  string `yaml:"dark_style"`
}

func Default() *Config {
	return &Config{
		Addr:       "127.0.0.1:7777",
		DebounceMS: 250,
		Extensions: []string{".md", ".markdown", ".mdown", ".mkd", ".mkdown"},
		Theme:      ThemeAuto,
		Renderer: RendererConfig{
			Engine:     render.EngineGoldmark,
			LightStyle: render.DefaultLightStyle,
			DarkStyle:  render.DefaultDarkStyle,
		},
	}
}

// Debounce returns the render debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	}
	if c.DebounceMS <= 0 {
		return fmt.Errorf("%w: debounce_ms must be positive, got %d", ErrInvalidConfig, c.DebounceMS)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: extensions is empty", ErrInvalidConfig)
	}
	switch c.Theme {
	case ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidConfig, c.Theme)
	}
	switch c.Renderer.Engine {
	case render.EngineGoldmark, render.EngineBlackfriday, render.EngineFallback:
	default:
		return fmt.Errorf("%w: unknown renderer.engine %q", ErrInvalidConfig, c.Renderer.Engine)
	}
	return nil
}

// Load reads the configuration file. A missing file yields Default.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile writes cfg as YAML, creating the directory if needed.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path returns $GO_MARKDOWN_PREVIEW_CONFIG, or
// ~/.config/go-markdown-preview/config.yaml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-markdown-preview", "config.yaml"), nil
}
