// Package config loads calculator settings from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fjl/decicalc/internal/logger"
	"github.com/fjl/decicalc/internal/mathexpr"
)

const appName = "decicalc"

// Upper bounds of the numeric settings.
const (
	MaxMaxLength     = 1000
	MaxDivisionScale = 1000
)

// Config represents application configuration
type Config struct {
	MaxLength     int    `json:"max_length"`
	Rounding      string `json:"rounding"` // half_even or half_up
	DivisionScale int    `json:"division_scale"`
	HistoryDir    string `json:"history_dir"`
	HistoryLimit  int    `json:"history_limit"`
	LogLevel      string `json:"log_level"` // debug, info, warn, error, none
	LogPath       string `json:"log_path"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", appName)
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
	default:
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "state", appName)
}

// DefaultPath returns the location of the configuration file.
func DefaultPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	stateDir := defaultStateDir()
	return &Config{
		MaxLength:     15,
		Rounding:      mathexpr.RoundHalfEven.String(),
		DivisionScale: mathexpr.DefaultDivisionScale,
		HistoryDir:    filepath.Join(stateDir, "history"),
		HistoryLimit:  100,
		LogLevel:      "info",
		LogPath:       filepath.Join(stateDir, appName+".log"),
	}
}

// Load loads configuration from file. A missing file yields the defaults;
// fields absent from the file keep their default value.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// Explicitly emptied fields fall back to defaults.
	def := DefaultConfig()
	if config.HistoryDir == "" {
		config.HistoryDir = def.HistoryDir
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.DivisionScale == 0 {
		config.DivisionScale = def.DivisionScale
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if c.MaxLength < 1 || c.MaxLength > MaxMaxLength {
		return fmt.Errorf("max_length must be between 1 and %d, got %d", MaxMaxLength, c.MaxLength)
	}
	if c.DivisionScale < 0 || c.DivisionScale > MaxDivisionScale {
		return fmt.Errorf("division_scale must be between 0 and %d, got %d", MaxDivisionScale, c.DivisionScale)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit)
	}
	if _, err := mathexpr.ParseRounding(c.Rounding); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// EvaluatorOptions converts the evaluation settings.
// The configuration must be valid.
func (c *Config) EvaluatorOptions() mathexpr.Options {
	rounding, _ := mathexpr.ParseRounding(c.Rounding)
	return mathexpr.Options{
		MaxLength:     c.MaxLength,
		Rounding:      rounding,
		DivisionScale: int32(c.DivisionScale),
	}
}
