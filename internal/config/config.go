package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrCreated is returned by Ensure when it had to write a fresh config file.
// The caller should tell the user to fill in the API key and stop.
var ErrCreated = errors.New("configuration file created")

// Config holds all gptxt configuration.
type Config struct {
	// Completion provider
	LLM LLMConfig `yaml:"llm"`

	// Candidate scripts
	Script ScriptConfig `yaml:"script"`

	// Terminal presentation
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// ScriptConfig configures how candidates are written and edited.
type ScriptConfig struct {
	Language string `yaml:"language"` // lua, go
	Editor   string `yaml:"editor"`   // empty = $VISUAL, $EDITOR, vi
}

// UIConfig configures the diagnostic stream.
type UIConfig struct {
	Highlight bool `yaml:"highlight"` // syntax-highlight candidates on a terminal
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	File       string          `yaml:"file"`  // empty = gptxt.log next to the config file
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/gptxt/config.yaml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to find config directory: %w", err)
	}
	return filepath.Join(dir, "gptxt", "config.yaml"), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "120s",
		},
		Script: ScriptConfig{
			Language: "lua",
		},
		UI: UIConfig{
			Highlight: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Ensure makes sure a config file exists at path. When it does not, the
// default configuration is written there and ErrCreated is returned.
func Ensure(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := DefaultConfig().Save(path); err != nil {
		return err
	}
	return ErrCreated
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file holds an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (check in priority order)
	for _, name := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "GPTXT_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.LLM.APIKey = key
		}
	}
	if model := os.Getenv("GPTXT_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if editor := os.Getenv("GPTXT_EDITOR"); editor != "" {
		c.Script.Editor = editor
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("the 'llm.api_key' value is not set (or set GPTXT_API_KEY / GEMINI_API_KEY)")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("the 'llm.model' value is empty")
	}
	switch strings.ToLower(c.Script.Language) {
	case "", "lua", "go", "golang":
	default:
		return fmt.Errorf("invalid script language: %s (valid: lua, go)", c.Script.Language)
	}
	return nil
}

// GetTimeout returns the completion timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LogFile returns the configured log file, defaulting to gptxt.log beside the
// config file at configPath.
func (c *Config) LogFile(configPath string) string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(filepath.Dir(configPath), "gptxt.log")
}
