// Package config handles configuration loading for vouch. It supports XDG
// config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for vouch.
type Config struct {
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Sandbox     SandboxConfig     `mapstructure:"sandbox"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Corrections CorrectionsConfig `mapstructure:"corrections"`
	History     HistoryConfig     `mapstructure:"history"`
	Feedback    FeedbackConfig    `mapstructure:"feedback"`
	Lint        LintConfig        `mapstructure:"lint"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// Anthropic API.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings for the consensus panel.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SandboxConfig selects and tunes the runtime execution sandbox.
type SandboxConfig struct {
	// Backend is "docker" or "local".
	Backend string `mapstructure:"backend"`
	// Image is the container image for the docker backend.
	Image string `mapstructure:"image"`
	// Host overrides the Docker daemon address.
	Host string `mapstructure:"host"`
	// MemoryLimitMB caps container memory for the docker backend.
	MemoryLimitMB int64 `mapstructure:"memory_limit_mb"`
	// CPUShares sets the container CPU weight for the docker backend.
	CPUShares int64 `mapstructure:"cpu_shares"`
	// CaseTimeout bounds a single test case execution.
	CaseTimeout time.Duration `mapstructure:"case_timeout"`
}

// TimeoutsConfig holds per-stage timeout settings.
type TimeoutsConfig struct {
	Static    time.Duration `mapstructure:"static"`
	Spec      time.Duration `mapstructure:"spec"`
	Runtime   time.Duration `mapstructure:"runtime"`
	Peer      time.Duration `mapstructure:"peer"`
	Consensus time.Duration `mapstructure:"consensus"`
}

// CorrectionsConfig tunes the iterative correction loop.
type CorrectionsConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// HistoryConfig bounds the in-memory verification record.
type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

// FeedbackConfig locates the persistent feedback store.
type FeedbackConfig struct {
	// Enabled toggles persistent feedback recording.
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database file. Empty uses the XDG data directory.
	Path string `mapstructure:"path"`
}

// LintConfig overrides the per-language lint commands. The {file} placeholder
// is replaced with the candidate file path.
type LintConfig struct {
	Commands map[string]string `mapstructure:"commands"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, VOUCH_*)
// 2. Project config (.vouch.yaml in current directory or parent)
// 3. User config (~/.config/vouch/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("VOUCH")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("sandbox.host", "DOCKER_HOST")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("openai.api_key", cfg.OpenAI.APIKey)
	v.Set("openai.model", cfg.OpenAI.Model)
	v.Set("sandbox.backend", cfg.Sandbox.Backend)
	v.Set("sandbox.image", cfg.Sandbox.Image)
	v.Set("sandbox.memory_limit_mb", cfg.Sandbox.MemoryLimitMB)
	v.Set("sandbox.cpu_shares", cfg.Sandbox.CPUShares)
	v.Set("sandbox.case_timeout", cfg.Sandbox.CaseTimeout.String())
	v.Set("timeouts.static", cfg.Timeouts.Static.String())
	v.Set("timeouts.spec", cfg.Timeouts.Spec.String())
	v.Set("timeouts.runtime", cfg.Timeouts.Runtime.String())
	v.Set("timeouts.peer", cfg.Timeouts.Peer.String())
	v.Set("timeouts.consensus", cfg.Timeouts.Consensus.String())
	v.Set("corrections.max_attempts", cfg.Corrections.MaxAttempts)
	v.Set("history.limit", cfg.History.Limit)
	v.Set("feedback.enabled", cfg.Feedback.Enabled)
	v.Set("feedback.path", cfg.Feedback.Path)
	v.Set("log_level", cfg.LogLevel)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// FeedbackDBPath resolves the feedback database location, defaulting to the
// XDG data directory.
func (c *Config) FeedbackDBPath() string {
	if c.Feedback.Path != "" {
		return expandEnv(c.Feedback.Path)
	}
	return filepath.Join(getUserDataDir(), "feedback.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "us-east-1")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("sandbox.backend", "docker")
	v.SetDefault("sandbox.image", "node:20-alpine")
	v.SetDefault("sandbox.memory_limit_mb", 512)
	v.SetDefault("sandbox.cpu_shares", 512)
	v.SetDefault("sandbox.case_timeout", "30s")

	v.SetDefault("timeouts.static", "30s")
	v.SetDefault("timeouts.spec", "1m")
	v.SetDefault("timeouts.runtime", "2m")
	v.SetDefault("timeouts.peer", "1m")
	v.SetDefault("timeouts.consensus", "1m")

	v.SetDefault("corrections.max_attempts", 3)
	v.SetDefault("history.limit", 100)

	v.SetDefault("feedback.enabled", false)
	v.SetDefault("feedback.path", "")

	v.SetDefault("log_level", "info")
}

// getUserConfigDir returns the XDG config directory for vouch.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "vouch")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "vouch")
	}
	return filepath.Join(home, ".config", "vouch")
}

// getUserDataDir returns the XDG data directory for vouch.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "vouch")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "vouch")
	}
	return filepath.Join(home, ".local", "share", "vouch")
}

// findProjectConfig searches for .vouch.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".vouch.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{AWSRegion: "us-east-1"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Sandbox: SandboxConfig{
			Backend:       "docker",
			Image:         "node:20-alpine",
			MemoryLimitMB: 512,
			CPUShares:     512,
			CaseTimeout:   30 * time.Second,
		},
		Timeouts: TimeoutsConfig{
			Static:    30 * time.Second,
			Spec:      time.Minute,
			Runtime:   2 * time.Minute,
			Peer:      time.Minute,
			Consensus: time.Minute,
		},
		Corrections: CorrectionsConfig{MaxAttempts: 3},
		History:     HistoryConfig{Limit: 100},
		LogLevel:    "info",
	}
}
