package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdictproj/vouch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify vouch configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/vouch/config.yaml
Project-specific overrides can be placed in .vouch.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orUnset(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("openai.api_key: %s\n", config.MaskAPIKey(cfg.OpenAI.APIKey))
	fmt.Printf("openai.model: %s\n", cfg.OpenAI.Model)
	fmt.Printf("sandbox.backend: %s\n", cfg.Sandbox.Backend)
	fmt.Printf("sandbox.image: %s\n", cfg.Sandbox.Image)
	fmt.Printf("sandbox.memory_limit_mb: %d\n", cfg.Sandbox.MemoryLimitMB)
	fmt.Printf("sandbox.case_timeout: %s\n", cfg.Sandbox.CaseTimeout)
	fmt.Printf("timeouts.static: %s\n", cfg.Timeouts.Static)
	fmt.Printf("timeouts.spec: %s\n", cfg.Timeouts.Spec)
	fmt.Printf("timeouts.runtime: %s\n", cfg.Timeouts.Runtime)
	fmt.Printf("timeouts.peer: %s\n", cfg.Timeouts.Peer)
	fmt.Printf("timeouts.consensus: %s\n", cfg.Timeouts.Consensus)
	fmt.Printf("corrections.max_attempts: %d\n", cfg.Corrections.MaxAttempts)
	fmt.Printf("history.limit: %d\n", cfg.History.Limit)
	fmt.Printf("feedback.enabled: %t\n", cfg.Feedback.Enabled)
	fmt.Printf("feedback.path: %s\n", orUnset(cfg.Feedback.Path))
	fmt.Printf("log_level: %s\n", cfg.LogLevel)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orUnset(cfg.Anthropic.Model), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "openai.api_key":
		return config.MaskAPIKey(cfg.OpenAI.APIKey), nil
	case "openai.model":
		return cfg.OpenAI.Model, nil
	case "sandbox.backend":
		return cfg.Sandbox.Backend, nil
	case "sandbox.image":
		return cfg.Sandbox.Image, nil
	case "sandbox.memory_limit_mb":
		return strconv.FormatInt(cfg.Sandbox.MemoryLimitMB, 10), nil
	case "sandbox.case_timeout":
		return cfg.Sandbox.CaseTimeout.String(), nil
	case "timeouts.static":
		return cfg.Timeouts.Static.String(), nil
	case "timeouts.spec":
		return cfg.Timeouts.Spec.String(), nil
	case "timeouts.runtime":
		return cfg.Timeouts.Runtime.String(), nil
	case "timeouts.peer":
		return cfg.Timeouts.Peer.String(), nil
	case "timeouts.consensus":
		return cfg.Timeouts.Consensus.String(), nil
	case "corrections.max_attempts":
		return strconv.Itoa(cfg.Corrections.MaxAttempts), nil
	case "history.limit":
		return strconv.Itoa(cfg.History.Limit), nil
	case "feedback.enabled":
		return strconv.FormatBool(cfg.Feedback.Enabled), nil
	case "feedback.path":
		return orUnset(cfg.Feedback.Path), nil
	case "log_level":
		return cfg.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "openai.api_key":
		cfg.OpenAI.APIKey = value
	case "openai.model":
		cfg.OpenAI.Model = value
	case "sandbox.backend":
		if value != "docker" && value != "local" {
			return fmt.Errorf("sandbox.backend must be docker or local")
		}
		cfg.Sandbox.Backend = value
	case "sandbox.image":
		cfg.Sandbox.Image = value
	case "sandbox.memory_limit_mb":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for memory_limit_mb: %w", err)
		}
		cfg.Sandbox.MemoryLimitMB = n
	case "sandbox.case_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for case_timeout: %w", err)
		}
		cfg.Sandbox.CaseTimeout = d
	case "timeouts.static", "timeouts.spec", "timeouts.runtime", "timeouts.peer", "timeouts.consensus":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		switch strings.TrimPrefix(strings.ToLower(key), "timeouts.") {
		case "static":
			cfg.Timeouts.Static = d
		case "spec":
			cfg.Timeouts.Spec = d
		case "runtime":
			cfg.Timeouts.Runtime = d
		case "peer":
			cfg.Timeouts.Peer = d
		case "consensus":
			cfg.Timeouts.Consensus = d
		}
	case "corrections.max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_attempts: %w", err)
		}
		cfg.Corrections.MaxAttempts = n
	case "history.limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for history.limit: %w", err)
		}
		cfg.History.Limit = n
	case "feedback.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for feedback.enabled: %w", err)
		}
		cfg.Feedback.Enabled = b
	case "feedback.path":
		cfg.Feedback.Path = value
	case "log_level":
		cfg.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
