// Package config provides configuration management for the Gridiron Analytics service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables prefixed GRIDIRON_ override file values
	v.SetEnvPrefix("GRIDIRON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields, tolerating a missing config file.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("GRIDIRON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gridiron-analytics")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.sweep_interval_seconds", 60)
	v.SetDefault("cache.adaptive_hit_threshold", 5)
	v.SetDefault("cache.adaptive_extension_factor", 1.5)
	v.SetDefault("cache.max_adaptive_ttl_seconds", 3600)
	v.SetDefault("cache.min_hit_ratio", 0.3)
	v.SetDefault("cache.max_memory_bytes", 64*1024*1024)
	v.SetDefault("cache.policies", map[string]interface{}{
		"ratings":     map[string]interface{}{"default_ttl_seconds": 1800, "weight": 3.0},
		"predictions": map[string]interface{}{"default_ttl_seconds": 600, "weight": 2.0},
		"calibration": map[string]interface{}{"default_ttl_seconds": 3600, "weight": 3.0},
		"scratch":     map[string]interface{}{"default_ttl_seconds": 120, "weight": 1.0},
	})

	v.SetDefault("prediction.home_field_advantage", 25.0)
	v.SetDefault("prediction.confidence_steepness", 6.0)
	v.SetDefault("prediction.confidence_normalization", 200.0)

	v.SetDefault("calibration.weeks_per_season", 18)
	v.SetDefault("calibration.damping_factor", 0.5)
	v.SetDefault("calibration.overconfidence_margin", 10.0)
	v.SetDefault("calibration.sharpness_threshold", 30.0)
	v.SetDefault("calibration.reliability_threshold", 70.0)

	v.SetDefault("sources.timeout_seconds", 30)
	v.SetDefault("sources.max_retries", 5)
	v.SetDefault("sources.rate_limit_per_second", 10.0)
	v.SetDefault("sources.retry_initial_interval_ms", 100)
	v.SetDefault("sources.retry_max_interval_seconds", 10)
	v.SetDefault("sources.retry_max_elapsed_seconds", 60)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("health.port", "8080")

	v.SetDefault("scheduler.calibration_refresh_cron", "0 4 * * *")
	v.SetDefault("scheduler.stats_log_interval_seconds", 300)
}
