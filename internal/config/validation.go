// Package config provides configuration management for the Gridiron Analytics service.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// knownPriorityClasses are the cache policy names the key-prefix table understands.
var knownPriorityClasses = map[string]bool{
	"ratings":     true,
	"predictions": true,
	"calibration": true,
	"scratch":     true,
}

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("priorityclasses", validatePriorityClasses)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	default:
		return false
	}
}

// validatePriorityClasses validates that every cache policy name is a known class
func validatePriorityClasses(fl validator.FieldLevel) bool {
	policies, ok := fl.Field().Interface().(map[string]CachePolicyConfig)
	if !ok {
		return false
	}
	for name := range policies {
		if !knownPriorityClasses[name] {
			return false
		}
	}
	return true
}

// validateCrossField performs validations that span multiple fields
func validateCrossField(cfg *Config) error {
	if cfg.Cache.MaxAdaptiveTTLSeconds < cfg.Cache.SweepIntervalSeconds {
		return fmt.Errorf("cache.max_adaptive_ttl_seconds (%d) must not be below cache.sweep_interval_seconds (%d)",
			cfg.Cache.MaxAdaptiveTTLSeconds, cfg.Cache.SweepIntervalSeconds)
	}

	if cfg.Sources.RetryMaxIntervalSeconds*1000 < cfg.Sources.RetryInitialIntervalMs {
		return fmt.Errorf("sources.retry_max_interval_seconds must not be below sources.retry_initial_interval_ms")
	}

	if _, ok := cfg.Cache.Policies["scratch"]; !ok {
		return fmt.Errorf("cache.policies must define the fallback 'scratch' class")
	}

	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s' rule", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
