// Package config provides configuration management for the Gridiron Analytics service.
package config

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache" validate:"required"`
	Prediction  PredictionConfig  `mapstructure:"prediction" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Sources     SourcesConfig     `mapstructure:"sources" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Health      HealthConfig      `mapstructure:"health"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// CachePolicyConfig maps one priority class to its TTL default and eviction weight.
type CachePolicyConfig struct {
	DefaultTTLSeconds int     `mapstructure:"default_ttl_seconds" validate:"required,gt=0"`
	Weight            float64 `mapstructure:"weight" validate:"required,gt=0"`
}

// CacheConfig represents adaptive cache configuration
type CacheConfig struct {
	MaxEntries              int                          `mapstructure:"max_entries" validate:"required,gt=0"`
	SweepIntervalSeconds    int                          `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`
	AdaptiveHitThreshold    int                          `mapstructure:"adaptive_hit_threshold" validate:"required,gt=0"`
	AdaptiveExtensionFactor float64                      `mapstructure:"adaptive_extension_factor" validate:"required,gte=1"`
	MaxAdaptiveTTLSeconds   int                          `mapstructure:"max_adaptive_ttl_seconds" validate:"required,gt=0"`
	MinHitRatio             float64                      `mapstructure:"min_hit_ratio" validate:"gte=0,lte=1"`
	MaxMemoryBytes          int64                        `mapstructure:"max_memory_bytes" validate:"required,gt=0"`
	Policies                map[string]CachePolicyConfig `mapstructure:"policies" validate:"required,min=1,priorityclasses"`
}

// PredictionConfig represents prediction engine parameters. The steepness and
// normalization constants are engine tunables, not physical constants.
type PredictionConfig struct {
	HomeFieldAdvantage      float64 `mapstructure:"home_field_advantage" validate:"required,gt=0"`
	ConfidenceSteepness     float64 `mapstructure:"confidence_steepness" validate:"required,gt=0"`
	ConfidenceNormalization float64 `mapstructure:"confidence_normalization" validate:"required,gt=0"`
}

// CalibrationConfig represents calibration analyzer parameters
type CalibrationConfig struct {
	WeeksPerSeason       int     `mapstructure:"weeks_per_season" validate:"required,gt=0"`
	DampingFactor        float64 `mapstructure:"damping_factor" validate:"required,gt=0,lte=1"`
	OverconfidenceMargin float64 `mapstructure:"overconfidence_margin" validate:"required,gt=0"`
	SharpnessThreshold   float64 `mapstructure:"sharpness_threshold" validate:"required,gte=0,lte=100"`
	ReliabilityThreshold float64 `mapstructure:"reliability_threshold" validate:"required,gte=0,lte=100"`
}

// SourcesConfig represents external rating/result source configuration
type SourcesConfig struct {
	RatingsURL              string  `mapstructure:"ratings_url" validate:"required,url"`
	ResultsURL              string  `mapstructure:"results_url" validate:"required,url"`
	StreamURL               string  `mapstructure:"stream_url"`
	APIKey                  string  `mapstructure:"api_key"`
	TimeoutSeconds          int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries              int     `mapstructure:"max_retries" validate:"required,gte=0"`
	RateLimitPerSecond      float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	RetryInitialIntervalMs  int     `mapstructure:"retry_initial_interval_ms" validate:"required,gt=0"`
	RetryMaxIntervalSeconds int     `mapstructure:"retry_max_interval_seconds" validate:"required,gt=0"`
	RetryMaxElapsedSeconds  int     `mapstructure:"retry_max_elapsed_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health server configuration
type HealthConfig struct {
	Port string `mapstructure:"port"`
}

// SchedulerConfig represents scheduled job configuration
type SchedulerConfig struct {
	CalibrationRefreshCron  string `mapstructure:"calibration_refresh_cron"`
	StatsLogIntervalSeconds int    `mapstructure:"stats_log_interval_seconds"`
	Seasons                 []int  `mapstructure:"seasons"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
