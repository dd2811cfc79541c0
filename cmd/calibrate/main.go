// Package main provides a one-shot calibration report generator.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/gridiron-analytics/internal/cache"
	"github.com/yourusername/gridiron-analytics/internal/calibration"
	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/datasource"
	"github.com/yourusername/gridiron-analytics/internal/logger"
)

var (
	configFile string
	season     int
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().IntVarP(&season, "season", "s", 0, "Season to calibrate (required)")
	rootCmd.MarkFlagRequired("season")
}

var rootCmd = &cobra.Command{
	Use:   "gridiron-calibrate",
	Short: "Run a one-shot calibration analysis for a season",
	Long:  `Fetches the season's resolved predictions, computes the calibration report, and writes it as JSON to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalibration()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runCalibration() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.SetOutput(os.Stderr)

	adaptiveCache := cache.New(&cfg.Cache, appLog)

	httpClient := datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfig{
		Timeout:           time.Duration(cfg.Sources.TimeoutSeconds) * time.Second,
		MaxRetries:        cfg.Sources.MaxRetries,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         cfg.Sources.RateLimitPerSecond,
		CircuitBreakerMax: 5,
	}, appLog)
	defer httpClient.Close()

	ratingSource := datasource.NewHTTPRatingSource(httpClient, cfg.Sources.RatingsURL, cfg.Sources.APIKey, appLog)
	resultSource := datasource.NewHTTPResultSource(httpClient, cfg.Sources.ResultsURL, cfg.Sources.APIKey, appLog)
	fetcher := datasource.NewFetcher(ratingSource, resultSource, adaptiveCache,
		datasource.RetryConfigFromConfig(&cfg.Sources), appLog)

	analyzer := calibration.NewAnalyzer(fetcher, calibration.NewReportStore(),
		calibration.ParamsFromConfig(&cfg.Calibration), appLog)

	report, err := analyzer.Calibrate(context.Background(), season)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
