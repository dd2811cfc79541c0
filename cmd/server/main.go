// Package main provides the entry point for the analytics server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridiron-analytics/internal/cache"
	"github.com/yourusername/gridiron-analytics/internal/calibration"
	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/datasource"
	"github.com/yourusername/gridiron-analytics/internal/health"
	"github.com/yourusername/gridiron-analytics/internal/logger"
	"github.com/yourusername/gridiron-analytics/internal/metrics"
	"github.com/yourusername/gridiron-analytics/internal/prediction"
	"github.com/yourusername/gridiron-analytics/internal/scheduler"
	"github.com/yourusername/gridiron-analytics/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "gridiron-server",
	Short: "Run the gridiron analytics prediction service",
	Long:  `Serves game predictions with calibration-adjusted confidence, backed by an adaptive cache over external rating and result sources.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runServer() error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Gridiron Analytics server starting")

	metrics.InitRegistry()

	auditLog := logger.NewAuditLogger(appLog)

	adaptiveCache := cache.New(&cfg.Cache, appLog)
	adaptiveCache.SetEvictionAuditor(auditLog)
	adaptiveCache.Start()
	defer adaptiveCache.Stop()

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

	engine := prediction.NewEngine(prediction.ParamsFromConfig(&cfg.Prediction), appLog)
	cachedEngine := prediction.NewCachedEngine(engine, adaptiveCache, appLog)

	analyzer := calibration.NewAnalyzer(fetcher, calibration.NewReportStore(),
		calibration.ParamsFromConfig(&cfg.Calibration), appLog)

	analytics := service.NewAnalyticsService(fetcher, cachedEngine, analyzer,
		auditLog, appLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	// Health endpoint
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		Cache:       adaptiveCache,
		Sources: map[string]health.SourcePinger{
			"ratings": ratingSource,
			"results": resultSource,
		},
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	// Scheduled jobs
	sched := scheduler.NewScheduler(analytics, adaptiveCache, appLog)
	if cfg.Scheduler.CalibrationRefreshCron != "" && len(cfg.Scheduler.Seasons) > 0 {
		if err := sched.ScheduleCalibrationRefresh(cfg.Scheduler.CalibrationRefreshCron, cfg.Scheduler.Seasons); err != nil {
			return fmt.Errorf("failed to schedule calibration refresh: %w", err)
		}
	}
	if cfg.Scheduler.StatsLogIntervalSeconds > 0 {
		if err := sched.ScheduleStatsLogging(cfg.Scheduler.StatsLogIntervalSeconds); err != nil {
			return fmt.Errorf("failed to schedule stats logging: %w", err)
		}
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Warn("Scheduler not started")
	} else {
		defer sched.Stop()
	}

	// Live score feed
	var stream *datasource.ScoreStream
	if cfg.Sources.StreamURL != "" {
		stream = datasource.NewScoreStream(cfg.Sources.StreamURL, cfg.Sources.APIKey, appLog)
		stream.OnGameFinal(analytics.HandleGameFinal)
		if err := stream.Connect(ctx); err != nil {
			appLog.WithError(err).Warn("Score stream unavailable, continuing without live invalidation")
		} else {
			defer stream.Close()
		}
	}

	healthServer.SetReady(true)
	appLog.Info("Gridiron Analytics server ready")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")

	healthServer.SetReady(false)
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Metrics server shutdown error")
		}
	}

	appLog.Info("Gridiron Analytics server stopped")
	return nil
}
