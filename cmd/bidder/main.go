package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adxyz/bidder/pkg/analytics"
	"github.com/adxyz/bidder/pkg/bidder"
	"github.com/adxyz/bidder/pkg/ctr"
	"github.com/adxyz/bidder/pkg/log"
	"github.com/adxyz/bidder/pkg/metric"
	"github.com/adxyz/bidder/pkg/server"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	// .env is optional; flags and defaults cover everything it can set
	_ = godotenv.Load()

	var (
		strategyName = flag.String("strategy", envOr("BIDDER_STRATEGY", "balanced"), "Bidding strategy (conservative/aggressive/balanced)")
		port         = flag.String("port", envOr("BIDDER_PORT", "8080"), "HTTP server port")
		modelPath    = flag.String("model", envOr("BIDDER_MODEL", "ctr_model.json"), "CTR model artifact path")
		dbPath       = flag.String("db", envOr("BIDDER_DB", ""), "Analytics SQLite path (empty = <strategy>_bidder.db, 'off' disables)")
		env          = flag.String("env", envOr("BIDDER_ENV", "development"), "Environment (development/production)")
		logLevel     = flag.String("log-level", envOr("BIDDER_LOG_LEVEL", "info"), "Log level")
		version      = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("adxyz bidder %s (commit: %s)\n", Version, GitCommit)
		os.Exit(0)
	}

	logger := log.NewWithLevel(*logLevel)
	defer logger.Sync()

	strategy, err := bidder.StrategyByName(*strategyName)
	if err != nil {
		logger.Error("invalid strategy", "error", err)
		os.Exit(1)
	}

	model, err := ctr.LoadOrTrain(*modelPath, ctr.DefaultTrainConfig(), logger)
	if err != nil {
		logger.Error("failed to load ctr model", "path", *modelPath, "error", err)
		os.Exit(1)
	}

	var recorder *analytics.Recorder
	if *dbPath != "off" {
		path := *dbPath
		if path == "" {
			path = *strategyName + "_bidder.db"
		}
		recorder, err = analytics.Open(path, logger)
		if err != nil {
			// Analytics is best-effort; the bidder runs without it
			logger.Warn("analytics disabled", "path", path, "error", err)
		} else {
			defer recorder.Close()
		}
	}

	metrics := metric.New(*strategyName)

	var rec bidder.Recorder
	if recorder != nil {
		rec = recorder
	}
	engine := bidder.NewEngine(strategy, model, metrics, rec, logger)

	srv := &http.Server{
		Addr:    ":" + *port,
		Handler: server.New(engine, metrics, recorder, logger).Router(*env),
	}

	go func() {
		logger.Info("bidder started",
			"bidder", strategy.ID,
			"strategy", *strategyName,
			"port", *port,
			"target_country", strategy.TargetCountry,
			"target_devices", strategy.TargetDevices,
			"target_os", strategy.TargetOS,
			"min_bid_price", strategy.MinBidPrice,
			"daily_budget", strategy.DailyBudget,
			"bid_window", fmt.Sprintf("%d:00-%d:00", strategy.WindowStart, strategy.WindowEnd))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
