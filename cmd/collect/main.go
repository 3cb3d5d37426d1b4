package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"binanceDataCollector/config"
	"binanceDataCollector/internal/adapters/binanceclient"
	"binanceDataCollector/internal/adapters/logger"
	"binanceDataCollector/internal/adapters/sqlite"
	"binanceDataCollector/internal/adapters/visionclient"
	"binanceDataCollector/internal/app"
	"binanceDataCollector/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 3. Initialize the archive source (Binance Vision adapter)
	visionClient, err := visionclient.New(visionclient.Config{
		BaseURL:      cfg.VisionBaseURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		RequestPause: cfg.RequestPause,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance Vision client")
		log.Fatalf("FATAL: Failed to initialize Binance Vision client: %v", err)
	}

	// 4. Optional: spot REST client for the current-month tail
	var exchange ports.ExchangeClient
	if cfg.TailFill {
		spotClient, err := binanceclient.New(binanceclient.Config{
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
			Logger:    appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance spot client")
			log.Fatalf("FATAL: Failed to initialize Binance spot client: %v", err)
		}
		exchange = spotClient
	}

	// 5. Optional: run history repository
	var runRepo ports.RunRepository
	if cfg.DBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize run repository")
			log.Fatalf("FATAL: Failed to initialize run repository: %v", err)
		}
		defer repo.Close()
		runRepo = repo
	}

	// 6. Wire the collector and run it
	service, err := app.NewCollectorService(cfg, appLogger, visionClient, exchange, runRepo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize collector service")
		log.Fatalf("FATAL: Failed to initialize collector service: %v", err)
	}

	results, err := service.Run(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Collection aborted")
		log.Fatalf("Collection aborted: %v", err)
	}

	for _, res := range results {
		appLogger.Info(ctx, "Dataset ready", map[string]interface{}{
			"symbol":   res.Symbol,
			"interval": res.Interval,
			"rows":     res.RowsRetained,
			"output":   res.OutputPath,
		})
	}
	appLogger.Info(ctx, "All symbols processed", map[string]interface{}{"datasets": len(results)})
}
