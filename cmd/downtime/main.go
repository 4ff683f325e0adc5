package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/downtime/internal/api"
	"github.com/aleister1102/downtime/internal/checker"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/aleister1102/downtime/internal/datastore"
	"github.com/aleister1102/downtime/internal/httpclient"
	"github.com/aleister1102/downtime/internal/logger"
	"github.com/aleister1102/downtime/internal/monitor"
	"github.com/aleister1102/downtime/internal/notifier"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(flags); err != nil {
		log.Fatalf("[FATAL] Main: %v", err)
	}
}

func run(flags AppFlags) error {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] Main: could not read .env file: %v", err)
	}

	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, bootLogger)
	if err != nil {
		return fmt.Errorf("could not load global config: %w", err)
	}
	if err := config.ApplyEnvOverrides(gCfg); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	if flags.WebsitesFile != "" {
		gCfg.StorageConfig.WebsitesFile = flags.WebsitesFile
	}
	if flags.Port != 0 {
		gCfg.ServerConfig.Port = flags.Port
	}
	if err := config.ValidateConfig(gCfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	zLogger.Info().Msg("Logger initialized successfully.")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := datastore.OpenSiteStore(gCfg.StorageConfig, zLogger)
	if err != nil {
		return fmt.Errorf("could not open websites file: %w", err)
	}

	var history monitor.ScanHistory
	if gCfg.SchedulerConfig.HistoryEnabled {
		historyDB, err := datastore.NewScanHistoryDB(gCfg.SchedulerConfig.SQLiteDBPath, zLogger)
		if err != nil {
			return fmt.Errorf("could not open scan history: %w", err)
		}
		defer func() {
			if err := historyDB.Close(); err != nil {
				zLogger.Warn().Err(err).Msg("Failed to close scan history database")
			}
		}()
		history = historyDB
	} else {
		zLogger.Info().Msg("Scan history is disabled in the configuration.")
	}

	client, err := httpclient.NewHTTPClientBuilder(zLogger).
		WithAppConfig(gCfg.HTTPClientConfig).
		ForMonitor(gCfg.MonitorConfig).
		Build()
	if err != nil {
		return fmt.Errorf("could not build HTTP client: %w", err)
	}
	defer client.CloseIdleConnections()

	siteChecker := checker.NewChecker(client, store, gCfg.MonitorConfig.HTTPTimeout(), zLogger)

	var emailNotifier notifier.Notifier
	if gCfg.NotificationConfig.IsConfigured() {
		en, err := notifier.NewEmailNotifier(gCfg.NotificationConfig, zLogger)
		if err != nil {
			return fmt.Errorf("could not initialize email notifier: %w", err)
		}
		emailNotifier = en
	} else {
		zLogger.Warn().Msg("SMTP host, sender or recipients missing. Email notifications are disabled.")
	}
	notificationHelper := notifier.NewNotificationHelper(emailNotifier, gCfg.NotificationConfig, zLogger)

	service := monitor.NewMonitoringService(gCfg.MonitorConfig, store, siteChecker, notificationHelper, history, zLogger)
	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("could not start monitoring service: %w", err)
	}

	server := api.NewServer(gCfg.ServerConfig, service, zLogger)
	serverErrs, err := server.Start()
	if err != nil {
		_ = service.Stop()
		return fmt.Errorf("could not start HTTP server: %w", err)
	}

	zLogger.Info().Int("sites", service.SiteCount()).Str("addr", gCfg.ServerConfig.Address()).Msg("Downtime monitor is running")

	var runErr error
	select {
	case <-ctx.Done():
		zLogger.Info().Msg("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErrs:
		if err != nil {
			runErr = fmt.Errorf("http server error: %w", err)
			zLogger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gCfg.ServerConfig.ShutdownGrace())
	defer shutdownCancel()

	// Stop taking requests first so no add or remove lands after the final flush.
	if err := server.Shutdown(shutdownCtx); err != nil {
		zLogger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := service.Stop(); err != nil && runErr == nil {
		runErr = fmt.Errorf("monitoring service shutdown error: %w", err)
	}

	zLogger.Info().Msg("Application finished.")
	return runErr
}
