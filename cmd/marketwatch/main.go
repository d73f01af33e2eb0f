// Package main is the entry point for the marketwatch engine: it loads
// configuration, wires the indicator kernel, strategy registry, group model,
// orchestrator, periodic scheduler and admin server together, and runs until
// a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketpulse/engine/internal/adminserver"
	"github.com/marketpulse/engine/internal/alertbus"
	"github.com/marketpulse/engine/internal/config"
	"github.com/marketpulse/engine/internal/history"
	"github.com/marketpulse/engine/internal/indicators"
	"github.com/marketpulse/engine/internal/marketdata"
	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/internal/orchestrator"
	"github.com/marketpulse/engine/internal/scheduler"
	"github.com/marketpulse/engine/internal/strategy"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional; env vars and defaults apply regardless)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := setupLogger(cfg.Logging.Level)
	defer logger.Sync()

	logger.Info("starting marketwatch",
		zap.String("data_dir", cfg.DataDir),
		zap.String("admin_addr", cfg.Admin.Addr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := model.NewStore(logger, cfg.DataDir)
	if err != nil {
		logger.Fatal("failed to open group/symbol store", zap.Error(err))
	}

	registry := strategy.NewRegistry(logger)
	kernel := indicators.New(logger)
	provider := marketdata.New(logger, marketdata.Config{RootDir: cfg.DataDir + "/marketdata"})
	orch := orchestrator.New(logger, provider, kernel, registry)
	bus := alertbus.New(logger)

	historySink := history.NewSink(logger, cfg.DataDir)
	bus.Subscribe(historySink.OnAlert)

	sched := scheduler.New(logger, store, orch, bus, cfg.DataDir, scheduler.Config{
		FailureThreshold: cfg.Scheduler.FailureThreshold,
		BackoffCap:       cfg.Scheduler.BackoffCap,
		DailyCap:         cfg.Scheduler.DailyAlertCap,
		MaxWorkers:       cfg.Scheduler.MaxWorkers,
		TickInterval:     cfg.Scheduler.TickInterval,
	})

	admin := adminserver.New(logger, adminserver.Config{Addr: cfg.Admin.Addr}, store, registry, sched, bus)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := sched.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	if cfg.Admin.Enabled {
		admin.Start(func(err error) {
			logger.Error("admin server error", zap.Error(err))
		})
	}

	logger.Info("marketwatch started")

	<-sigChan
	logger.Info("shutdown signal received")

	cancel()

	if err := sched.Stop(); err != nil {
		logger.Error("error stopping scheduler", zap.Error(err))
	}

	if cfg.Admin.Enabled {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := admin.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping admin server", zap.Error(err))
		}
		shutdownCancel()
	}

	logger.Info("marketwatch stopped")
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
