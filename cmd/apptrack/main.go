package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"apptrack/internal/config"
	"apptrack/internal/httpserver"
	"apptrack/internal/repository"
	"apptrack/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	vocab := cfg.Vocabulary()
	manager := repository.NewManager(cfg.DataDir, vocab, cfg.Cycles)
	metrics := service.NewMetricsService(manager, vocab)
	handler := httpserver.NewHandler(manager, metrics, vocab, logger)
	server := httpserver.New(cfg.ListenAddr, handler, logger)

	if cfg.Telegram.Token != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal("telegram", zap.Error(err))
		}
		digest := service.NewDigestService(manager, vocab, bot, cfg.Telegram.ChatID, cfg.DefaultCycle, logger)

		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleSpec(cfg.DigestSpec, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := digest.SendDigests(jobCtx); err != nil {
				logger.Warn("digest run failed", zap.Error(err))
			}
		}); err != nil {
			logger.Fatal("schedule digest", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server stopped with error", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.LogPretty {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
