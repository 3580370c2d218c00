package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"AttendOK/config"
	"AttendOK/internal/queue"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/snowflake"
	"AttendOK/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 声明交换机、队列和绑定，消费前确保拓扑存在
	if err := queue.EnsureTopology(); err != nil {
		logger.Logger.Fatal("Failed to ensure MQ topology", zap.Error(err))
	}

	logger.Logger.Info("Worker service starting",
		zap.String("service", "attendok-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	if err := queue.StartNotificationConsumer(ctx); err != nil {
		logger.Logger.Error("Notification consumer exited with error", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
