package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"AttendOK/config"
	"AttendOK/internal/schedule"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/snowflake"
	"AttendOK/pkg/terminal"
	"AttendOK/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	if err := terminal.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize terminal client for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", "attendok-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	runDeviceSyncLoop(ctx)

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runDeviceSyncLoop 按配置的间隔轮询设备池
// development 环境下缩短为 1 分钟方便本地调试
func runDeviceSyncLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	interval := time.Duration(config.Cfg.DeviceSyncIntervalMins) * time.Minute
	if config.Cfg.Environment == "development" {
		interval = 1 * time.Minute
		logger.Logger.Info("Device sync loop running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Logger.Info("Device sync loop started",
		zap.Duration("interval", interval),
	)

	// 启动后先跑一轮，不等第一个 tick
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	if err := s.RunDeviceSync(runCtx); err != nil {
		logger.Logger.Error("Initial device sync run failed", zap.Error(err))
	}
	cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			if err := s.RunDeviceSync(runCtx); err != nil {
				logger.Logger.Error("Device sync run failed", zap.Error(err))
			}
			cancel()
		}
	}
}
