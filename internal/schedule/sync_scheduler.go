package schedule

// 同步调度器：按配置的间隔轮询设备池，拉取增量打卡并合并考勤

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"AttendOK/internal/service"
	"AttendOK/pkg/logger"
)

var (
	schedulerOnce sync.Once
	schedulerInst *SyncScheduler
)

type SyncScheduler struct {
	logger      *zap.Logger
	runMu       sync.Mutex
	running     bool
	lastRunTime time.Time
}

func GetScheduler() *SyncScheduler {
	schedulerOnce.Do(func() {
		schedulerInst = &SyncScheduler{
			logger: logger.Logger,
		}
	})
	return schedulerInst
}

// RunDeviceSync 同步整个设备池
// 同一进程内不允许并发执行；跨进程由同步服务里的分布式锁兜底
func (s *SyncScheduler) RunDeviceSync(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		s.logger.Info("Device sync already running, skipping")
		return nil
	}
	s.running = true
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		s.running = false
		s.runMu.Unlock()
	}()

	startTime := time.Now()
	s.lastRunTime = startTime

	s.logger.Info("Starting scheduled device sync",
		zap.Time("start_time", startTime),
	)

	result, err := service.Sync().SyncAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled device sync failed", zap.Error(err))
		return err
	}

	var fetched, merged, unmatched int
	for _, device := range result.Devices {
		fetched += device.Fetched
		merged += device.Merged
		unmatched += device.Unmatched
	}

	s.logger.Info("Scheduled device sync completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("device_count", len(result.Devices)),
		zap.Int("failure_count", len(result.Failures)),
		zap.Int("fetched", fetched),
		zap.Int("merged", merged),
		zap.Int("unmatched", unmatched),
	)

	return nil
}

// LastRunTime 上次执行时间，健康检查用
func (s *SyncScheduler) LastRunTime() time.Time {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.lastRunTime
}
