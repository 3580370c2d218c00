package devicelink

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"AttendOK/config"
	"AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
)

// Executor 设备操作执行器：指数退避重试 + 每设备熔断
type Executor struct {
	registry    *BreakerRegistry
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	opTimeout   time.Duration
}

// NewExecutor 创建执行器
func NewExecutor(registry *BreakerRegistry, maxAttempts int, baseDelay, maxDelay, opTimeout time.Duration) *Executor {
	return &Executor{
		registry:    registry,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		opTimeout:   opTimeout,
	}
}

var (
	defaultExecutor *Executor
	executorOnce    sync.Once
)

// GetExecutor 获取按配置初始化的全局执行器
func GetExecutor() *Executor {
	executorOnce.Do(func() {
		cfg := config.Cfg
		registry := NewBreakerRegistry(
			cfg.BreakerFailureThreshold,
			time.Duration(cfg.BreakerRecoveryTimeoutMs)*time.Millisecond,
		)

		// 执行器超时取设备池内的最大值兜底，单台设备的精确超时由终端客户端控制
		opTimeout := time.Duration(cfg.DeviceTimeoutSeconds) * time.Second
		for _, device := range cfg.DevicePool() {
			if t := device.Timeout(); t > opTimeout {
				opTimeout = t
			}
		}

		defaultExecutor = NewExecutor(
			registry,
			cfg.DeviceRetryMaxAttempts,
			time.Duration(cfg.DeviceRetryBaseDelayMs)*time.Millisecond,
			time.Duration(cfg.DeviceRetryMaxDelayMs)*time.Millisecond,
			opTimeout,
		)
	})
	return defaultExecutor
}

// Breakers 暴露熔断器注册表，供运维接口查询和复位
func (e *Executor) Breakers() *BreakerRegistry {
	return e.registry
}

// Execute 以操作名 op 执行设备操作 fn
// 认证和数据损坏错误不重试，一次失败立即放弃
// 每次失败尝试都会计入该设备的熔断器
func (e *Executor) Execute(ctx context.Context, op, deviceID string, fn func(ctx context.Context) error) error {
	cb := e.registry.Get(deviceID)

	var lastErr *DeviceError
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if !cb.Allow() {
			logger.Logger.Warn("Device call rejected by circuit breaker",
				zap.String("device_id", deviceID),
				zap.String("operation", op),
			)
			return errors.DeviceCircuitOpen
		}

		opCtx, cancel := context.WithTimeout(ctx, e.opTimeout)
		err := fn(opCtx)
		cancel()

		if err == nil {
			cb.RecordSuccess()
			return nil
		}

		cb.RecordFailure()
		lastErr = Classify(deviceID, op, err)
		lastErr.Severity = SeverityFor(lastErr.Category, attempt, e.maxAttempts)

		logger.Logger.Warn("Device operation attempt failed",
			zap.String("device_id", deviceID),
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.String("category", string(lastErr.Category)),
			zap.String("severity", string(lastErr.Severity)),
			zap.Error(err),
		)

		if !lastErr.Retryable() {
			return lastErr
		}

		if attempt == e.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff(attempt)):
		}
	}

	return lastErr
}

// backoff 计算第 attempt 次失败后的等待时间，指数退避加抖动防止设备被同时打爆
func (e *Executor) backoff(attempt int) time.Duration {
	delay := e.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.maxDelay {
			delay = e.maxDelay
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	delay += jitter
	if delay > e.maxDelay {
		delay = e.maxDelay
	}

	return delay
}
