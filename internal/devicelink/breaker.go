package devicelink

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"AttendOK/pkg/logger"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭状态：正常工作
	StateOpen                  // 开启状态：熔断中
	StateHalfOpen              // 半开状态：放行单次探测
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker 单台设备的熔断器
// 半开状态只放行一次探测，成功关闭、失败重新打开
type CircuitBreaker struct {
	deviceID     string
	maxFailures  int
	resetTimeout time.Duration

	mu            sync.Mutex
	state         State
	failures      int
	lastFailTime  time.Time
	openedAt      time.Time
	halfOpenProbe bool // 半开状态下探测是否已放行
}

// NewCircuitBreaker 创建设备熔断器
func NewCircuitBreaker(deviceID string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		deviceID:     deviceID,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Allow 检查是否放行本次请求，半开状态只放行一次
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.resetTimeout {
			cb.transitionToHalfOpen()
			cb.halfOpenProbe = true
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenProbe {
			return false
		}
		cb.halfOpenProbe = true
		return true
	default:
		return false
	}
}

// RecordSuccess 记录成功调用
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.transitionToClosed()
	default:
	}
}

// RecordFailure 记录失败调用
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailTime = time.Now()

	logger.Logger.Warn("Device operation failed",
		zap.String("device_id", cb.deviceID),
		zap.Int("failures", cb.failures),
		zap.String("state", cb.state.String()),
	)

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.maxFailures {
			cb.transitionToOpen()
		}
	case StateHalfOpen:
		cb.transitionToOpen()
	default:
	}
}

// Reset 人工复位，运维修好设备后调用
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionToClosed()
	logger.Logger.Info("Circuit breaker manually reset",
		zap.String("device_id", cb.deviceID),
	)
}

func (cb *CircuitBreaker) transitionToClosed() {
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenProbe = false

	logger.Logger.Info("Circuit breaker transitioned to closed",
		zap.String("device_id", cb.deviceID),
	)
}

func (cb *CircuitBreaker) transitionToOpen() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.halfOpenProbe = false

	logger.Logger.Warn("Circuit breaker transitioned to open",
		zap.String("device_id", cb.deviceID),
		zap.Int("failures", cb.failures),
		zap.Duration("reset_timeout", cb.resetTimeout),
	)
}

func (cb *CircuitBreaker) transitionToHalfOpen() {
	cb.state = StateHalfOpen
	cb.halfOpenProbe = false

	logger.Logger.Info("Circuit breaker transitioned to half-open",
		zap.String("device_id", cb.deviceID),
	)
}

// GetState 获取当前状态
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerStatus 熔断器状态快照
type BreakerStatus struct {
	DeviceID        string
	State           State
	FailureCount    int
	LastFailureTime time.Time
	OpenedAt        time.Time
}

// Status 获取状态快照
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerStatus{
		DeviceID:        cb.deviceID,
		State:           cb.state,
		FailureCount:    cb.failures,
		LastFailureTime: cb.lastFailTime,
		OpenedAt:        cb.openedAt,
	}
}

// BreakerRegistry 按设备 ID 管理熔断器，懒创建
type BreakerRegistry struct {
	mu           sync.Mutex
	breakers     map[string]*CircuitBreaker
	maxFailures  int
	resetTimeout time.Duration
}

// NewBreakerRegistry 创建熔断器注册表
func NewBreakerRegistry(maxFailures int, resetTimeout time.Duration) *BreakerRegistry {
	return &BreakerRegistry{
		breakers:     make(map[string]*CircuitBreaker),
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// Get 获取指定设备的熔断器，不存在时创建
func (r *BreakerRegistry) Get(deviceID string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[deviceID]
	if !ok {
		cb = NewCircuitBreaker(deviceID, r.maxFailures, r.resetTimeout)
		r.breakers[deviceID] = cb
	}
	return cb
}

// Lookup 获取指定设备的熔断器，不存在时返回 false
func (r *BreakerRegistry) Lookup(deviceID string) (*CircuitBreaker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[deviceID]
	return cb, ok
}
