package devicelink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("dev-1", 3, time.Minute)

	assert.Equal(t, StateClosed, cb.GetState())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("dev-1", 3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenAllowsSingleProbe(t *testing.T) {
	cb := NewCircuitBreaker("dev-1", 1, 10*time.Millisecond)

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)

	// 恢复窗口过后只放行一次探测
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.GetState())
	assert.False(t, cb.Allow())
	assert.False(t, cb.Allow())
}

func TestBreakerHalfOpenProbeOutcome(t *testing.T) {
	t.Run("probe success closes breaker", func(t *testing.T) {
		cb := NewCircuitBreaker("dev-1", 1, 10*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(20 * time.Millisecond)

		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, StateClosed, cb.GetState())
		assert.True(t, cb.Allow())
	})

	t.Run("probe failure reopens breaker", func(t *testing.T) {
		cb := NewCircuitBreaker("dev-1", 1, 10*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(20 * time.Millisecond)

		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, StateOpen, cb.GetState())
		assert.False(t, cb.Allow())
	})
}

func TestBreakerManualReset(t *testing.T) {
	cb := NewCircuitBreaker("dev-1", 1, time.Hour)

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.True(t, cb.Allow())

	status := cb.Status()
	assert.Equal(t, "dev-1", status.DeviceID)
	assert.Equal(t, 0, status.FailureCount)
}

func TestBreakerRegistryIsPerDevice(t *testing.T) {
	reg := NewBreakerRegistry(1, time.Hour)

	reg.Get("dev-1").RecordFailure()

	assert.Equal(t, StateOpen, reg.Get("dev-1").GetState())
	assert.Equal(t, StateClosed, reg.Get("dev-2").GetState())

	_, ok := reg.Lookup("dev-3")
	assert.False(t, ok)
}
