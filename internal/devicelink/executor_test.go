package devicelink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "AttendOK/pkg/errors"
)

func newTestExecutor(maxAttempts, breakerThreshold int) *Executor {
	registry := NewBreakerRegistry(breakerThreshold, time.Hour)
	return NewExecutor(registry, maxAttempts, time.Millisecond, 5*time.Millisecond, time.Second)
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor(3, 10)

	calls := 0
	err := e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	e := newTestExecutor(3, 10)

	calls := 0
	err := e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	e := newTestExecutor(3, 10)

	calls := 0
	err := e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	var de *DeviceError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryNetwork, de.Category)
}

func TestExecuteDoesNotRetryAuthenticationErrors(t *testing.T) {
	e := newTestExecutor(5, 10)

	calls := 0
	err := e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		return errors.New("GET /api/transactions failed with status code 401: unauthorized")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	var de *DeviceError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryAuthentication, de.Category)
}

func TestExecuteTagsOperation(t *testing.T) {
	e := newTestExecutor(1, 10)

	err := e.Execute(context.Background(), "fetch_users", "dev-1", func(ctx context.Context) error {
		return errors.New("zkteco sdk returned error code -5")
	})

	var de *DeviceError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, CategorySDK, de.Category)
	assert.Equal(t, "fetch_users", de.Op)
	assert.Contains(t, de.Error(), "fetch_users")
}

func TestExecuteRejectedWhenBreakerOpen(t *testing.T) {
	e := newTestExecutor(1, 2)

	fail := func(ctx context.Context) error {
		return errors.New("dial tcp: connection refused")
	}

	assert.Error(t, e.Execute(context.Background(), "fetch_punches", "dev-1", fail))
	assert.Error(t, e.Execute(context.Background(), "fetch_punches", "dev-1", fail))

	// 达到阈值后熔断，后续调用不再触达设备
	calls := 0
	err := e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, apperrors.DeviceCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestExecuteBreakerIsolatedPerDevice(t *testing.T) {
	e := newTestExecutor(1, 1)

	assert.Error(t, e.Execute(context.Background(), "fetch_punches", "dev-1", func(ctx context.Context) error {
		return errors.New("dial tcp: connection refused")
	}))

	// dev-1 熔断不影响 dev-2
	err := e.Execute(context.Background(), "fetch_punches", "dev-2", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestExecuteStopsWhenContextCancelled(t *testing.T) {
	e := NewExecutor(NewBreakerRegistry(10, time.Hour), 5, 50*time.Millisecond, time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := e.Execute(ctx, "fetch_punches", "dev-1", func(ctx context.Context) error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
