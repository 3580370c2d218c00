package devicelink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  Category
		retryable bool
	}{
		{
			name:      "context deadline",
			err:       context.DeadlineExceeded,
			category:  CategoryTimeout,
			retryable: true,
		},
		{
			name:      "net error timeout",
			err:       &fakeNetError{timeout: true},
			category:  CategoryTimeout,
			retryable: true,
		},
		{
			name:      "net error non-timeout",
			err:       &fakeNetError{},
			category:  CategoryNetwork,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp 192.168.1.201:4370: connection refused"),
			category:  CategoryNetwork,
			retryable: true,
		},
		{
			name:      "http 401",
			err:       errors.New("GET /api/transactions failed with status code 401: unauthorized"),
			category:  CategoryAuthentication,
			retryable: false,
		},
		{
			name:      "http 503",
			err:       errors.New("GET /api/transactions failed with status code 503: device busy"),
			category:  CategoryDeviceUnavailable,
			retryable: true,
		},
		{
			name:      "malformed payload",
			err:       errors.New("decode transactions response: invalid character 'x'"),
			category:  CategoryDataCorruption,
			retryable: false,
		},
		{
			name:      "sdk failure",
			err:       errors.New("zkteco sdk returned error code -5"),
			category:  CategorySDK,
			retryable: true,
		},
		{
			name:      "anything else",
			err:       errors.New("something odd happened"),
			category:  CategoryUnknown,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := Classify("dev-1", "fetch_punches", tt.err)
			assert.Equal(t, tt.category, de.Category)
			assert.Equal(t, tt.retryable, de.Retryable())
			assert.Equal(t, "dev-1", de.DeviceID)
			assert.Equal(t, "fetch_punches", de.Op)
		})
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		name        string
		category    Category
		attempt     int
		maxAttempts int
		expected    Severity
	}{
		{"authentication always critical", CategoryAuthentication, 1, 5, SeverityCritical},
		{"retries exhausted", CategoryNetwork, 3, 3, SeverityCritical},
		{"half of retries used", CategoryNetwork, 2, 4, SeverityHigh},
		{"device unavailable early", CategoryDeviceUnavailable, 1, 5, SeverityMedium},
		{"network early", CategoryNetwork, 1, 5, SeverityLow},
		{"timeout early", CategoryTimeout, 1, 5, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SeverityFor(tt.category, tt.attempt, tt.maxAttempts))
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify("dev-1", "fetch_punches", nil))
}

func TestClassifyPreservesExistingDeviceError(t *testing.T) {
	orig := Classify("dev-1", "fetch_punches", errors.New("connection refused"))
	wrapped := fmt.Errorf("sync failed: %w", orig)

	de := Classify("dev-2", "fetch_users", wrapped)
	assert.Equal(t, CategoryNetwork, de.Category)
	assert.Equal(t, "dev-1", de.DeviceID)
	assert.Equal(t, "fetch_punches", de.Op)
}

func TestDeviceErrorUnwrap(t *testing.T) {
	de := Classify("dev-1", "ping", context.DeadlineExceeded)
	assert.True(t, errors.Is(de, context.DeadlineExceeded))
}
