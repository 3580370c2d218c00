package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"AttendOK/internal/cache"
	pkgerrors "AttendOK/pkg/errors"
)

func TestEmailForPrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		domain   string
		expected string
	}{
		{
			name:     "domain with at sign",
			prefix:   "john.doe",
			domain:   "@company.com",
			expected: "john.doe@company.com",
		},
		{
			name:     "domain without at sign",
			prefix:   "john.doe",
			domain:   "company.com",
			expected: "john.doe@company.com",
		},
		{
			name:     "numeric terminal id",
			prefix:   "1042",
			domain:   "@example.com",
			expected: "1042@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EmailForPrefix(tt.prefix, tt.domain))
		})
	}
}

func TestAppendOutcomePartitions(t *testing.T) {
	tests := []struct {
		name    string
		entry   *cache.IdentityEntry
		err     error
		matched bool
	}{
		{
			name:    "matched employee",
			entry:   &cache.IdentityEntry{EmployeeID: 7, Code: "E007"},
			matched: true,
		},
		{
			name: "unknown terminal user",
			err:  pkgerrors.EmployeeNotFound,
		},
		{
			name: "inactive employee",
			err:  pkgerrors.EmployeeInactive,
		},
		{
			// 数据库故障不中断整批，该 ID 归入未匹配
			name: "database failure",
			err:  errors.New("dial tcp 10.0.0.5:5432: connection refused"),
		},
		{
			name: "wrapped database failure",
			err:  fmt.Errorf("failed to resolve terminal user 1042: %w", errors.New("context deadline exceeded")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &BatchResult{Matched: make(map[string]*cache.IdentityEntry)}
			appendOutcome(result, "1042", tt.entry, tt.err)

			if tt.matched {
				assert.Len(t, result.Matched, 1)
				assert.Empty(t, result.Unmatched)
			} else {
				assert.Empty(t, result.Matched)
				assert.Equal(t, []string{"1042"}, result.Unmatched)
			}
		})
	}
}
