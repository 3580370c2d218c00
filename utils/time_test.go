package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())

	_, err = ParseDate("15/03/2026")
	assert.Error(t, err)
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want float64
	}{
		{"整点下班", start.Add(8 * time.Hour), 8.0},
		{"半小时", start.Add(8*time.Hour + 30*time.Minute), 8.5},
		{"分钟取整到两位", start.Add(7*time.Hour + 50*time.Minute), 7.83},
		{"零工时", start, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HoursBetween(start, tt.end))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 875.0, Round2(875.0000001))
	assert.Equal(t, 10.13, Round2(10.125))
	assert.Equal(t, 0.0, Round2(0))
}
