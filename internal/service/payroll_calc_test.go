package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDay(t *testing.T) {
	tests := []struct {
		name     string
		hours    float64
		regular  float64
		overtime float64
	}{
		{"under threshold", 6, 6, 0},
		{"exact threshold", 8, 8, 0},
		{"nine hour day splits into eight plus one", 9, 8, 1},
		{"long day", 12.5, 8, 4.5},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regular, overtime := SplitDay(tt.hours, 8)
			assert.Equal(t, tt.regular, regular)
			assert.Equal(t, tt.overtime, overtime)
		})
	}
}

func TestComputePayGrossIsExact(t *testing.T) {
	// 10 天 × 8h 常规 + 5 天再各加 1h 加班 = 80 常规 / 5 加班
	days := make([]DailyHours, 0, 10)
	for i := 1; i <= 10; i++ {
		hours := 8.0
		if i <= 5 {
			hours = 9.0
		}
		days = append(days, DailyHours{Date: fmt.Sprintf("2026-08-%02d", i), Hours: hours})
	}

	split := ComputePay(days, 10, 8, 100, 1.5)

	assert.Equal(t, 80.0, split.StandardHours)
	assert.Equal(t, 5.0, split.OvertimeHours)
	assert.Equal(t, 10.0, split.StandardRate)
	assert.Equal(t, 15.0, split.OvertimeRate)

	// 80×$10 + 5×$15，两位小数内不允许漂移
	assert.Equal(t, 875.00, split.GrossPay)
}

func TestComputePayWeeklyCapShiftsRegularIntoOvertime(t *testing.T) {
	// 6 天 × 8h = 48h，全部在日阈值内，但超过周阈值 40h
	days := make([]DailyHours, 0, 6)
	for i := 1; i <= 6; i++ {
		days = append(days, DailyHours{Date: fmt.Sprintf("2026-08-%02d", i), Hours: 8})
	}

	split := ComputePay(days, 10, 8, 40, 1.5)

	assert.Equal(t, 40.0, split.StandardHours)
	assert.Equal(t, 8.0, split.OvertimeHours)
	assert.Equal(t, 8.0, split.WeeklyShifted)
	assert.Equal(t, 520.00, split.GrossPay) // 40×10 + 8×15
}

func TestComputePayWeeklyCapShiftBoundedByRegular(t *testing.T) {
	// 极端情况：三天长班，日拆分后常规 24h / 加班 21h，总量 45h 超出 40h 上限 5h
	days := []DailyHours{
		{Date: "2026-08-01", Hours: 15},
		{Date: "2026-08-02", Hours: 15},
		{Date: "2026-08-03", Hours: 15},
	}

	split := ComputePay(days, 10, 8, 40, 1.5)

	assert.Equal(t, 19.0, split.StandardHours)
	assert.Equal(t, 26.0, split.OvertimeHours)
	assert.Equal(t, 5.0, split.WeeklyShifted)
}

func TestComputePayNoOvertime(t *testing.T) {
	days := []DailyHours{
		{Date: "2026-08-01", Hours: 7.5},
		{Date: "2026-08-02", Hours: 8},
	}

	split := ComputePay(days, 20, 8, 40, 1.5)

	assert.Equal(t, 15.5, split.StandardHours)
	assert.Equal(t, 0.0, split.OvertimeHours)
	assert.Equal(t, 310.00, split.GrossPay)
	assert.Equal(t, 0.0, split.WeeklyShifted)
}

func TestComputePayFractionalHoursRounding(t *testing.T) {
	// 8.12h 这类由打卡合并产生的小数工时
	days := []DailyHours{
		{Date: "2026-08-01", Hours: 8.12},
		{Date: "2026-08-02", Hours: 8.12},
	}

	split := ComputePay(days, 12.5, 8, 40, 1.5)

	assert.Equal(t, 16.0, split.StandardHours)
	assert.Equal(t, 0.24, split.OvertimeHours)
	// 16×12.5 + 0.24×18.75 = 200 + 4.5
	assert.Equal(t, 204.50, split.GrossPay)
}

func TestComputePayBreakdownPerDay(t *testing.T) {
	days := []DailyHours{
		{Date: "2026-08-02", Hours: 9},
		{Date: "2026-08-01", Hours: 8},
	}

	split := ComputePay(days, 10, 8, 40, 1.5)

	// 明细按日期排序
	assert.Len(t, split.Daily, 2)
	assert.Equal(t, "2026-08-01", split.Daily[0].Date)
	assert.Equal(t, 8.0, split.Daily[0].Regular)
	assert.Equal(t, 0.0, split.Daily[0].Overtime)
	assert.Equal(t, "2026-08-02", split.Daily[1].Date)
	assert.Equal(t, 8.0, split.Daily[1].Regular)
	assert.Equal(t, 1.0, split.Daily[1].Overtime)
}
