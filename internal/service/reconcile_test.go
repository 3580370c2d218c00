package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"AttendOK/internal/model"
)

func punchAt(employeeID int64, txID string, hour, minute int) PunchEvent {
	return PunchEvent{
		EmployeeID:    employeeID,
		TransactionID: txID,
		DeviceID:      "primary",
		PunchedAt:     time.Date(2026, 8, 3, hour, minute, 0, 0, time.UTC),
	}
}

func TestMergeDayFullPair(t *testing.T) {
	merged := MergeDay([]PunchEvent{
		punchAt(1, "tx-2", 17, 5),
		punchAt(1, "tx-1", 8, 58),
	})

	assert.Equal(t, int64(1), merged.EmployeeID)
	assert.Equal(t, "2026-08-03", merged.WorkDate.Format("2006-01-02"))

	// 最早打卡为上班，最晚为下班
	assert.NotNil(t, merged.ClockInAt)
	assert.NotNil(t, merged.ClockOutAt)
	assert.Equal(t, "08:58", merged.ClockInAt.Format("15:04"))
	assert.Equal(t, "17:05", merged.ClockOutAt.Format("15:04"))

	assert.NotNil(t, merged.TotalHours)
	assert.InDelta(t, 8.12, *merged.TotalHours, 0.001)

	assert.Equal(t, "tx-1", merged.TransactionID)
	assert.False(t, merged.HasConflict)
}

func TestMergeDaySinglePunchIsIncomplete(t *testing.T) {
	merged := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 9, 0),
	})

	assert.NotNil(t, merged.ClockInAt)
	assert.Nil(t, merged.ClockOutAt)
	assert.Nil(t, merged.TotalHours)
	assert.False(t, merged.HasConflict)
}

func TestMergeDayExtraPunchesFlagConflict(t *testing.T) {
	merged := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 30),
		punchAt(1, "tx-2", 12, 0),
		punchAt(1, "tx-3", 17, 30),
	})

	assert.True(t, merged.HasConflict)
	assert.Contains(t, merged.ConflictDetail, "3 punches")
	assert.Equal(t, 3, merged.PunchCount)

	// 冲突时仍然取最早和最晚
	assert.Equal(t, "08:30", merged.ClockInAt.Format("15:04"))
	assert.Equal(t, "17:30", merged.ClockOutAt.Format("15:04"))
	assert.NotNil(t, merged.TotalHours)
	assert.InDelta(t, 9.0, *merged.TotalHours, 0.001)
}

func recordFromDay(day MergedDay) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		EmployeeID:          day.EmployeeID,
		WorkDate:            day.WorkDate,
		DeviceTransactionID: day.TransactionID,
		DeviceID:            day.DeviceID,
		ClockInAt:           day.ClockInAt,
		ClockOutAt:          day.ClockOutAt,
		TotalHours:          day.TotalHours,
		SyncStatus:          day.SyncStatus,
	}
}

func TestClassifyDayCompletesSplitBatches(t *testing.T) {
	// 上班卡先到，下班卡在下一轮同步才到
	// 第一批只产出不完整记录，整天重并后必须补全同一条记录
	morning := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 58),
	})
	existing := recordFromDay(morning)
	assert.Nil(t, existing.TotalHours)

	fullDay := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 58),
		punchAt(1, "tx-2", 17, 5),
	})

	assert.Equal(t, dayActionUpdate, classifyDay(existing, &fullDay))
	assert.NotNil(t, fullDay.TotalHours)
	assert.InDelta(t, 8.12, *fullDay.TotalHours, 0.001)
	assert.Equal(t, "tx-1", fullDay.TransactionID)
	assert.False(t, fullDay.HasConflict)
}

func TestClassifyDayEarlierPunchArrivesLater(t *testing.T) {
	// 已有记录只有一次中午打卡，整天重并出更早的上班卡和更晚的下班卡
	existing := recordFromDay(MergeDay([]PunchEvent{
		punchAt(1, "tx-2", 12, 0),
	}))

	fullDay := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 58),
		punchAt(1, "tx-2", 12, 0),
		punchAt(1, "tx-3", 17, 5),
	})

	// 三次打卡本身要标冲突，但已有记录仍然按补全处理
	assert.Equal(t, dayActionUpdate, classifyDay(existing, &fullDay))
	assert.True(t, fullDay.HasConflict)
}

func TestClassifyDayIdenticalReplaySkips(t *testing.T) {
	fullDay := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 58),
		punchAt(1, "tx-2", 17, 5),
	})
	existing := recordFromDay(fullDay)

	assert.Equal(t, dayActionSkip, classifyDay(existing, &fullDay))
}

func TestClassifyDayDivergentTimestampsConflict(t *testing.T) {
	// 完整记录的时间无法由当天打卡重现，留给人工裁定
	existing := recordFromDay(MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 9, 0),
		punchAt(1, "tx-2", 17, 0),
	}))

	incoming := MergeDay([]PunchEvent{
		punchAt(1, "tx-1", 8, 58),
		punchAt(1, "tx-2", 17, 5),
	})

	assert.Equal(t, dayActionConflict, classifyDay(existing, &incoming))
}

func TestGroupAndMerge(t *testing.T) {
	nextDay := PunchEvent{
		EmployeeID:    1,
		TransactionID: "tx-5",
		DeviceID:      "primary",
		PunchedAt:     time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC),
	}

	merged := GroupAndMerge([]PunchEvent{
		punchAt(2, "tx-3", 9, 1),
		punchAt(1, "tx-1", 8, 58),
		punchAt(1, "tx-2", 17, 5),
		punchAt(2, "tx-4", 18, 0),
		nextDay,
	})

	// 两名员工，员工 1 跨两天
	assert.Len(t, merged, 3)

	assert.Equal(t, int64(1), merged[0].EmployeeID)
	assert.Equal(t, "2026-08-03", merged[0].WorkDate.Format("2006-01-02"))
	assert.NotNil(t, merged[0].TotalHours)

	assert.Equal(t, int64(1), merged[1].EmployeeID)
	assert.Equal(t, "2026-08-04", merged[1].WorkDate.Format("2006-01-02"))
	assert.Nil(t, merged[1].TotalHours) // 单次打卡

	assert.Equal(t, int64(2), merged[2].EmployeeID)
	assert.InDelta(t, 8.98, *merged[2].TotalHours, 0.001)
}
