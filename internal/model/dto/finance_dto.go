package dto

import "time"

// ========== 考勤周期相关 DTO ==========

// FinalizePeriodRequest 周期封账请求
type FinalizePeriodRequest struct {
	Confirm bool `json:"confirm"` // 必须显式为 true 才执行封账
}

// FinalizePeriodResponse 周期封账响应
type FinalizePeriodResponse struct {
	PeriodID      int64     `json:"period_id"`
	Status        string    `json:"status"`
	RecordCount   int       `json:"record_count"`
	EmployeeCount int       `json:"employee_count"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// UnlockPeriodRequest 周期解锁请求
type UnlockPeriodRequest struct {
	Confirm bool   `json:"confirm"`                   // 必须显式为 true 才执行解锁
	Reason  string `json:"reason" binding:"required"` // 解锁原因，必填并写入审计
}

// UnlockPeriodResponse 周期解锁响应
type UnlockPeriodResponse struct {
	PeriodID    int64     `json:"period_id"`
	Status      string    `json:"status"`
	RecordCount int       `json:"record_count"` // 重新打开的考勤记录数
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// CreatePeriodRequest 创建考勤周期请求
type CreatePeriodRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

// PeriodSummary 周期概要
type PeriodSummary struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	RecordCount   int        `json:"record_count"`
	EmployeeCount int        `json:"employee_count"`
	ConflictCount int64      `json:"conflict_count"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
}

// ========== 考勤记录相关 DTO ==========

// ResolveConflictRequest 冲突人工裁定请求
type ResolveConflictRequest struct {
	ClockInAt  *time.Time `json:"clock_in_at,omitempty"`
	ClockOutAt *time.Time `json:"clock_out_at,omitempty"`
	Note       string     `json:"note" binding:"required"` // 裁定说明，写入审计
}

// AttendanceRecordView 考勤记录视图
type AttendanceRecordView struct {
	ID               int64      `json:"id"`
	EmployeeID       int64      `json:"employee_id"`
	WorkDate         string     `json:"work_date"`
	ClockInAt        *time.Time `json:"clock_in_at,omitempty"`
	ClockOutAt       *time.Time `json:"clock_out_at,omitempty"`
	TotalHours       *float64   `json:"total_hours,omitempty"`
	SyncStatus       string     `json:"sync_status"`
	ValidationStatus string     `json:"validation_status"`
	HasConflict      bool       `json:"has_conflict"`
	ConflictDetail   string     `json:"conflict_detail,omitempty"`
	Locked           bool       `json:"locked"`
}
