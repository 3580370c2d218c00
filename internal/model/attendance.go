package model

import (
	"time"

	"gorm.io/datatypes"
)

// SyncStatus 考勤记录同步状态枚举
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial" // 只有单次打卡，记录不完整
	SyncStatusFailed  SyncStatus = "failed"
)

// ValidationStatus 考勤记录校验状态枚举
type ValidationStatus string

const (
	ValidationStatusPending   ValidationStatus = "pending"
	ValidationStatusValidated ValidationStatus = "validated"
	ValidationStatusFailed    ValidationStatus = "failed"
	ValidationStatusSkipped   ValidationStatus = "skipped"
)

// RawPunch 设备上报的原始打卡事件，方向由合并逻辑推断，设备本身不区分上下班
type RawPunch struct {
	BaseModel
	DeviceID            string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_raw_punches_device_tx,priority:1" json:"device_id"`
	DeviceTransactionID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_raw_punches_device_tx,priority:2" json:"device_transaction_id"`
	TerminalUserID      string    `gorm:"type:varchar(64);not null;index" json:"terminal_user_id"`
	PunchedAt           time.Time `gorm:"type:timestamptz;not null;index" json:"punched_at"`
	ReceivedAt          time.Time `gorm:"type:timestamptz;not null;default:now()" json:"received_at"`
}

// TableName 指定表名
func (RawPunch) TableName() string {
	return "raw_punches"
}

// AttendanceRecord 每人每天一条的考勤记录，由打卡合并产生，下游只读
type AttendanceRecord struct {
	BaseModel
	EmployeeID          int64            `gorm:"not null;uniqueIndex:idx_attendance_emp_date_tx,priority:1" json:"employee_id"`
	WorkDate            time.Time        `gorm:"type:date;not null;uniqueIndex:idx_attendance_emp_date_tx,priority:2;index:idx_attendance_date" json:"work_date"`
	DeviceTransactionID string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_emp_date_tx,priority:3" json:"device_transaction_id"`
	DeviceID            string           `gorm:"type:varchar(64)" json:"device_id"`
	ClockInAt           *time.Time       `gorm:"type:timestamptz" json:"clock_in_at,omitempty"`
	ClockOutAt          *time.Time       `gorm:"type:timestamptz" json:"clock_out_at,omitempty"`
	TotalHours          *float64         `gorm:"type:decimal(6,2)" json:"total_hours,omitempty"` // 两次打卡齐全才有值
	SyncStatus          SyncStatus       `gorm:"type:varchar(16);not null;default:'pending'" json:"sync_status"`
	ValidationStatus    ValidationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"validation_status"`
	HasConflict         bool             `gorm:"not null;default:false;index:idx_attendance_conflict" json:"has_conflict"`
	ConflictDetail      string           `gorm:"type:text" json:"conflict_detail,omitempty"`
	ValidationErrors    datatypes.JSON   `gorm:"type:jsonb" json:"validation_errors,omitempty"`
	Locked              bool             `gorm:"not null;default:false" json:"locked"` // 周期封账后置位
}

// TableName 指定表名
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// PeriodStatus 考勤周期状态枚举
type PeriodStatus string

const (
	PeriodStatusPending   PeriodStatus = "pending"
	PeriodStatusFinalized PeriodStatus = "finalized"
)

// AttendancePeriod 考勤周期（连续日期区间），封账后才能进入薪资计算
type AttendancePeriod struct {
	BaseModel
	Name          string       `gorm:"type:varchar(64);not null" json:"name"`
	StartDate     time.Time    `gorm:"type:date;not null;index" json:"start_date"`
	EndDate       time.Time    `gorm:"type:date;not null" json:"end_date"`
	Status        PeriodStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	RecordCount   int          `gorm:"not null;default:0" json:"record_count"`
	EmployeeCount int          `gorm:"not null;default:0" json:"employee_count"`
	FinalizedBy   *int64       `json:"finalized_by,omitempty"`
	FinalizedAt   *time.Time   `gorm:"type:timestamptz" json:"finalized_at,omitempty"`
	UnlockedBy    *int64       `json:"unlocked_by,omitempty"`
	UnlockedAt    *time.Time   `gorm:"type:timestamptz" json:"unlocked_at,omitempty"`
	UnlockReason  string       `gorm:"type:text" json:"unlock_reason,omitempty"`
}

// TableName 指定表名
func (AttendancePeriod) TableName() string {
	return "attendance_periods"
}
