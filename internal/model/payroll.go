package model

import (
	"time"

	"gorm.io/datatypes"
)

// PayrollStatus 薪资周期状态枚举
type PayrollStatus string

const (
	PayrollStatusCalculating PayrollStatus = "calculating"
	PayrollStatusCalculated  PayrollStatus = "calculated"
	PayrollStatusApproved    PayrollStatus = "approved"
)

// PayrollPeriod 薪资周期，与封账后的考勤周期一一对应
type PayrollPeriod struct {
	BaseModel
	AttendancePeriodID int64         `gorm:"not null;uniqueIndex" json:"attendance_period_id"`
	Status             PayrollStatus `gorm:"type:varchar(16);not null;default:'calculating';index" json:"status"`
	TotalStandardHours float64       `gorm:"type:decimal(10,2);not null;default:0" json:"total_standard_hours"`
	TotalOvertimeHours float64       `gorm:"type:decimal(10,2);not null;default:0" json:"total_overtime_hours"`
	TotalGrossAmount   float64       `gorm:"type:decimal(12,2);not null;default:0" json:"total_gross_amount"`
	CalculatedBy       *int64        `json:"calculated_by,omitempty"`
	CalculatedAt       *time.Time    `gorm:"type:timestamptz" json:"calculated_at,omitempty"`
	ApprovedBy         *int64        `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time    `gorm:"type:timestamptz" json:"approved_at,omitempty"`
	ApprovalNotes      string        `gorm:"type:text" json:"approval_notes,omitempty"`
}

// TableName 指定表名
func (PayrollPeriod) TableName() string {
	return "payroll_periods"
}

// PayrollRecord 每人每周期一条的薪资明细，重算时整批删除重建，绝不部分更新
type PayrollRecord struct {
	BaseModel
	PayrollPeriodID int64          `gorm:"not null;uniqueIndex:idx_payroll_records_period_emp,priority:1" json:"payroll_period_id"`
	EmployeeID      int64          `gorm:"not null;uniqueIndex:idx_payroll_records_period_emp,priority:2" json:"employee_id"`
	StandardHours   float64        `gorm:"type:decimal(8,2);not null;default:0" json:"standard_hours"`
	OvertimeHours   float64        `gorm:"type:decimal(8,2);not null;default:0" json:"overtime_hours"`
	StandardRate    float64        `gorm:"type:decimal(10,2);not null" json:"standard_rate"`
	OvertimeRate    float64        `gorm:"type:decimal(10,2);not null" json:"overtime_rate"`
	GrossPay        float64        `gorm:"type:decimal(12,2);not null" json:"gross_pay"`
	Breakdown       datatypes.JSON `gorm:"type:jsonb" json:"breakdown,omitempty"` // 按日工时和计算参数，保留用于审计与导出
}

// TableName 指定表名
func (PayrollRecord) TableName() string {
	return "payroll_records"
}
