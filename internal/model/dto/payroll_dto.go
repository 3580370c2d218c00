package dto

import "time"

// ========== 薪资相关 DTO ==========

// CalculatePayrollRequest 薪资计算请求
type CalculatePayrollRequest struct {
	Confirm     bool    `json:"confirm"`                // 必须显式为 true 才执行计算
	EmployeeIDs []int64 `json:"employee_ids,omitempty"` // 为空表示全员
}

// PreviewPayrollRequest 薪资预览请求，只读不落库
type PreviewPayrollRequest struct {
	EmployeeIDs []int64 `json:"employee_ids,omitempty"`
}

// ApprovePayrollRequest 薪资审批请求
type ApprovePayrollRequest struct {
	Confirm bool   `json:"confirm"` // 必须显式为 true 才执行审批
	Notes   string `json:"notes,omitempty"`
}

// PayrollLineItem 单个员工的薪资明细
type PayrollLineItem struct {
	EmployeeID    int64   `json:"employee_id"`
	EmployeeCode  string  `json:"employee_code"`
	EmployeeName  string  `json:"employee_name"`
	StandardHours float64 `json:"standard_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	StandardRate  float64 `json:"standard_rate"`
	OvertimeRate  float64 `json:"overtime_rate"`
	GrossPay      float64 `json:"gross_pay"`
}

// PayrollResultResponse 薪资计算或预览结果
type PayrollResultResponse struct {
	PayrollPeriodID    int64             `json:"payroll_period_id,omitempty"` // 预览时为 0
	AttendancePeriodID int64             `json:"attendance_period_id"`
	Status             string            `json:"status"`
	Preview            bool              `json:"preview"`
	TotalStandardHours float64           `json:"total_standard_hours"`
	TotalOvertimeHours float64           `json:"total_overtime_hours"`
	TotalGrossAmount   float64           `json:"total_gross_amount"`
	Records            []PayrollLineItem `json:"records"`
	CalculatedAt       *time.Time        `json:"calculated_at,omitempty"`
}

// ApprovePayrollResponse 薪资审批响应
type ApprovePayrollResponse struct {
	PayrollPeriodID int64     `json:"payroll_period_id"`
	Status          string    `json:"status"`
	ApprovedAt      time.Time `json:"approved_at"`
}
