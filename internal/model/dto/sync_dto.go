package dto

import "time"

// ========== 设备同步相关 DTO ==========

// SyncDeviceResponse 单台设备同步结果
type SyncDeviceResponse struct {
	DeviceID       string    `json:"device_id"`
	Fetched        int       `json:"fetched"`         // 本次拉取的打卡条数
	Merged         int       `json:"merged"`          // 合并生成或更新的考勤记录数
	Unmatched      int       `json:"unmatched"`       // 未能解析为员工的打卡条数
	CursorAdvanced bool      `json:"cursor_advanced"` // 游标是否前移
	SyncedAt       time.Time `json:"synced_at"`
}

// SyncAllResponse 全量设备同步结果
type SyncAllResponse struct {
	BatchID  string               `json:"batch_id"` // 本轮同步的关联 ID，日志里用它串起各设备
	Devices  []SyncDeviceResponse `json:"devices"`
	Failures []SyncFailure        `json:"failures,omitempty"`
}

// SyncFailure 设备同步失败明细
type SyncFailure struct {
	DeviceID string `json:"device_id"`
	Category string `json:"category"` // 设备错误类别
	Severity string `json:"severity"`
	Error    string `json:"error"`
}

// DeviceTestResult 设备连通性测试结果
type DeviceTestResult struct {
	DeviceID     string `json:"device_id"`
	Reachable    bool   `json:"reachable"`
	LatencyMs    int64  `json:"latency_ms,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ValidateEmployeesRequest 批量员工映射校验请求
type ValidateEmployeesRequest struct {
	TerminalUserIDs []string `json:"terminal_user_ids" binding:"required"`
}

// ValidEmployee 校验通过的员工
type ValidEmployee struct {
	TerminalUserID string `json:"terminal_user_id"`
	EmployeeID     int64  `json:"employee_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
}

// ValidateEmployeesResponse 批量员工映射校验结果，始终部分成功
type ValidateEmployeesResponse struct {
	Valid        []ValidEmployee `json:"valid"`
	Invalid      []string        `json:"invalid"`
	ValidCount   int             `json:"valid_count"`
	InvalidCount int             `json:"invalid_count"`
}

// DeviceUserView 设备登记用户及其映射结果
type DeviceUserView struct {
	TerminalUserID string `json:"terminal_user_id"`
	Name           string `json:"name"`
	Mapped         bool   `json:"mapped"`
	EmployeeID     int64  `json:"employee_id,omitempty"`
	EmployeeCode   string `json:"employee_code,omitempty"`
	EmployeeName   string `json:"employee_name,omitempty"`
}

// DeviceUsersResponse 设备用户清单，含映射统计
type DeviceUsersResponse struct {
	DeviceID      string           `json:"device_id"`
	Users         []DeviceUserView `json:"users"`
	Total         int              `json:"total"`
	MappedCount   int              `json:"mapped_count"`
	UnmappedCount int              `json:"unmapped_count"`
}

// BreakerStatusResponse 设备熔断器状态
type BreakerStatusResponse struct {
	DeviceID        string     `json:"device_id"`
	State           string     `json:"state"` // CLOSED / OPEN / HALF_OPEN
	FailureCount    int        `json:"failure_count"`
	LastFailureTime *time.Time `json:"last_failure_time,omitempty"`
	OpenedAt        *time.Time `json:"opened_at,omitempty"`
}
