package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// NotificationCategory 通知类别枚举
type NotificationCategory string

const (
	NotificationCategoryDeviceAlert     NotificationCategory = "device_alert"     // 设备熔断或同步失败告警
	NotificationCategoryPeriodFinalized NotificationCategory = "period_finalized" // 周期封账通知
	NotificationCategoryPayrollReady    NotificationCategory = "payroll_ready"    // 薪资计算完成通知
)

// NotificationTaskStatus 通知任务状态枚举
type NotificationTaskStatus string

const (
	NotificationTaskStatusPending    NotificationTaskStatus = "pending"    // 待处理
	NotificationTaskStatusProcessing NotificationTaskStatus = "processing" // 处理中
	NotificationTaskStatusSuccess    NotificationTaskStatus = "success"    // 成功
	NotificationTaskStatusFailed     NotificationTaskStatus = "failed"     // 失败
)

// NotificationTask 通知任务模型，由业务事件入队、worker 异步消费
type NotificationTask struct {
	BaseModel
	TaskCode    int64                  `gorm:"uniqueIndex;not null" json:"task_code"`
	Category    NotificationCategory   `gorm:"type:varchar(32);not null" json:"category"`
	Payload     JSONB                  `gorm:"type:jsonb;not null" json:"payload"`
	Status      NotificationTaskStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_notification_tasks_status" json:"status"`
	RetryCount  int                    `gorm:"type:smallint;not null;default:0" json:"retry_count"`
	ScheduledAt time.Time              `gorm:"type:timestamptz;not null;index:idx_notification_tasks_status" json:"scheduled_at"`
	ProcessedAt *time.Time             `gorm:"type:timestamptz" json:"processed_at,omitempty"`
}

// TableName 指定表名
func (NotificationTask) TableName() string {
	return "notification_tasks"
}

// JSONB 自定义 JSONB 类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value")
	}
	return json.Unmarshal(bytes, j)
}
