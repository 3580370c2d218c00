package model

import "time"

// DeviceCursor 记录每台设备已拉取到的位置，增量同步从游标之后继续
type DeviceCursor struct {
	BaseModel
	DeviceID          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"device_id"`
	LastTransactionID string     `gorm:"type:varchar(64)" json:"last_transaction_id"`
	LastSyncedAt      *time.Time `gorm:"type:timestamptz" json:"last_synced_at,omitempty"`
	LastError         string     `gorm:"type:text" json:"last_error,omitempty"`
}

// TableName 指定表名
func (DeviceCursor) TableName() string {
	return "device_cursors"
}
