package model

import "gorm.io/datatypes"

// AuditAction 审计动作枚举
type AuditAction string

const (
	AuditActionPeriodFinalized  AuditAction = "period.finalized"
	AuditActionPeriodUnlocked   AuditAction = "period.unlocked"
	AuditActionConflictResolved AuditAction = "record.conflict_resolved"
	AuditActionPayrollCalculate AuditAction = "payroll.calculated"
	AuditActionPayrollApproved  AuditAction = "payroll.approved"
)

// AuditEntry 财务敏感操作的审计记录，只追加不修改
type AuditEntry struct {
	BaseModel
	EntryCode  int64          `gorm:"uniqueIndex;not null" json:"entry_code"`
	Action     AuditAction    `gorm:"type:varchar(40);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(40);not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   int64          `gorm:"not null;index:idx_audit_entity,priority:2" json:"entity_id"`
	ActorID    int64          `gorm:"not null;index" json:"actor_id"`
	Detail     datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
}

// TableName 指定表名
func (AuditEntry) TableName() string {
	return "audit_entries"
}
