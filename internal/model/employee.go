package model

// Employee 员工档案（考勤与薪资计算的主体）
type Employee struct {
	BaseModel
	Code           string   `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name           string   `gorm:"type:varchar(128);not null" json:"name"`
	Email          string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Active         bool     `gorm:"not null;default:true;index" json:"active"`
	TerminalUserID string   `gorm:"type:varchar(64);index" json:"terminal_user_id"`
	HourlyRate     *float64 `gorm:"type:decimal(10,2)" json:"hourly_rate,omitempty"` // 为空时使用系统默认时薪
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}
