package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"AttendOK/internal/model"
	"AttendOK/pkg/logger"
)

// Migrate 运行数据库迁移，创建所有表
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.Employee{},
		&model.RawPunch{},
		&model.AttendanceRecord{},
		&model.AttendancePeriod{},
		&model.PayrollPeriod{},
		&model.PayrollRecord{},
		&model.AuditEntry{},
		&model.DeviceCursor{},
		&model.NotificationTask{},
	)

	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
