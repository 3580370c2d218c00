package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"AttendOK/internal/model"
	"AttendOK/storage/database"
)

// ========== AttendanceRecord 相关查询接口 ==========

// AttendanceRecordQuerier 考勤记录查询接口
type AttendanceRecordQuerier interface {
	// GetByUniqueKey 根据幂等键查询考勤记录
	//
	// SELECT * FROM @@table
	// WHERE employee_id = @employeeID
	//   AND work_date = @workDate::date
	//   AND device_transaction_id = @deviceTransactionID
	// LIMIT 1
	GetByUniqueKey(employeeID int64, workDate string, deviceTransactionID string) (*gen.T, error)

	// ListConflictsInRange 查询日期区间内的未裁定冲突
	//
	// SELECT * FROM @@table
	// WHERE has_conflict = true
	//   AND work_date >= @fromDate::date
	//   AND work_date <= @toDate::date
	// ORDER BY work_date, employee_id
	ListConflictsInRange(fromDate, toDate string) ([]*gen.T, error)

	// ListByEmployeeAndRange 按员工和日期区间查询考勤记录（分页）
	//
	// SELECT * FROM @@table
	// WHERE employee_id = @employeeID
	//   AND work_date >= @fromDate::date
	//   AND work_date <= @toDate::date
	// ORDER BY work_date DESC
	// LIMIT @limit OFFSET @offset
	ListByEmployeeAndRange(employeeID int64, fromDate, toDate string, limit, offset int) ([]*gen.T, error)

	// SumHoursByEmployee 按员工汇总区间内已合并的工时
	//
	// SELECT employee_id, COALESCE(SUM(total_hours), 0) as total
	// FROM @@table
	// WHERE work_date >= @fromDate::date
	//   AND work_date <= @toDate::date
	//   AND total_hours IS NOT NULL
	// GROUP BY employee_id
	SumHoursByEmployee(fromDate, toDate string) ([]gen.M, error)
}

// ========== Employee 相关查询接口 ==========

// EmployeeQuerier 员工查询接口
type EmployeeQuerier interface {
	// GetByEmail 根据邮箱查询员工（email_prefix 映射策略）
	//
	// SELECT * FROM @@table WHERE email = @email LIMIT 1
	GetByEmail(email string) (*gen.T, error)

	// GetByCode 根据工号查询员工（direct_id 映射策略）
	//
	// SELECT * FROM @@table WHERE code = @code LIMIT 1
	GetByCode(code string) (*gen.T, error)

	// GetByTerminalUserID 根据考勤机用户 ID 查询员工（custom_field 映射策略）
	//
	// SELECT * FROM @@table WHERE terminal_user_id = @terminalUserID LIMIT 1
	GetByTerminalUserID(terminalUserID string) (*gen.T, error)

	// ListActive 查询在职员工
	//
	// SELECT * FROM @@table WHERE active = true ORDER BY code
	ListActive() ([]*gen.T, error)
}

// ========== AuditEntry 相关查询接口 ==========

// AuditEntryQuerier 审计日志查询接口
type AuditEntryQuerier interface {
	// ListByEntity 查询实体的审计记录
	//
	// SELECT * FROM @@table
	// WHERE entity_type = @entityType AND entity_id = @entityID
	// ORDER BY created_at DESC
	// LIMIT @limit
	ListByEntity(entityType string, entityID int64, limit int) ([]*gen.T, error)

	// ListByActor 查询操作者的审计记录（分页）
	//
	// SELECT * FROM @@table
	// WHERE actor_id = @actorID
	// ORDER BY created_at DESC
	// LIMIT @limit OFFSET @offset
	ListByActor(actorID int64, limit, offset int) ([]*gen.T, error)
}

// ========== NotificationTask 相关查询接口 ==========

// NotificationTaskQuerier 通知任务查询接口
type NotificationTaskQuerier interface {
	// GetByTaskCode 根据 TaskCode 查询通知任务（幂等性检查）
	//
	// SELECT * FROM @@table WHERE task_code = @taskCode LIMIT 1
	GetByTaskCode(taskCode int64) (*gen.T, error)

	// ListPendingTasks 查询待处理的任务
	//
	// SELECT * FROM @@table
	// WHERE status = 'pending'
	//   AND scheduled_at <= NOW()
	// ORDER BY scheduled_at ASC
	// LIMIT @limit
	ListPendingTasks(limit int) ([]*gen.T, error)

	// ListFailedTasksForRetry 查询失败需要重试的任务
	//
	// SELECT * FROM @@table
	// WHERE status = 'failed'
	//   AND retry_count < 3
	//   AND scheduled_at <= NOW()
	// ORDER BY scheduled_at ASC
	// LIMIT @limit
	ListFailedTasksForRetry(limit int) ([]*gen.T, error)
}

func Generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 运行数据库迁移（确保表存在）
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query", // 生成代码的输出路径
		ModelPkgPath:      "AttendOK/internal/model",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	// 注册现有的 model，GORM Gen 会使用这些 model 而不是生成新的
	g.ApplyBasic(
		&model.Employee{},
		&model.RawPunch{},
		&model.AttendanceRecord{},
		&model.AttendancePeriod{},
		&model.PayrollPeriod{},
		&model.PayrollRecord{},
		&model.AuditEntry{},
		&model.NotificationTask{},
	)

	// 直接应用接口，GORM Gen 会根据接口中的类型自动匹配已注册的 model
	g.ApplyInterface(func(AttendanceRecordQuerier) {}, &model.AttendanceRecord{})
	g.ApplyInterface(func(EmployeeQuerier) {}, &model.Employee{})
	g.ApplyInterface(func(AuditEntryQuerier) {}, &model.AuditEntry{})
	g.ApplyInterface(func(NotificationTaskQuerier) {}, &model.NotificationTask{})

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
