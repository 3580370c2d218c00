package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"AttendOK/internal/model"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/queue"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/storage/database"
	"AttendOK/utils"
)

// 考勤周期状态机：PENDING -> FINALIZED，只能通过显式解锁回到 PENDING
// 封账和解锁都在单个事务内完成，并发调用只有一个会成功

var (
	periodService *PeriodService
	periodOnce    sync.Once
)

func Period() *PeriodService {
	periodOnce.Do(func() {
		periodService = &PeriodService{}
	})
	return periodService
}

type PeriodService struct{}

// Create 创建考勤周期
func (s *PeriodService) Create(ctx context.Context, req *dto.CreatePeriodRequest) (*dto.PeriodSummary, error) {
	startDate, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	endDate, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}

	period := model.AttendancePeriod{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    model.PeriodStatusPending,
	}

	if err := database.DB().WithContext(ctx).Create(&period).Error; err != nil {
		return nil, fmt.Errorf("failed to create attendance period: %w", err)
	}

	logger.Logger.Info("Attendance period created",
		zap.Int64("period_id", period.ID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	return s.summarize(ctx, &period)
}

// Get 查询单个周期概要
func (s *PeriodService) Get(ctx context.Context, periodID int64) (*dto.PeriodSummary, error) {
	var period model.AttendancePeriod
	if err := database.DB().WithContext(ctx).First(&period, periodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.PeriodNotFound
		}
		return nil, fmt.Errorf("failed to query period: %w", err)
	}

	return s.summarize(ctx, &period)
}

// List 按开始日期倒序列出周期
func (s *PeriodService) List(ctx context.Context) ([]dto.PeriodSummary, error) {
	var periods []model.AttendancePeriod
	if err := database.DB().WithContext(ctx).Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}

	summaries := make([]dto.PeriodSummary, 0, len(periods))
	for i := range periods {
		summary, err := s.summarize(ctx, &periods[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Finalize 封账
// 必须显式 confirm；区间内存在未裁定冲突时拒绝，并把确切数量写进错误信息
func (s *PeriodService) Finalize(ctx context.Context, periodID, actorID int64, confirm bool) (*dto.FinalizePeriodResponse, error) {
	if !confirm {
		return nil, pkgerrors.ConfirmationRequired
	}

	var resp dto.FinalizePeriodResponse

	err := database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var period model.AttendancePeriod
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&period, periodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.PeriodNotFound
			}
			return fmt.Errorf("failed to query period: %w", err)
		}

		var conflictCount int64
		if err := tx.Model(&model.AttendanceRecord{}).
			Where("work_date BETWEEN ? AND ? AND has_conflict = ?", period.StartDate, period.EndDate, true).
			Count(&conflictCount).Error; err != nil {
			return fmt.Errorf("failed to count conflicts: %w", err)
		}

		if err := validateFinalize(&period, conflictCount); err != nil {
			return err
		}

		lockResult := tx.Model(&model.AttendanceRecord{}).
			Where("work_date BETWEEN ? AND ? AND locked = ?", period.StartDate, period.EndDate, false).
			Update("locked", true)
		if lockResult.Error != nil {
			return fmt.Errorf("failed to lock attendance records: %w", lockResult.Error)
		}

		var employeeCount int64
		if err := tx.Model(&model.AttendanceRecord{}).
			Where("work_date BETWEEN ? AND ?", period.StartDate, period.EndDate).
			Distinct("employee_id").
			Count(&employeeCount).Error; err != nil {
			return fmt.Errorf("failed to count employees: %w", err)
		}

		var recordCount int64
		if err := tx.Model(&model.AttendanceRecord{}).
			Where("work_date BETWEEN ? AND ?", period.StartDate, period.EndDate).
			Count(&recordCount).Error; err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		now := time.Now()
		period.Status = model.PeriodStatusFinalized
		period.RecordCount = int(recordCount)
		period.EmployeeCount = int(employeeCount)
		period.FinalizedBy = &actorID
		period.FinalizedAt = &now

		if err := tx.Save(&period).Error; err != nil {
			return fmt.Errorf("failed to update period: %w", err)
		}

		if err := writeAudit(tx, model.AuditActionPeriodFinalized, "attendance_period", period.ID, actorID, map[string]interface{}{
			"record_count":   recordCount,
			"employee_count": employeeCount,
		}); err != nil {
			return err
		}

		resp = dto.FinalizePeriodResponse{
			PeriodID:      period.ID,
			Status:        string(period.Status),
			RecordCount:   int(recordCount),
			EmployeeCount: int(employeeCount),
			FinalizedAt:   now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Attendance period finalized",
		zap.Int64("period_id", periodID),
		zap.Int64("actor_id", actorID),
		zap.Int("record_count", resp.RecordCount),
	)

	// 通知失败不回滚封账
	queue.PublishPeriodFinalized(periodID, actorID, resp.RecordCount, resp.EmployeeCount)

	return &resp, nil
}

// Unlock 解锁已封账的周期
// 必须显式 confirm 并给出原因；只有 FINALIZED 状态可以解锁
func (s *PeriodService) Unlock(ctx context.Context, periodID, actorID int64, confirm bool, reason string) (*dto.UnlockPeriodResponse, error) {
	if !confirm {
		return nil, pkgerrors.ConfirmationRequired
	}
	if reason == "" {
		return nil, pkgerrors.UnlockReasonRequired
	}

	var resp dto.UnlockPeriodResponse

	err := database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var period model.AttendancePeriod
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&period, periodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.PeriodNotFound
			}
			return fmt.Errorf("failed to query period: %w", err)
		}

		if err := validateUnlock(&period); err != nil {
			return err
		}

		unlockResult := tx.Model(&model.AttendanceRecord{}).
			Where("work_date BETWEEN ? AND ? AND locked = ?", period.StartDate, period.EndDate, true).
			Update("locked", false)
		if unlockResult.Error != nil {
			return fmt.Errorf("failed to unlock attendance records: %w", unlockResult.Error)
		}

		now := time.Now()
		period.Status = model.PeriodStatusPending
		period.UnlockedBy = &actorID
		period.UnlockedAt = &now
		period.UnlockReason = reason

		if err := tx.Save(&period).Error; err != nil {
			return fmt.Errorf("failed to update period: %w", err)
		}

		if err := writeAudit(tx, model.AuditActionPeriodUnlocked, "attendance_period", period.ID, actorID, map[string]interface{}{
			"reason":       reason,
			"record_count": unlockResult.RowsAffected,
		}); err != nil {
			return err
		}

		resp = dto.UnlockPeriodResponse{
			PeriodID:    period.ID,
			Status:      string(period.Status),
			RecordCount: int(unlockResult.RowsAffected),
			UnlockedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Attendance period unlocked",
		zap.Int64("period_id", periodID),
		zap.Int64("actor_id", actorID),
		zap.String("reason", reason),
	)

	queue.PublishPeriodUnlocked(periodID, actorID, reason)

	return &resp, nil
}

// validateFinalize 封账状态机校验：重复封账拒绝，未裁定冲突是硬闸
// 冲突数量写进错误信息，财务能直接看到还差多少条没处理
func validateFinalize(period *model.AttendancePeriod, conflictCount int64) error {
	if period.Status == model.PeriodStatusFinalized {
		return pkgerrors.PeriodAlreadyFinalized
	}

	if conflictCount > 0 {
		def := pkgerrors.UnresolvedConflicts
		def.Message = fmt.Sprintf("%d attendance records have unresolved conflicts", conflictCount)
		return def
	}

	return nil
}

// validateUnlock 只有已封账的周期可以解锁
func validateUnlock(period *model.AttendancePeriod) error {
	if period.Status != model.PeriodStatusFinalized {
		return pkgerrors.PeriodNotFinalized
	}
	return nil
}

func (s *PeriodService) summarize(ctx context.Context, period *model.AttendancePeriod) (*dto.PeriodSummary, error) {
	conflictCount, err := Reconcile().ConflictCount(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}

	return &dto.PeriodSummary{
		ID:            period.ID,
		Name:          period.Name,
		StartDate:     utils.FormatDate(period.StartDate),
		EndDate:       utils.FormatDate(period.EndDate),
		Status:        string(period.Status),
		RecordCount:   period.RecordCount,
		EmployeeCount: period.EmployeeCount,
		ConflictCount: conflictCount,
		FinalizedAt:   period.FinalizedAt,
	}, nil
}
