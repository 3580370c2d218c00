package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"AttendOK/internal/model"
	"AttendOK/internal/model/dto"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/snowflake"
	"AttendOK/storage/database"
	"AttendOK/utils"
)

// 打卡合并：同一员工同一天的打卡收敛为一条考勤记录
// 设备不区分上下班方向，最早一次视为上班、最晚一次视为下班

// expectedPunchesPerDay 一天内无冲突的最大打卡数
const expectedPunchesPerDay = 2

var (
	reconcileService *ReconcileService
	reconcileOnce    sync.Once
)

func Reconcile() *ReconcileService {
	reconcileOnce.Do(func() {
		reconcileService = &ReconcileService{}
	})
	return reconcileService
}

type ReconcileService struct{}

// PunchEvent 已映射到员工的打卡事件
type PunchEvent struct {
	EmployeeID    int64
	TransactionID string
	DeviceID      string
	PunchedAt     time.Time
}

// MergedDay 一名员工一天的合并结果
type MergedDay struct {
	EmployeeID     int64
	WorkDate       time.Time
	ClockInAt      *time.Time
	ClockOutAt     *time.Time
	TotalHours     *float64
	TransactionID  string // 当天最早打卡的事务 ID，作为记录锚点
	DeviceID       string
	SyncStatus     model.SyncStatus
	PunchCount     int
	HasConflict    bool
	ConflictDetail string
}

// MergeDay 合并同一员工同一天的打卡，入参至少一条且必须同人同天
func MergeDay(punches []PunchEvent) MergedDay {
	sorted := append([]PunchEvent(nil), punches...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PunchedAt.Before(sorted[j].PunchedAt)
	})

	first := sorted[0]
	merged := MergedDay{
		EmployeeID:    first.EmployeeID,
		WorkDate:      utils.DateOf(first.PunchedAt),
		TransactionID: first.TransactionID,
		DeviceID:      first.DeviceID,
		PunchCount:    len(sorted),
	}

	clockIn := first.PunchedAt
	merged.ClockInAt = &clockIn

	if len(sorted) == 1 {
		// 只有单次打卡，记录不完整
		merged.SyncStatus = model.SyncStatusPartial
		return merged
	}

	clockOut := sorted[len(sorted)-1].PunchedAt
	merged.ClockOutAt = &clockOut

	hours := utils.HoursBetween(clockIn, clockOut)
	merged.TotalHours = &hours
	merged.SyncStatus = model.SyncStatusSuccess

	if len(sorted) > expectedPunchesPerDay {
		merged.HasConflict = true
		merged.ConflictDetail = fmt.Sprintf(
			"%d punches recorded on %s, expected at most %d; using earliest as clock-in and latest as clock-out",
			len(sorted), utils.FormatDate(merged.WorkDate), expectedPunchesPerDay,
		)
	}

	return merged
}

// GroupAndMerge 按（员工，日期）分组后逐天合并
func GroupAndMerge(punches []PunchEvent) []MergedDay {
	type dayKey struct {
		employeeID int64
		date       string
	}

	groups := make(map[dayKey][]PunchEvent)
	for _, p := range punches {
		key := dayKey{employeeID: p.EmployeeID, date: utils.FormatDate(utils.DateOf(p.PunchedAt))}
		groups[key] = append(groups[key], p)
	}

	merged := make([]MergedDay, 0, len(groups))
	for _, group := range groups {
		merged = append(merged, MergeDay(group))
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].EmployeeID != merged[j].EmployeeID {
			return merged[i].EmployeeID < merged[j].EmployeeID
		}
		return merged[i].WorkDate.Before(merged[j].WorkDate)
	})

	return merged
}

// UpsertResult 合并落库结果
type UpsertResult struct {
	Created   int
	Updated   int
	Conflicts int
	Skipped   int // 已封账的记录不再改动
}

// Upsert 将合并结果幂等写入考勤记录表
// 同一员工同一天只保留一条记录：上下班打卡分批同步到达时，
// 后到的批次补全已有记录，而不是新建第二条
// 库内时间无法由当天打卡重现时，保留库内值并标记冲突等待人工裁定
func (s *ReconcileService) Upsert(ctx context.Context, days []MergedDay) (*UpsertResult, error) {
	result := &UpsertResult{}
	db := database.DB().WithContext(ctx)

	for i := range days {
		day := &days[i]

		var existing model.AttendanceRecord
		err := db.Where(
			"employee_id = ? AND work_date = ?",
			day.EmployeeID, day.WorkDate,
		).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := model.AttendanceRecord{
				EmployeeID:          day.EmployeeID,
				WorkDate:            day.WorkDate,
				DeviceTransactionID: day.TransactionID,
				DeviceID:            day.DeviceID,
				ClockInAt:           day.ClockInAt,
				ClockOutAt:          day.ClockOutAt,
				TotalHours:          day.TotalHours,
				SyncStatus:          day.SyncStatus,
				ValidationStatus:    model.ValidationStatusValidated,
				HasConflict:         day.HasConflict,
				ConflictDetail:      day.ConflictDetail,
			}
			if day.HasConflict {
				record.ValidationStatus = model.ValidationStatusPending
			}
			if createErr := db.Create(&record).Error; createErr != nil {
				return nil, fmt.Errorf("failed to create attendance record: %w", createErr)
			}
			result.Created++
			if day.HasConflict {
				result.Conflicts++
			}

		case err != nil:
			return nil, fmt.Errorf("failed to query attendance record: %w", err)

		case existing.Locked:
			result.Skipped++

		default:
			switch classifyDay(&existing, day) {
			case dayActionSkip:
				if day.HasConflict && !existing.HasConflict {
					// 同步侧发现事务时间戳被设备改写，落冲突标记
					if flagErr := s.flagConflict(db, &existing, day.ConflictDetail); flagErr != nil {
						return nil, flagErr
					}
					result.Updated++
					result.Conflicts++
				} else {
					result.Skipped++
				}

			case dayActionUpdate:
				updates := map[string]interface{}{
					"clock_in_at":           day.ClockInAt,
					"clock_out_at":          day.ClockOutAt,
					"total_hours":           day.TotalHours,
					"sync_status":           day.SyncStatus,
					"device_transaction_id": day.TransactionID,
					"device_id":             day.DeviceID,
					"has_conflict":          day.HasConflict,
					"conflict_detail":       day.ConflictDetail,
					"validation_status":     model.ValidationStatusValidated,
				}
				if day.HasConflict {
					updates["validation_status"] = model.ValidationStatusPending
				}
				if updateErr := db.Model(&existing).Updates(updates).Error; updateErr != nil {
					return nil, fmt.Errorf("failed to update attendance record: %w", updateErr)
				}
				result.Updated++
				if day.HasConflict {
					result.Conflicts++
				}

			case dayActionConflict:
				detail := day.ConflictDetail
				if detail == "" {
					detail = fmt.Sprintf(
						"re-sync produced different timestamps for %s: stored [%s - %s], incoming [%s - %s]",
						utils.FormatDate(day.WorkDate),
						formatClock(existing.ClockInAt), formatClock(existing.ClockOutAt),
						formatClock(day.ClockInAt), formatClock(day.ClockOutAt),
					)
				}
				if flagErr := s.flagConflict(db, &existing, detail); flagErr != nil {
					return nil, flagErr
				}
				result.Updated++
				result.Conflicts++
			}
		}
	}

	logger.Logger.Info("Attendance reconciliation upsert finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("conflicts", result.Conflicts),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// ResolveConflict 人工裁定冲突记录
// 已封账的记录不允许裁定，先解锁周期
func (s *ReconcileService) ResolveConflict(ctx context.Context, recordID, actorID int64, req *dto.ResolveConflictRequest) (*dto.AttendanceRecordView, error) {
	var resolved model.AttendanceRecord

	err := database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.AttendanceRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.RecordNotFound
			}
			return fmt.Errorf("failed to query attendance record: %w", err)
		}

		if record.Locked {
			return pkgerrors.RecordLocked
		}
		if !record.HasConflict {
			return pkgerrors.RecordNotConflict
		}

		if req.ClockInAt != nil {
			record.ClockInAt = req.ClockInAt
		}
		if req.ClockOutAt != nil {
			record.ClockOutAt = req.ClockOutAt
		}

		if record.ClockInAt != nil && record.ClockOutAt != nil {
			hours := utils.HoursBetween(*record.ClockInAt, *record.ClockOutAt)
			record.TotalHours = &hours
			record.SyncStatus = model.SyncStatusSuccess
		} else {
			record.TotalHours = nil
			record.SyncStatus = model.SyncStatusPartial
		}

		record.HasConflict = false
		record.ConflictDetail = ""
		record.ValidationStatus = model.ValidationStatusValidated

		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save resolved record: %w", err)
		}

		if err := writeAudit(tx, model.AuditActionConflictResolved, "attendance_record", record.ID, actorID, map[string]interface{}{
			"note":         req.Note,
			"clock_in_at":  record.ClockInAt,
			"clock_out_at": record.ClockOutAt,
		}); err != nil {
			return err
		}

		resolved = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Attendance conflict resolved",
		zap.Int64("record_id", resolved.ID),
		zap.Int64("actor_id", actorID),
	)

	return recordView(&resolved), nil
}

// ConflictCount 统计日期区间内未裁定的冲突数
func (s *ReconcileService) ConflictCount(ctx context.Context, startDate, endDate time.Time) (int64, error) {
	var count int64
	err := database.DB().WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("work_date BETWEEN ? AND ? AND has_conflict = ?", startDate, endDate, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicts: %w", err)
	}
	return count, nil
}

// ListConflicts 列出日期区间内未裁定的冲突记录
func (s *ReconcileService) ListConflicts(ctx context.Context, startDate, endDate time.Time) ([]dto.AttendanceRecordView, error) {
	var records []model.AttendanceRecord
	err := database.DB().WithContext(ctx).
		Where("work_date BETWEEN ? AND ? AND has_conflict = ?", startDate, endDate, true).
		Order("work_date, employee_id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	views := make([]dto.AttendanceRecordView, 0, len(records))
	for i := range records {
		views = append(views, *recordView(&records[i]))
	}
	return views, nil
}

// dayAction 已有记录与当天重并结果的处置方式
type dayAction int

const (
	dayActionSkip dayAction = iota
	dayActionUpdate
	dayActionConflict
)

// classifyDay 判断当天的全量合并结果如何作用于已有记录
// 时间完全一致是重放，跳过；已有记录不完整且其时间落在新区间内，
// 说明当天打卡分批到达，直接补全；其余情况库内时间与当天打卡
// 对不上，标冲突等待人工裁定
func classifyDay(existing *model.AttendanceRecord, day *MergedDay) dayAction {
	if !timestampsDiffer(existing, day) {
		return dayActionSkip
	}

	incomplete := existing.ClockInAt == nil || existing.ClockOutAt == nil
	if incomplete && covers(day, existing.ClockInAt) && covers(day, existing.ClockOutAt) {
		return dayActionUpdate
	}

	return dayActionConflict
}

// covers 时间戳是否落在合并区间内，nil 视为已覆盖
func covers(day *MergedDay, t *time.Time) bool {
	if t == nil {
		return true
	}
	if day.ClockInAt == nil {
		return false
	}
	if t.Before(*day.ClockInAt) {
		return false
	}

	end := day.ClockInAt
	if day.ClockOutAt != nil {
		end = day.ClockOutAt
	}
	return !t.After(*end)
}

func (s *ReconcileService) flagConflict(db *gorm.DB, record *model.AttendanceRecord, detail string) error {
	updates := map[string]interface{}{
		"has_conflict":      true,
		"conflict_detail":   detail,
		"validation_status": model.ValidationStatusPending,
	}
	if err := db.Model(record).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to flag attendance conflict: %w", err)
	}
	return nil
}

func timestampsDiffer(existing *model.AttendanceRecord, day *MergedDay) bool {
	return !timeEqual(existing.ClockInAt, day.ClockInAt) || !timeEqual(existing.ClockOutAt, day.ClockOutAt)
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("15:04:05")
}

func recordView(record *model.AttendanceRecord) *dto.AttendanceRecordView {
	return &dto.AttendanceRecordView{
		ID:               record.ID,
		EmployeeID:       record.EmployeeID,
		WorkDate:         utils.FormatDate(record.WorkDate),
		ClockInAt:        record.ClockInAt,
		ClockOutAt:       record.ClockOutAt,
		TotalHours:       record.TotalHours,
		SyncStatus:       string(record.SyncStatus),
		ValidationStatus: string(record.ValidationStatus),
		HasConflict:      record.HasConflict,
		ConflictDetail:   record.ConflictDetail,
		Locked:           record.Locked,
	}
}

// writeAudit 在事务内追加审计记录
func writeAudit(tx *gorm.DB, action model.AuditAction, entityType string, entityID, actorID int64, detail map[string]interface{}) error {
	entryCode, err := snowflake.NextID(snowflake.GeneratorTypeAudit)
	if err != nil {
		return fmt.Errorf("failed to generate audit entry code: %w", err)
	}

	var detailJSON datatypes.JSON
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
		detailJSON = datatypes.JSON(raw)
	}

	entry := model.AuditEntry{
		EntryCode:  entryCode,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Detail:     detailJSON,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}
