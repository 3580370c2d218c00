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
	"gorm.io/gorm/clause"

	"AttendOK/config"
	"AttendOK/internal/model"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/queue"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/storage/database"
	"AttendOK/utils"
)

// 薪资引擎：只消费已封账的考勤周期
// 重算整批删除重建，绝不留下部分结果；审批后周期冻结

var (
	payrollService *PayrollService
	payrollOnce    sync.Once
)

func Payroll() *PayrollService {
	payrollOnce.Do(func() {
		cfg := config.Cfg
		payrollService = &PayrollService{
			dailyThreshold:  cfg.PayrollDailyThreshold,
			weeklyThreshold: cfg.PayrollWeeklyThreshold,
			multiplier:      cfg.PayrollOvertimeMultiplier,
			defaultRate:     cfg.PayrollDefaultHourlyRate,
		}
	})
	return payrollService
}

type PayrollService struct {
	dailyThreshold  float64
	weeklyThreshold float64
	multiplier      float64
	defaultRate     float64
}

// ValidateEligibility 校验考勤周期是否可以进入薪资计算
// 周期必须存在且已封账；已审批的薪资周期不允许重算
func (s *PayrollService) ValidateEligibility(ctx context.Context, attendancePeriodID int64) (*model.AttendancePeriod, *model.PayrollPeriod, error) {
	db := database.DB().WithContext(ctx)

	var period model.AttendancePeriod
	if err := db.First(&period, attendancePeriodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.PeriodNotFound
		}
		return nil, nil, fmt.Errorf("failed to query period: %w", err)
	}

	var payrollPtr *model.PayrollPeriod
	var payroll model.PayrollPeriod
	err := db.Where("attendance_period_id = ?", attendancePeriodID).First(&payroll).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, nil, fmt.Errorf("failed to query payroll period: %w", err)
	default:
		payrollPtr = &payroll
	}

	if err := validateEligibility(&period, payrollPtr); err != nil {
		return nil, nil, err
	}

	return &period, payrollPtr, nil
}

// validateEligibility 纯状态校验：周期必须已封账，已审批的薪资周期冻结
func validateEligibility(period *model.AttendancePeriod, payroll *model.PayrollPeriod) error {
	if period.Status != model.PeriodStatusFinalized {
		return pkgerrors.PayrollNotEligible
	}
	if payroll != nil && payroll.Status == model.PayrollStatusApproved {
		return pkgerrors.PayrollAlreadyApproved
	}
	return nil
}

// validateApprove 只有 CALCULATED 状态可以审批
func validateApprove(payroll *model.PayrollPeriod) error {
	switch payroll.Status {
	case model.PayrollStatusApproved:
		return pkgerrors.PayrollAlreadyApproved
	case model.PayrollStatusCalculated:
		return nil
	default:
		return pkgerrors.PayrollNotCalculated
	}
}

// Preview 只读计算，不落库
func (s *PayrollService) Preview(ctx context.Context, attendancePeriodID int64, employeeIDs []int64) (*dto.PayrollResultResponse, error) {
	period, _, err := s.ValidateEligibility(ctx, attendancePeriodID)
	if err != nil {
		return nil, err
	}

	lines, _, totals, err := s.compute(ctx, period, employeeIDs)
	if err != nil {
		return nil, err
	}

	return &dto.PayrollResultResponse{
		AttendancePeriodID: period.ID,
		Status:             string(model.PayrollStatusCalculated),
		Preview:            true,
		TotalStandardHours: totals.standardHours,
		TotalOvertimeHours: totals.overtimeHours,
		TotalGrossAmount:   totals.grossAmount,
		Records:            lines,
	}, nil
}

// Calculate 计算薪资并落库
// 先置 CALCULATING，计算成功后整批删除重建薪资明细并置 CALCULATED，单个事务内完成
func (s *PayrollService) Calculate(ctx context.Context, attendancePeriodID, actorID int64, confirm bool, employeeIDs []int64) (*dto.PayrollResultResponse, error) {
	if !confirm {
		return nil, pkgerrors.ConfirmationRequired
	}

	period, payroll, err := s.ValidateEligibility(ctx, attendancePeriodID)
	if err != nil {
		return nil, err
	}

	db := database.DB().WithContext(ctx)

	// 计算前先进入 CALCULATING 状态
	if payroll == nil {
		payroll = &model.PayrollPeriod{
			AttendancePeriodID: period.ID,
			Status:             model.PayrollStatusCalculating,
		}
		if err := db.Create(payroll).Error; err != nil {
			return nil, fmt.Errorf("failed to create payroll period: %w", err)
		}
	} else {
		if err := db.Model(payroll).Update("status", model.PayrollStatusCalculating).Error; err != nil {
			return nil, fmt.Errorf("failed to mark payroll calculating: %w", err)
		}
	}

	lines, breakdowns, totals, err := s.compute(ctx, period, employeeIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		var locked model.PayrollPeriod
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, payroll.ID).Error; err != nil {
			return fmt.Errorf("failed to lock payroll period: %w", err)
		}
		if locked.Status == model.PayrollStatusApproved {
			return pkgerrors.PayrollAlreadyApproved
		}

		// 整批删除重建，绝不部分更新
		if err := tx.Unscoped().
			Where("payroll_period_id = ?", payroll.ID).
			Delete(&model.PayrollRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale payroll records: %w", err)
		}

		for i := range lines {
			record := model.PayrollRecord{
				PayrollPeriodID: payroll.ID,
				EmployeeID:      lines[i].EmployeeID,
				StandardHours:   lines[i].StandardHours,
				OvertimeHours:   lines[i].OvertimeHours,
				StandardRate:    lines[i].StandardRate,
				OvertimeRate:    lines[i].OvertimeRate,
				GrossPay:        lines[i].GrossPay,
				Breakdown:       breakdowns[lines[i].EmployeeID],
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to create payroll record: %w", err)
			}
		}

		updates := map[string]interface{}{
			"status":               model.PayrollStatusCalculated,
			"total_standard_hours": totals.standardHours,
			"total_overtime_hours": totals.overtimeHours,
			"total_gross_amount":   totals.grossAmount,
			"calculated_by":        actorID,
			"calculated_at":        now,
		}
		if err := tx.Model(&model.PayrollPeriod{}).Where("id = ?", payroll.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payroll period: %w", err)
		}

		return writeAudit(tx, model.AuditActionPayrollCalculate, "payroll_period", payroll.ID, actorID, map[string]interface{}{
			"attendance_period_id": period.ID,
			"record_count":         len(lines),
			"total_gross":          totals.grossAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Payroll calculated",
		zap.Int64("payroll_period_id", payroll.ID),
		zap.Int64("attendance_period_id", period.ID),
		zap.Int("record_count", len(lines)),
		zap.Float64("total_gross", totals.grossAmount),
	)

	queue.PublishPayrollCalculated(payroll.ID, period.ID, actorID, len(lines), totals.grossAmount)

	return &dto.PayrollResultResponse{
		PayrollPeriodID:    payroll.ID,
		AttendancePeriodID: period.ID,
		Status:             string(model.PayrollStatusCalculated),
		TotalStandardHours: totals.standardHours,
		TotalOvertimeHours: totals.overtimeHours,
		TotalGrossAmount:   totals.grossAmount,
		Records:            lines,
		CalculatedAt:       &now,
	}, nil
}

// Approve 审批已计算的薪资周期
// 只有 CALCULATED 状态可以审批，审批后 ValidateEligibility 会拒绝重算
func (s *PayrollService) Approve(ctx context.Context, attendancePeriodID, actorID int64, confirm bool, notes string) (*dto.ApprovePayrollResponse, error) {
	if !confirm {
		return nil, pkgerrors.ConfirmationRequired
	}

	var resp dto.ApprovePayrollResponse

	err := database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payroll model.PayrollPeriod
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("attendance_period_id = ?", attendancePeriodID).
			First(&payroll).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.PayrollNotFound
			}
			return fmt.Errorf("failed to query payroll period: %w", err)
		}

		if err := validateApprove(&payroll); err != nil {
			return err
		}

		now := time.Now()
		payroll.Status = model.PayrollStatusApproved
		payroll.ApprovedBy = &actorID
		payroll.ApprovedAt = &now
		payroll.ApprovalNotes = notes

		if err := tx.Save(&payroll).Error; err != nil {
			return fmt.Errorf("failed to approve payroll period: %w", err)
		}

		if err := writeAudit(tx, model.AuditActionPayrollApproved, "payroll_period", payroll.ID, actorID, map[string]interface{}{
			"notes": notes,
		}); err != nil {
			return err
		}

		resp = dto.ApprovePayrollResponse{
			PayrollPeriodID: payroll.ID,
			Status:          string(payroll.Status),
			ApprovedAt:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Payroll approved",
		zap.Int64("payroll_period_id", resp.PayrollPeriodID),
		zap.Int64("actor_id", actorID),
	)

	queue.PublishPayrollApproved(resp.PayrollPeriodID, actorID)

	return &resp, nil
}

// Get 查询已落库的薪资结果
func (s *PayrollService) Get(ctx context.Context, attendancePeriodID int64) (*dto.PayrollResultResponse, error) {
	db := database.DB().WithContext(ctx)

	var payroll model.PayrollPeriod
	if err := db.Where("attendance_period_id = ?", attendancePeriodID).First(&payroll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.PayrollNotFound
		}
		return nil, fmt.Errorf("failed to query payroll period: %w", err)
	}

	var records []model.PayrollRecord
	if err := db.Where("payroll_period_id = ?", payroll.ID).Order("employee_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load payroll records: %w", err)
	}

	ids := make([]int64, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].EmployeeID)
	}

	employeeByID := make(map[int64]*model.Employee, len(ids))
	if len(ids) > 0 {
		var employees []model.Employee
		if err := db.Where("id IN ?", ids).Find(&employees).Error; err != nil {
			return nil, fmt.Errorf("failed to load employees: %w", err)
		}
		for i := range employees {
			employeeByID[employees[i].ID] = &employees[i]
		}
	}

	lines := make([]dto.PayrollLineItem, 0, len(records))
	for i := range records {
		record := &records[i]
		line := dto.PayrollLineItem{
			EmployeeID:    record.EmployeeID,
			StandardHours: record.StandardHours,
			OvertimeHours: record.OvertimeHours,
			StandardRate:  record.StandardRate,
			OvertimeRate:  record.OvertimeRate,
			GrossPay:      record.GrossPay,
		}
		if employee, ok := employeeByID[record.EmployeeID]; ok {
			line.EmployeeCode = employee.Code
			line.EmployeeName = employee.Name
		}
		lines = append(lines, line)
	}

	return &dto.PayrollResultResponse{
		PayrollPeriodID:    payroll.ID,
		AttendancePeriodID: payroll.AttendancePeriodID,
		Status:             string(payroll.Status),
		TotalStandardHours: payroll.TotalStandardHours,
		TotalOvertimeHours: payroll.TotalOvertimeHours,
		TotalGrossAmount:   payroll.TotalGrossAmount,
		Records:            lines,
		CalculatedAt:       payroll.CalculatedAt,
	}, nil
}

type payrollTotals struct {
	standardHours float64
	overtimeHours float64
	grossAmount   float64
}

// compute 聚合周期内的考勤工时并逐员工计算
func (s *PayrollService) compute(ctx context.Context, period *model.AttendancePeriod, employeeIDs []int64) ([]dto.PayrollLineItem, map[int64]datatypes.JSON, payrollTotals, error) {
	db := database.DB().WithContext(ctx)

	query := db.Model(&model.AttendanceRecord{}).
		Where("work_date BETWEEN ? AND ? AND total_hours IS NOT NULL", period.StartDate, period.EndDate)
	if len(employeeIDs) > 0 {
		query = query.Where("employee_id IN ?", employeeIDs)
	}

	var records []model.AttendanceRecord
	if err := query.Order("employee_id, work_date").Find(&records).Error; err != nil {
		return nil, nil, payrollTotals{}, fmt.Errorf("failed to load attendance records: %w", err)
	}

	// 员工 → 按日工时
	hoursByEmployee := make(map[int64][]DailyHours)
	for i := range records {
		record := &records[i]
		hoursByEmployee[record.EmployeeID] = append(hoursByEmployee[record.EmployeeID], DailyHours{
			Date:  utils.FormatDate(record.WorkDate),
			Hours: *record.TotalHours,
		})
	}

	ids := make([]int64, 0, len(hoursByEmployee))
	for id := range hoursByEmployee {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var employees []model.Employee
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&employees).Error; err != nil {
			return nil, nil, payrollTotals{}, fmt.Errorf("failed to load employees: %w", err)
		}
	}

	employeeByID := make(map[int64]*model.Employee, len(employees))
	for i := range employees {
		employeeByID[employees[i].ID] = &employees[i]
	}

	lines := make([]dto.PayrollLineItem, 0, len(hoursByEmployee))
	breakdowns := make(map[int64]datatypes.JSON, len(hoursByEmployee))
	var totals payrollTotals

	for _, id := range ids {
		employee, ok := employeeByID[id]
		if !ok {
			logger.Logger.Warn("Attendance records reference unknown employee, skipping",
				zap.Int64("employee_id", id),
			)
			continue
		}

		rate := s.defaultRate
		if employee.HourlyRate != nil {
			rate = *employee.HourlyRate
		}

		split := ComputePay(hoursByEmployee[id], rate, s.dailyThreshold, s.weeklyThreshold, s.multiplier)

		breakdown, err := json.Marshal(map[string]interface{}{
			"daily":            split.Daily,
			"daily_threshold":  s.dailyThreshold,
			"weekly_threshold": s.weeklyThreshold,
			"multiplier":       s.multiplier,
			"weekly_shifted":   split.WeeklyShifted,
		})
		if err != nil {
			return nil, nil, payrollTotals{}, fmt.Errorf("failed to marshal breakdown: %w", err)
		}
		breakdowns[id] = datatypes.JSON(breakdown)

		lines = append(lines, dto.PayrollLineItem{
			EmployeeID:    id,
			EmployeeCode:  employee.Code,
			EmployeeName:  employee.Name,
			StandardHours: split.StandardHours,
			OvertimeHours: split.OvertimeHours,
			StandardRate:  split.StandardRate,
			OvertimeRate:  split.OvertimeRate,
			GrossPay:      split.GrossPay,
		})

		totals.standardHours = utils.Round2(totals.standardHours + split.StandardHours)
		totals.overtimeHours = utils.Round2(totals.overtimeHours + split.OvertimeHours)
		totals.grossAmount = utils.Round2(totals.grossAmount + split.GrossPay)
	}

	return lines, breakdowns, totals, nil
}
