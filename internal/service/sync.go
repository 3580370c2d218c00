package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"AttendOK/config"
	"AttendOK/internal/cache"
	"AttendOK/internal/devicelink"
	"AttendOK/internal/identity"
	"AttendOK/internal/model"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/queue"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/terminal"
	"AttendOK/storage/database"
	"AttendOK/utils"
)

// 设备同步编排：拉取打卡 → 落原始事件 → 身份映射 → 合并考勤
// 定时任务和手动触发共用这条路径，分布式锁保证同一设备不并发同步

const syncLockTTL = 5 * time.Minute

var (
	syncService *SyncService
	syncOnce    sync.Once
)

func Sync() *SyncService {
	syncOnce.Do(func() {
		syncService = &SyncService{}
	})
	return syncService
}

type SyncService struct{}

// SyncDevice 同步单台设备
func (s *SyncService) SyncDevice(ctx context.Context, deviceID string) (*dto.SyncDeviceResponse, error) {
	device, ok := findDevice(deviceID)
	if !ok {
		return nil, pkgerrors.DeviceNotFound
	}

	acquired, err := cache.TryLock(ctx, "sync:"+deviceID, syncLockTTL)
	if err != nil {
		logger.Logger.Warn("Failed to acquire sync lock, proceeding without it",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	} else if !acquired {
		return nil, fmt.Errorf("sync already in progress for device %s", deviceID)
	} else {
		defer func() {
			if unlockErr := cache.Unlock(ctx, "sync:"+deviceID); unlockErr != nil {
				logger.Logger.Warn("Failed to release sync lock", zap.Error(unlockErr))
			}
		}()
	}

	db := database.DB().WithContext(ctx)

	var cursor model.DeviceCursor
	err = db.Where("device_id = ?", deviceID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cursor = model.DeviceCursor{DeviceID: deviceID}
		if err := db.Create(&cursor).Error; err != nil {
			return nil, fmt.Errorf("failed to create device cursor: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load device cursor: %w", err)
	}

	var punches []terminal.Punch
	execErr := devicelink.GetExecutor().Execute(ctx, "fetch_punches", deviceID, func(opCtx context.Context) error {
		fetched, fetchErr := terminal.FetchPunches(opCtx, device, cursor.LastTransactionID)
		if fetchErr != nil {
			return fetchErr
		}
		punches = fetched
		return nil
	})
	if execErr != nil {
		s.recordSyncFailure(ctx, &cursor, execErr)
		return nil, execErr
	}

	resp := &dto.SyncDeviceResponse{
		DeviceID: deviceID,
		Fetched:  len(punches),
		SyncedAt: time.Now(),
	}

	if len(punches) == 0 {
		s.touchCursor(ctx, &cursor, cursor.LastTransactionID)
		return resp, nil
	}

	mismatched, err := s.storeRawPunches(ctx, deviceID, punches)
	if err != nil {
		return nil, err
	}

	merged, unmatched, err := s.reconcilePunches(ctx, deviceID, punches, mismatched)
	if err != nil {
		return nil, err
	}
	resp.Merged = merged
	resp.Unmatched = unmatched

	// 游标推进到本批最后一条
	last := punches[len(punches)-1]
	s.touchCursor(ctx, &cursor, last.TransactionID)
	resp.CursorAdvanced = last.TransactionID != ""

	logger.Logger.Info("Device sync finished",
		zap.String("device_id", deviceID),
		zap.Int("fetched", resp.Fetched),
		zap.Int("merged", resp.Merged),
		zap.Int("unmatched", resp.Unmatched),
	)

	return resp, nil
}

// SyncAll 逐台同步设备池，单台失败不影响其余设备
func (s *SyncService) SyncAll(ctx context.Context) (*dto.SyncAllResponse, error) {
	resp := &dto.SyncAllResponse{
		BatchID: uuid.NewString(),
	}

	for _, device := range config.Cfg.DevicePool() {
		result, err := s.SyncDevice(ctx, device.ID)
		if err != nil {
			failure := dto.SyncFailure{
				DeviceID: device.ID,
				Error:    err.Error(),
			}

			var de *devicelink.DeviceError
			if errors.As(err, &de) {
				failure.Category = string(de.Category)
				failure.Severity = string(de.Severity)
			}

			logger.Logger.Warn("Device sync failed in batch",
				zap.String("batch_id", resp.BatchID),
				zap.String("device_id", device.ID),
				zap.Error(err),
			)
			resp.Failures = append(resp.Failures, failure)
			continue
		}
		resp.Devices = append(resp.Devices, *result)
	}

	logger.Logger.Info("Device sync batch finished",
		zap.String("batch_id", resp.BatchID),
		zap.Int("succeeded", len(resp.Devices)),
		zap.Int("failed", len(resp.Failures)),
	)

	return resp, nil
}

// TestDevices 逐台测试连通性，始终返回全部设备的结果
func (s *SyncService) TestDevices(ctx context.Context) []dto.DeviceTestResult {
	pool := config.Cfg.DevicePool()
	results := make([]dto.DeviceTestResult, 0, len(pool))

	for _, device := range pool {
		pingCtx, cancel := context.WithTimeout(ctx, device.Timeout())
		start := time.Now()
		err := terminal.Ping(pingCtx, device)
		latency := time.Since(start)

		result := dto.DeviceTestResult{
			DeviceID:  device.ID,
			Reachable: err == nil,
			LatencyMs: latency.Milliseconds(),
		}
		if err != nil {
			result.Error = err.Error()
			result.LatencyMs = 0
		} else if info, infoErr := terminal.FetchDeviceInfo(pingCtx, device); infoErr == nil {
			// 设备信息拿不到不影响连通性结论
			result.Model = info.Model
			result.SerialNumber = info.SerialNumber
			result.Firmware = info.Firmware
		}
		cancel()
		results = append(results, result)
	}

	return results
}

// ListDeviceUsers 拉取设备上登记的用户并标注映射结果
// 用于排查哪些设备用户还没有对应的员工档案
func (s *SyncService) ListDeviceUsers(ctx context.Context, deviceID string) (*dto.DeviceUsersResponse, error) {
	device, ok := findDevice(deviceID)
	if !ok {
		return nil, pkgerrors.DeviceNotFound
	}

	var users []terminal.TerminalUser
	execErr := devicelink.GetExecutor().Execute(ctx, "fetch_users", deviceID, func(opCtx context.Context) error {
		fetched, fetchErr := terminal.FetchUsers(opCtx, device)
		if fetchErr != nil {
			return fetchErr
		}
		users = fetched
		return nil
	})
	if execErr != nil {
		return nil, execErr
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.TerminalUserID)
	}

	batch, err := identity.Get().ResolveBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &dto.DeviceUsersResponse{
		DeviceID: deviceID,
		Users:    make([]dto.DeviceUserView, 0, len(users)),
	}

	for _, u := range users {
		view := dto.DeviceUserView{
			TerminalUserID: u.TerminalUserID,
			Name:           u.Name,
		}
		if entry, ok := batch.Matched[u.TerminalUserID]; ok {
			view.Mapped = true
			view.EmployeeID = entry.EmployeeID
			view.EmployeeCode = entry.Code
			view.EmployeeName = entry.Name
			resp.MappedCount++
		} else {
			resp.UnmappedCount++
		}
		resp.Users = append(resp.Users, view)
	}

	resp.Total = len(resp.Users)
	return resp, nil
}

// ValidateEmployeeIDs 批量校验考勤机用户 ID，返回有效/无效分区
// 单个 ID 失败不影响整批，始终部分成功
func (s *SyncService) ValidateEmployeeIDs(ctx context.Context, terminalUserIDs []string) (*dto.ValidateEmployeesResponse, error) {
	batch, err := identity.Get().ResolveBatch(ctx, terminalUserIDs)
	if err != nil {
		return nil, err
	}

	resp := &dto.ValidateEmployeesResponse{
		Valid:   make([]dto.ValidEmployee, 0, len(batch.Matched)),
		Invalid: append([]string(nil), batch.Unmatched...),
	}

	for terminalUserID, entry := range batch.Matched {
		resp.Valid = append(resp.Valid, dto.ValidEmployee{
			TerminalUserID: terminalUserID,
			EmployeeID:     entry.EmployeeID,
			Code:           entry.Code,
			Name:           entry.Name,
		})
	}

	sort.Slice(resp.Valid, func(i, j int) bool { return resp.Valid[i].TerminalUserID < resp.Valid[j].TerminalUserID })
	sort.Strings(resp.Invalid)

	resp.ValidCount = len(resp.Valid)
	resp.InvalidCount = len(resp.Invalid)
	return resp, nil
}

// storeRawPunches 幂等落库原始打卡事件，库内时间戳始终以首次上报为准
// 返回与库内已存时间戳不一致的事务，交给合并侧标冲突
func (s *SyncService) storeRawPunches(ctx context.Context, deviceID string, punches []terminal.Punch) (map[string]time.Time, error) {
	db := database.DB().WithContext(ctx)

	txIDs := make([]string, 0, len(punches))
	for _, p := range punches {
		txIDs = append(txIDs, p.TransactionID)
	}

	var stored []model.RawPunch
	err := db.Select("device_transaction_id", "punched_at").
		Where("device_id = ? AND device_transaction_id IN ?", deviceID, txIDs).
		Find(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stored punches: %w", err)
	}

	storedAt := make(map[string]time.Time, len(stored))
	for i := range stored {
		storedAt[stored[i].DeviceTransactionID] = stored[i].PunchedAt
	}

	mismatched := make(map[string]time.Time)
	rows := make([]model.RawPunch, 0, len(punches))
	now := time.Now()
	for _, p := range punches {
		if at, ok := storedAt[p.TransactionID]; ok && !at.Equal(p.PunchedAt) {
			mismatched[p.TransactionID] = at
		}
		rows = append(rows, model.RawPunch{
			DeviceID:            deviceID,
			DeviceTransactionID: p.TransactionID,
			TerminalUserID:      p.TerminalUserID,
			PunchedAt:           p.PunchedAt,
			ReceivedAt:          now,
		})
	}

	// 重复同步的事务 ID 直接忽略
	err = db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 200).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store raw punches: %w", err)
	}
	return mismatched, nil
}

// reconcilePunches 身份映射后合并为考勤记录
// 合并对象不是本批打卡，而是本批触及的（员工，日期）在库内的全部打卡，
// 同一天的上下班分两次同步到达时，后一批补全前一批生成的记录
func (s *SyncService) reconcilePunches(ctx context.Context, deviceID string, punches []terminal.Punch, mismatched map[string]time.Time) (merged, unmatched int, err error) {
	terminalUserIDs := make([]string, 0, len(punches))
	for _, p := range punches {
		terminalUserIDs = append(terminalUserIDs, p.TerminalUserID)
	}

	batch, err := identity.Get().ResolveBatch(ctx, terminalUserIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve identities: %w", err)
	}

	// 本批触及的（考勤机用户，日期），这些天需要整天重并
	type userDay struct {
		terminalUserID string
		date           string
	}
	affected := make(map[userDay]struct{})
	matchedIDs := make([]string, 0, len(batch.Matched))
	seenUser := make(map[string]struct{})
	var minDay, maxDay time.Time
	for _, p := range punches {
		if _, ok := batch.Matched[p.TerminalUserID]; !ok {
			unmatched++
			continue
		}

		day := utils.DateOf(p.PunchedAt)
		affected[userDay{terminalUserID: p.TerminalUserID, date: utils.FormatDate(day)}] = struct{}{}
		if _, ok := seenUser[p.TerminalUserID]; !ok {
			seenUser[p.TerminalUserID] = struct{}{}
			matchedIDs = append(matchedIDs, p.TerminalUserID)
		}
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}

	if len(batch.Unmatched) > 0 {
		logger.Logger.Warn("Punches with unmapped terminal users",
			zap.String("device_id", deviceID),
			zap.Strings("terminal_user_ids", batch.Unmatched),
		)
	}

	if len(affected) == 0 {
		return 0, unmatched, nil
	}

	// 取库内这些员工在触及日期范围内的全部打卡，保证整天重并
	var rows []model.RawPunch
	err = database.DB().WithContext(ctx).
		Where("device_id = ? AND terminal_user_id IN ? AND punched_at >= ? AND punched_at < ?",
			deviceID, matchedIDs, minDay, maxDay.AddDate(0, 0, 1)).
		Find(&rows).Error
	if err != nil {
		return 0, unmatched, fmt.Errorf("failed to load punches for merge: %w", err)
	}

	type mergeKey struct {
		employeeID int64
		date       string
	}

	// 设备改写了历史事务的时间戳，按库内时间所在的那天标冲突
	resyncDetail := make(map[mergeKey]string)
	for _, p := range punches {
		storedTime, ok := mismatched[p.TransactionID]
		if !ok {
			continue
		}
		entry, ok := batch.Matched[p.TerminalUserID]
		if !ok {
			continue
		}
		key := mergeKey{employeeID: entry.EmployeeID, date: utils.FormatDate(utils.DateOf(storedTime))}
		resyncDetail[key] = fmt.Sprintf(
			"device re-sync mismatch: transaction %s reported %s, stored %s",
			p.TransactionID, p.PunchedAt.Format(time.RFC3339), storedTime.Format(time.RFC3339),
		)
	}

	events := make([]PunchEvent, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		key := userDay{terminalUserID: row.TerminalUserID, date: utils.FormatDate(utils.DateOf(row.PunchedAt))}
		if _, ok := affected[key]; !ok {
			continue
		}
		entry, ok := batch.Matched[row.TerminalUserID]
		if !ok {
			continue
		}
		events = append(events, PunchEvent{
			EmployeeID:    entry.EmployeeID,
			TransactionID: row.DeviceTransactionID,
			DeviceID:      deviceID,
			PunchedAt:     row.PunchedAt,
		})
	}

	if len(events) == 0 {
		return 0, unmatched, nil
	}

	days := GroupAndMerge(events)
	for i := range days {
		key := mergeKey{employeeID: days[i].EmployeeID, date: utils.FormatDate(days[i].WorkDate)}
		if detail, ok := resyncDetail[key]; ok {
			days[i].HasConflict = true
			days[i].ConflictDetail = detail
		}
	}

	result, err := Reconcile().Upsert(ctx, days)
	if err != nil {
		return 0, unmatched, err
	}

	return result.Created + result.Updated, unmatched, nil
}

// recordSyncFailure 记录失败并按严重级别发设备告警
func (s *SyncService) recordSyncFailure(ctx context.Context, cursor *model.DeviceCursor, execErr error) {
	updates := map[string]interface{}{"last_error": execErr.Error()}
	if err := database.DB().WithContext(ctx).Model(cursor).Updates(updates).Error; err != nil {
		logger.Logger.Warn("Failed to record sync failure", zap.Error(err))
	}

	var de *devicelink.DeviceError
	if errors.As(execErr, &de) {
		queue.PublishDeviceAlert(de.DeviceID, string(de.Category), string(de.Severity), de.Error())
	}
}

func (s *SyncService) touchCursor(ctx context.Context, cursor *model.DeviceCursor, lastTransactionID string) {
	now := time.Now()
	updates := map[string]interface{}{
		"last_transaction_id": lastTransactionID,
		"last_synced_at":      now,
		"last_error":          "",
	}
	if err := database.DB().WithContext(ctx).Model(cursor).Updates(updates).Error; err != nil {
		logger.Logger.Warn("Failed to advance device cursor",
			zap.String("device_id", cursor.DeviceID),
			zap.Error(err),
		)
	}
}

func findDevice(deviceID string) (config.DeviceAddr, bool) {
	for _, device := range config.Cfg.DevicePool() {
		if device.ID == deviceID {
			return device, true
		}
	}
	return config.DeviceAddr{}, false
}
