package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"AttendOK/config"
	"AttendOK/internal/cache"
	"AttendOK/internal/model"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/storage/database"
)

// 将考勤机的用户 ID 映射为员工档案
// 命中与未命中都会写入缓存，避免无效 ID 每次同步都打数据库

// batchConcurrency 批量映射的固定并发数
const batchConcurrency = 8

var (
	resolverService *Resolver
	resolverOnce    sync.Once
)

func Get() *Resolver {
	resolverOnce.Do(func() {
		resolverService = NewResolver(config.Cfg.IdentityStrategy, config.Cfg.IdentityEmailDomain)
	})
	return resolverService
}

type Resolver struct {
	strategy    string
	emailDomain string
}

// NewResolver 按显式配置构造映射器，不依赖全局配置
func NewResolver(strategy, emailDomain string) *Resolver {
	return &Resolver{
		strategy:    strategy,
		emailDomain: emailDomain,
	}
}

// EmailForPrefix 根据前缀拼出完整邮箱，域名缺 @ 时自动补全
func EmailForPrefix(prefix, domain string) string {
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return prefix + domain
}

// Resolve 将单个考勤机用户 ID 映射为员工
// 无法映射返回 EmployeeNotFound，映射到停用员工返回 EmployeeInactive
func (r *Resolver) Resolve(ctx context.Context, terminalUserID string) (*cache.IdentityEntry, error) {
	if terminalUserID == "" {
		return nil, pkgerrors.EmployeeNotFound
	}

	entry, hit, err := cache.GetIdentity(ctx, r.strategy, terminalUserID)
	if err != nil {
		// 缓存故障退化为直查数据库
		logger.Logger.Warn("Identity cache lookup failed, falling back to database",
			zap.String("terminal_user_id", terminalUserID),
			zap.Error(err),
		)
	} else if hit {
		if entry == nil {
			return nil, pkgerrors.EmployeeNotFound
		}
		if !entry.Active {
			return nil, pkgerrors.EmployeeInactive
		}
		return entry, nil
	}

	employee, err := r.lookup(ctx, terminalUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未命中也缓存，防止穿透
			if cacheErr := cache.SetIdentity(ctx, r.strategy, terminalUserID, nil); cacheErr != nil {
				logger.Logger.Warn("Failed to cache identity miss", zap.Error(cacheErr))
			}
			return nil, pkgerrors.EmployeeNotFound
		}
		return nil, fmt.Errorf("failed to resolve terminal user %s: %w", terminalUserID, err)
	}

	entry = &cache.IdentityEntry{
		EmployeeID: employee.ID,
		Code:       employee.Code,
		Name:       employee.Name,
		Active:     employee.Active,
		HourlyRate: employee.HourlyRate,
	}

	if cacheErr := cache.SetIdentity(ctx, r.strategy, terminalUserID, entry); cacheErr != nil {
		logger.Logger.Warn("Failed to cache identity hit", zap.Error(cacheErr))
	}

	if !employee.Active {
		return nil, pkgerrors.EmployeeInactive
	}

	return entry, nil
}

// BatchResult 批量映射结果
type BatchResult struct {
	Matched   map[string]*cache.IdentityEntry
	Unmatched []string
}

// ResolveBatch 并发映射一批考勤机用户 ID，并发数固定
// 单个 ID 映射失败不会中断整批，数据库故障的 ID 也归入未匹配，
// 结果永远是部分成功的分区
func (r *Resolver) ResolveBatch(ctx context.Context, terminalUserIDs []string) (*BatchResult, error) {
	result := &BatchResult{
		Matched: make(map[string]*cache.IdentityEntry, len(terminalUserIDs)),
	}

	seen := make(map[string]struct{}, len(terminalUserIDs))
	unique := make([]string, 0, len(terminalUserIDs))
	for _, id := range terminalUserIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, id := range unique {
		id := id
		g.Go(func() error {
			entry, err := r.Resolve(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			appendOutcome(result, id, entry, err)
			return nil
		})
	}

	// 失败都已折算进未匹配分区，等待只为收尾
	_ = g.Wait()

	return result, nil
}

// appendOutcome 将单个 ID 的映射结果归入批量分区
func appendOutcome(result *BatchResult, id string, entry *cache.IdentityEntry, err error) {
	switch {
	case err == nil:
		result.Matched[id] = entry
	case errors.Is(err, pkgerrors.EmployeeNotFound), errors.Is(err, pkgerrors.EmployeeInactive):
		result.Unmatched = append(result.Unmatched, id)
	default:
		logger.Logger.Warn("Identity lookup failed, counting terminal user as unmatched",
			zap.String("terminal_user_id", id),
			zap.Error(err),
		)
		result.Unmatched = append(result.Unmatched, id)
	}
}

// InvalidateCache 清空映射缓存，切换策略或批量导入员工后调用
func (r *Resolver) InvalidateCache(ctx context.Context) error {
	return cache.ClearIdentities(ctx)
}

// lookup 按配置的策略查询员工档案
func (r *Resolver) lookup(ctx context.Context, terminalUserID string) (*model.Employee, error) {
	db := database.DB().WithContext(ctx)

	var employee model.Employee
	var err error

	switch r.strategy {
	case "email_prefix":
		email := EmailForPrefix(terminalUserID, r.emailDomain)
		err = db.Where("email = ?", email).First(&employee).Error
	case "direct_id":
		err = db.Where("code = ?", terminalUserID).First(&employee).Error
	case "custom_field":
		err = db.Where("terminal_user_id = ?", terminalUserID).First(&employee).Error
	default:
		return nil, fmt.Errorf("unsupported identity strategy: %s", r.strategy)
	}

	if err != nil {
		return nil, err
	}

	return &employee, nil
}
