package cache

import (
	"context"
)

// 缓存考勤机用户 ID 到员工的映射结果，避免每条打卡都查一次数据库
// 未命中同样缓存（空值保护），防止无效 ID 反复穿透
// 键带映射策略，切换策略后旧条目自然失效

// IdentityEntry 员工映射缓存条目
type IdentityEntry struct {
	EmployeeID int64    `json:"employee_id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Active     bool     `json:"active"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
}

func identityKey(strategy, terminalUserID string) string {
	return strategy + ":" + terminalUserID
}

// SetIdentity 缓存映射结果，entry 为 nil 表示缓存未命中结论
func SetIdentity(ctx context.Context, strategy, terminalUserID string, entry *IdentityEntry) error {
	if entry == nil {
		return IdentityProtectedCache.Set(ctx, identityKey(strategy, terminalUserID), nil)
	}
	return IdentityProtectedCache.Set(ctx, identityKey(strategy, terminalUserID), entry)
}

// GetIdentity 读取映射缓存
// hit 为 true 且 entry 为 nil 时表示之前已确认该 ID 无法映射
func GetIdentity(ctx context.Context, strategy, terminalUserID string) (entry *IdentityEntry, hit bool, err error) {
	var cached IdentityEntry
	hit, empty, err := IdentityProtectedCache.Get(ctx, identityKey(strategy, terminalUserID), &cached)
	if err != nil {
		return nil, false, err
	}

	if !hit {
		return nil, false, nil
	}
	if empty {
		return nil, true, nil
	}

	return &cached, true, nil
}

// InvalidateIdentity 删除单个映射缓存，员工档案变更时调用
func InvalidateIdentity(ctx context.Context, strategy, terminalUserID string) error {
	return IdentityProtectedCache.Delete(ctx, identityKey(strategy, terminalUserID))
}

// ClearIdentities 清空全部映射缓存，切换映射策略或批量导入员工后调用
func ClearIdentities(ctx context.Context) error {
	return IdentityProtectedCache.DeleteByPrefix(ctx)
}
