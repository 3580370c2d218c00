package cache

import (
	"context"
	"time"

	"AttendOK/storage/redis"
)

// 消息消费幂等标记，重复投递的消息第二次会被跳过

const messagePrefix = "msg"

// TryMarkMessageProcessing 尝试标记消息开始处理
// 返回 true 表示首次处理，false 表示已有消费者处理过
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messagePrefix, messageID)
	return redis.Client().SetNX(ctx, key, 1, ttl).Result()
}

// UnmarkMessageProcessing 处理失败时撤销标记，允许重试
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messagePrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}
