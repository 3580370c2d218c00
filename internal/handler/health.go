package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/pkg/response"
	"AttendOK/storage/database"
	"AttendOK/storage/redis"
)

// Health 健康检查，同时探测数据库和 Redis
// GET /v1/health
func Health(ctx context.Context, c *app.RequestContext) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	healthy := true

	if sqlDB, err := database.DB().DB(); err != nil {
		status["postgres"] = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(probeCtx); err != nil {
		status["postgres"] = err.Error()
		healthy = false
	}

	if err := redis.Client().Ping(probeCtx).Err(); err != nil {
		status["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		c.JSON(503, map[string]interface{}{
			"status":     "degraded",
			"components": status,
		})
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"status":     "ok",
		"components": status,
	})
}
