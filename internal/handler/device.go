package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"AttendOK/internal/devicelink"
	"AttendOK/internal/middleware"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/service"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/response"
)

// ListDeviceUsers 列出设备上登记的用户及映射结果
// GET /v1/devices/:device_id/users
func ListDeviceUsers(ctx context.Context, c *app.RequestContext) {
	deviceID := c.Param("device_id")

	result, err := service.Sync().ListDeviceUsers(ctx, deviceID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

func breakerView(status devicelink.BreakerStatus) dto.BreakerStatusResponse {
	view := dto.BreakerStatusResponse{
		DeviceID:     status.DeviceID,
		State:        status.State.String(),
		FailureCount: status.FailureCount,
	}
	if !status.LastFailureTime.IsZero() {
		t := status.LastFailureTime
		view.LastFailureTime = &t
	}
	if !status.OpenedAt.IsZero() {
		t := status.OpenedAt
		view.OpenedAt = &t
	}
	return view
}

// GetBreakerStatus 查询单台设备的熔断器状态
// GET /v1/devices/:device_id/breaker
func GetBreakerStatus(ctx context.Context, c *app.RequestContext) {
	deviceID := c.Param("device_id")

	breaker, ok := devicelink.GetExecutor().Breakers().Lookup(deviceID)
	if !ok {
		// 从未失败过的设备没有熔断器实例，视为 CLOSED
		response.Success(ctx, c, dto.BreakerStatusResponse{
			DeviceID: deviceID,
			State:    devicelink.StateClosed.String(),
		})
		return
	}

	response.Success(ctx, c, breakerView(breaker.Status()))
}

// ResetBreaker 手动复位熔断器，设备修复后运维调用
// POST /v1/devices/:device_id/breaker/reset
func ResetBreaker(ctx context.Context, c *app.RequestContext) {
	deviceID := c.Param("device_id")

	breaker, ok := devicelink.GetExecutor().Breakers().Lookup(deviceID)
	if !ok {
		response.Success(ctx, c, dto.BreakerStatusResponse{
			DeviceID: deviceID,
			State:    devicelink.StateClosed.String(),
		})
		return
	}

	breaker.Reset()

	actorID, _ := middleware.GetActorID(ctx, c)
	logger.Logger.Info("Circuit breaker manually reset",
		zap.String("device_id", deviceID),
		zap.Int64("actor_id", actorID),
		zap.Time("reset_at", time.Now()),
	)

	response.Success(ctx, c, breakerView(breaker.Status()))
}
