package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/internal/model/dto"
	"AttendOK/internal/service"
	"AttendOK/pkg/response"
)

// SyncAllDevices 手动触发全设备池同步
// POST /v1/sync
func SyncAllDevices(ctx context.Context, c *app.RequestContext) {
	result, err := service.Sync().SyncAll(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// SyncDevice 手动触发单台设备同步
// POST /v1/sync/devices/:device_id
func SyncDevice(ctx context.Context, c *app.RequestContext) {
	deviceID := c.Param("device_id")

	result, err := service.Sync().SyncDevice(ctx, deviceID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// TestDevices 测试设备池连通性
// POST /v1/sync/test
func TestDevices(ctx context.Context, c *app.RequestContext) {
	results := service.Sync().TestDevices(ctx)
	response.Success(ctx, c, results)
}

// ValidateEmployees 批量校验考勤机用户 ID 能否映射为员工
// POST /v1/sync/validate-employees
func ValidateEmployees(ctx context.Context, c *app.RequestContext) {
	var req dto.ValidateEmployeesRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Sync().ValidateEmployeeIDs(ctx, req.TerminalUserIDs)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
