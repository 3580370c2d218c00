package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/internal/middleware"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/service"
	"AttendOK/pkg/response"
)

// parseIDParam 解析路径里的数字 ID
func parseIDParam(c *app.RequestContext, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// CreatePeriod 创建考勤周期
// POST /v1/periods
func CreatePeriod(ctx context.Context, c *app.RequestContext) {
	var req dto.CreatePeriodRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Period().Create(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ListPeriods 按开始日期倒序列出考勤周期
// GET /v1/periods
func ListPeriods(ctx context.Context, c *app.RequestContext) {
	result, err := service.Period().List(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetPeriod 查询单个考勤周期
// GET /v1/periods/:period_id
func GetPeriod(ctx context.Context, c *app.RequestContext) {
	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Period().Get(ctx, periodID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// FinalizePeriod 封账考勤周期
// POST /v1/periods/:period_id/finalize
func FinalizePeriod(ctx context.Context, c *app.RequestContext) {
	actorID, ok := middleware.GetActorID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("actor ID not found in context"))
		return
	}

	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.FinalizePeriodRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Period().Finalize(ctx, periodID, actorID, req.Confirm)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// UnlockPeriod 解锁已封账的考勤周期
// POST /v1/periods/:period_id/unlock
func UnlockPeriod(ctx context.Context, c *app.RequestContext) {
	actorID, ok := middleware.GetActorID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("actor ID not found in context"))
		return
	}

	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.UnlockPeriodRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Period().Unlock(ctx, periodID, actorID, req.Confirm, req.Reason)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
