package handler

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/internal/middleware"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/service"
	"AttendOK/pkg/response"
	"AttendOK/utils"
)

// ListConflicts 按日期区间查询未裁定冲突
// GET /v1/records/conflicts?start_date=&end_date=
func ListConflicts(ctx context.Context, c *app.RequestContext) {
	startDate, err := utils.ParseDate(c.Query("start_date"))
	if err != nil {
		response.BindError(ctx, c, fmt.Errorf("invalid start_date: %w", err))
		return
	}
	endDate, err := utils.ParseDate(c.Query("end_date"))
	if err != nil {
		response.BindError(ctx, c, fmt.Errorf("invalid end_date: %w", err))
		return
	}

	result, err := service.Reconcile().ListConflicts(ctx, startDate, endDate)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, result, map[string]interface{}{
		"count": len(result),
	})
}

// ResolveConflict 人工裁定冲突记录
// POST /v1/records/:record_id/resolve-conflict
func ResolveConflict(ctx context.Context, c *app.RequestContext) {
	actorID, ok := middleware.GetActorID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("actor ID not found in context"))
		return
	}

	recordID, err := parseIDParam(c, "record_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.ResolveConflictRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Reconcile().ResolveConflict(ctx, recordID, actorID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
