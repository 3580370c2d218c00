package handler

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/internal/middleware"
	"AttendOK/internal/model/dto"
	"AttendOK/internal/service"
	"AttendOK/pkg/response"
)

// PreviewPayroll 预览薪资计算结果，不落库
// POST /v1/payroll/:period_id/preview
func PreviewPayroll(ctx context.Context, c *app.RequestContext) {
	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.PreviewPayrollRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Payroll().Preview(ctx, periodID, req.EmployeeIDs)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// CalculatePayroll 计算薪资并落库
// POST /v1/payroll/:period_id/calculate
func CalculatePayroll(ctx context.Context, c *app.RequestContext) {
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

	var req dto.CalculatePayrollRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Payroll().Calculate(ctx, periodID, actorID, req.Confirm, req.EmployeeIDs)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ApprovePayroll 审批已计算的薪资周期
// POST /v1/payroll/:period_id/approve
func ApprovePayroll(ctx context.Context, c *app.RequestContext) {
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

	var req dto.ApprovePayrollRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Payroll().Approve(ctx, periodID, actorID, req.Confirm, req.Notes)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetPayroll 查询已落库的薪资结果
// GET /v1/payroll/:period_id
func GetPayroll(ctx context.Context, c *app.RequestContext) {
	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Payroll().Get(ctx, periodID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
