package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"AttendOK/internal/handler"
	"AttendOK/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	v1.GET("/health", handler.Health)

	// 认证相关路由
	auth := v1.Group("/auth")
	{
		auth.POST("/token/refresh", handler.RefreshToken)
	}

	// 考勤周期路由
	periods := v1.Group("/periods")
	periods.Use(middleware.AuthMiddleware())
	{
		periods.POST("", handler.CreatePeriod)
		periods.GET("", handler.ListPeriods)
		periods.GET("/:period_id", handler.GetPeriod)
		periods.POST("/:period_id/finalize", middleware.FinanceRateLimitMiddleware(), handler.FinalizePeriod)
		periods.POST("/:period_id/unlock", middleware.FinanceRateLimitMiddleware(), handler.UnlockPeriod)
	}

	// 考勤记录路由
	records := v1.Group("/records")
	records.Use(middleware.AuthMiddleware())
	{
		records.GET("/conflicts", handler.ListConflicts)
		records.POST("/:record_id/resolve-conflict", handler.ResolveConflict)
	}

	// 薪资路由
	payroll := v1.Group("/payroll")
	payroll.Use(middleware.AuthMiddleware())
	{
		payroll.GET("/:period_id", handler.GetPayroll)
		payroll.POST("/:period_id/preview", handler.PreviewPayroll)
		payroll.POST("/:period_id/calculate", middleware.FinanceRateLimitMiddleware(), handler.CalculatePayroll)
		payroll.POST("/:period_id/approve", middleware.FinanceRateLimitMiddleware(), handler.ApprovePayroll)
	}

	// 设备同步路由
	sync := v1.Group("/sync")
	sync.Use(middleware.AuthMiddleware())
	sync.Use(middleware.SyncRateLimitMiddleware()) // 手动触发限流，同步本身还有分布式锁
	{
		sync.POST("", handler.SyncAllDevices)
		sync.POST("/devices/:device_id", handler.SyncDevice)
		sync.POST("/test", handler.TestDevices)
		sync.POST("/validate-employees", handler.ValidateEmployees)
	}

	// 设备熔断器路由
	devices := v1.Group("/devices")
	devices.Use(middleware.AuthMiddleware())
	{
		devices.GET("/:device_id/users", handler.ListDeviceUsers)
		devices.GET("/:device_id/breaker", handler.GetBreakerStatus)
		devices.POST("/:device_id/breaker/reset", handler.ResetBreaker)
	}
}
