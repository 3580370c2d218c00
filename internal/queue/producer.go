package queue

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"AttendOK/pkg/logger"
	"AttendOK/pkg/snowflake"
	"AttendOK/storage/mq"
)

// 业务事件发布，全部 fire-and-forget：发布失败只记日志，绝不影响触发它的业务操作

func newMessageID(prefix string) string {
	id, err := snowflake.NextID(snowflake.GeneratorTypeMessage)
	if err != nil {
		logger.Logger.Error("Failed to generate message ID", zap.Error(err))
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%d", prefix, id)
}

func publishEvent(eventKey string, payload map[string]interface{}) {
	msg := EventMessage{
		MessageID:  newMessageID(eventKey),
		EventKey:   eventKey,
		OccurredAt: time.Now().Format(time.RFC3339),
		Payload:    payload,
	}

	if err := mq.PublishMessage(EventsExchange, eventKey, msg); err != nil {
		logger.Logger.Error("Failed to publish event",
			zap.String("event_key", eventKey),
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		return
	}

	logger.Logger.Info("Published event",
		zap.String("event_key", eventKey),
		zap.String("message_id", msg.MessageID),
	)
}

// PublishPeriodFinalized 发布周期封账事件
func PublishPeriodFinalized(periodID, actorID int64, recordCount, employeeCount int) {
	publishEvent(RoutingKeyPeriodFinalized, map[string]interface{}{
		"period_id":      periodID,
		"actor_id":       actorID,
		"record_count":   recordCount,
		"employee_count": employeeCount,
	})
}

// PublishPeriodUnlocked 发布周期解锁事件
func PublishPeriodUnlocked(periodID, actorID int64, reason string) {
	publishEvent(RoutingKeyPeriodUnlocked, map[string]interface{}{
		"period_id": periodID,
		"actor_id":  actorID,
		"reason":    reason,
	})
}

// PublishPayrollCalculated 发布薪资计算完成事件
func PublishPayrollCalculated(payrollPeriodID, attendancePeriodID, actorID int64, recordCount int, totalGross float64) {
	publishEvent(RoutingKeyPayrollCalculated, map[string]interface{}{
		"payroll_period_id":    payrollPeriodID,
		"attendance_period_id": attendancePeriodID,
		"actor_id":             actorID,
		"record_count":         recordCount,
		"total_gross":          totalGross,
	})
}

// PublishPayrollApproved 发布薪资审批事件
func PublishPayrollApproved(payrollPeriodID, actorID int64) {
	publishEvent(RoutingKeyPayrollApproved, map[string]interface{}{
		"payroll_period_id": payrollPeriodID,
		"actor_id":          actorID,
	})
}

// PublishDeviceAlert 发布设备告警，低级别告警不打扰运维
func PublishDeviceAlert(deviceID, category, severity, detail string) {
	if severity != "HIGH" && severity != "CRITICAL" {
		return
	}

	msg := DeviceAlertMessage{
		MessageID:  newMessageID("device_alert"),
		DeviceID:   deviceID,
		Category:   category,
		Severity:   severity,
		Detail:     detail,
		OccurredAt: time.Now().Format(time.RFC3339),
	}

	if err := mq.PublishMessage(EventsExchange, RoutingKeyDeviceAlert, msg); err != nil {
		logger.Logger.Error("Failed to publish device alert",
			zap.String("device_id", deviceID),
			zap.String("severity", severity),
			zap.Error(err),
		)
		return
	}

	logger.Logger.Warn("Published device alert",
		zap.String("device_id", deviceID),
		zap.String("category", category),
		zap.String("severity", severity),
	)
}
