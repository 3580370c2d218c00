package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"AttendOK/internal/cache"
	"AttendOK/internal/model"
	pkgerrors "AttendOK/pkg/errors"
	"AttendOK/pkg/logger"
	"AttendOK/pkg/snowflake"
	"AttendOK/storage/database"
	"AttendOK/storage/mq"
)

// worker 侧：消费业务事件，落成通知任务
// 通知投递本身（邮件、IM）不在本服务内，这里只负责可靠地排队

// EnsureTopology 声明交换机、队列和绑定，worker 启动时调用
func EnsureTopology() error {
	conn := mq.Connection()
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	bindings := []string{"period.*", "payroll.*", RoutingKeyDeviceAlert}
	for _, key := range bindings {
		if err := ch.QueueBind(NotificationQueue, key, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue with key %s: %w", key, err)
		}
	}

	logger.Logger.Info("MQ topology ensured",
		zap.String("exchange", EventsExchange),
		zap.String("queue", NotificationQueue),
	)
	return nil
}

// StartNotificationConsumer 启动通知任务消费者，阻塞运行
func StartNotificationConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         NotificationQueue,
		ConsumerTag:   "attendok-worker",
		PrefetchCount: 16,
		Handler: func(body []byte) error {
			return handleEventMessage(ctx, body)
		},
	})
}

func handleEventMessage(ctx context.Context, body []byte) error {
	var event EventMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event message: %w", err)
	}

	// 设备告警没有 event_key 字段，按告警消息重解析
	if event.EventKey == "" {
		var alert DeviceAlertMessage
		if err := json.Unmarshal(body, &alert); err != nil || alert.DeviceID == "" {
			return &pkgerrors.SkipMessageError{Reason: "unrecognized message shape"}
		}
		return handleDeviceAlert(ctx, &alert)
	}

	first, err := cache.TryMarkMessageProcessing(ctx, event.MessageID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", event.MessageID),
			zap.Error(err),
		)
		// 检查失败时继续处理，宁可重复也不丢
	} else if !first {
		return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", event.MessageID)}
	}

	category := categoryForEvent(event.EventKey)
	if category == "" {
		return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("no notification for event %s", event.EventKey)}
	}

	if err := createNotificationTask(ctx, category, event.Payload); err != nil {
		if unmarkErr := cache.UnmarkMessageProcessing(ctx, event.MessageID); unmarkErr != nil {
			logger.Logger.Warn("Failed to unmark message", zap.Error(unmarkErr))
		}
		return err
	}

	logger.Logger.Info("Notification task enqueued",
		zap.String("event_key", event.EventKey),
		zap.String("category", string(category)),
	)
	return nil
}

func handleDeviceAlert(ctx context.Context, alert *DeviceAlertMessage) error {
	first, err := cache.TryMarkMessageProcessing(ctx, alert.MessageID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check alert processed status",
			zap.String("message_id", alert.MessageID),
			zap.Error(err),
		)
	} else if !first {
		return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("alert %s already processed", alert.MessageID)}
	}

	payload := map[string]interface{}{
		"device_id":   alert.DeviceID,
		"category":    alert.Category,
		"severity":    alert.Severity,
		"detail":      alert.Detail,
		"occurred_at": alert.OccurredAt,
	}

	if err := createNotificationTask(ctx, model.NotificationCategoryDeviceAlert, payload); err != nil {
		if unmarkErr := cache.UnmarkMessageProcessing(ctx, alert.MessageID); unmarkErr != nil {
			logger.Logger.Warn("Failed to unmark alert message", zap.Error(unmarkErr))
		}
		return err
	}

	return nil
}

func categoryForEvent(eventKey string) model.NotificationCategory {
	switch eventKey {
	case RoutingKeyPeriodFinalized, RoutingKeyPeriodUnlocked:
		return model.NotificationCategoryPeriodFinalized
	case RoutingKeyPayrollCalculated, RoutingKeyPayrollApproved:
		return model.NotificationCategoryPayrollReady
	default:
		return ""
	}
}

func createNotificationTask(ctx context.Context, category model.NotificationCategory, payload map[string]interface{}) error {
	taskCode, err := snowflake.NextID(snowflake.GeneratorTypeMessage)
	if err != nil {
		return fmt.Errorf("failed to generate task code: %w", err)
	}

	task := model.NotificationTask{
		TaskCode:    taskCode,
		Category:    category,
		Payload:     model.JSONB(payload),
		Status:      model.NotificationTaskStatusPending,
		ScheduledAt: time.Now(),
	}

	if err := database.DB().WithContext(ctx).Create(&task).Error; err != nil {
		return fmt.Errorf("failed to create notification task: %w", err)
	}

	return nil
}
