package queue

// 事件交换机与路由键，worker 侧的通知队列按这些键绑定
const (
	EventsExchange = "attendance.events"

	RoutingKeyPeriodFinalized   = "period.finalized"
	RoutingKeyPeriodUnlocked    = "period.unlocked"
	RoutingKeyPayrollCalculated = "payroll.calculated"
	RoutingKeyPayrollApproved   = "payroll.approved"
	RoutingKeyDeviceAlert       = "device.alert"

	NotificationQueue = "attendance.notifications"
)

// EventMessage 业务事件消息
type EventMessage struct {
	Payload    map[string]interface{} `json:"payload"`
	MessageID  string                 `json:"message_id"`
	EventKey   string                 `json:"event_key"`
	OccurredAt string                 `json:"occurred_at"`
}

// DeviceAlertMessage 设备告警消息，只有 HIGH 及以上级别才会发布
type DeviceAlertMessage struct {
	MessageID  string `json:"message_id"`
	DeviceID   string `json:"device_id"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"`
}
