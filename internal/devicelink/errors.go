package devicelink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Category 设备错误类别枚举
type Category string

const (
	CategoryNetwork           Category = "NETWORK"
	CategoryTimeout           Category = "TIMEOUT"
	CategoryAuthentication    Category = "AUTHENTICATION"
	CategoryDeviceUnavailable Category = "DEVICE_UNAVAILABLE"
	CategoryDataCorruption    Category = "DATA_CORRUPTION"
	CategorySDK               Category = "SDK_ERROR"
	CategoryUnknown           Category = "UNKNOWN"
)

// Severity 设备错误严重级别枚举
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// DeviceError 归类后的设备错误，保留原始错误供 errors.Is/As 使用
// Op 记录失败的设备操作名，告警和日志靠它定位是哪一步出错
type DeviceError struct {
	DeviceID string
	Op       string
	Category Category
	Severity Severity
	Err      error
}

func (e *DeviceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("device %s: %s [%s/%s] %v", e.DeviceID, e.Op, e.Category, e.Severity, e.Err)
	}
	return fmt.Sprintf("device %s: [%s/%s] %v", e.DeviceID, e.Category, e.Severity, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Retryable 认证错误和数据损坏重试也不会成功，直接放弃
func (e *DeviceError) Retryable() bool {
	switch e.Category {
	case CategoryAuthentication, CategoryDataCorruption:
		return false
	default:
		return true
	}
}

// Classify 将底层错误归类为设备错误
// 已经是 DeviceError 的只补充设备 ID 和操作名，不重复归类
func Classify(deviceID, op string, err error) *DeviceError {
	if err == nil {
		return nil
	}

	var de *DeviceError
	if errors.As(err, &de) {
		if de.DeviceID == "" {
			de.DeviceID = deviceID
		}
		if de.Op == "" {
			de.Op = op
		}
		return de
	}

	category := categorize(err)
	return &DeviceError{
		DeviceID: deviceID,
		Op:       op,
		Category: category,
		Severity: baseSeverity(category),
		Err:      err,
	}
}

func baseSeverity(category Category) Severity {
	switch category {
	case CategoryAuthentication:
		return SeverityCritical
	case CategoryDeviceUnavailable:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SeverityFor 根据错误类别和重试进度评定严重级别
// 认证错误始终是 CRITICAL；其余类别随重试耗尽逐级升高
func SeverityFor(category Category, attempt, maxAttempts int) Severity {
	if category == CategoryAuthentication {
		return SeverityCritical
	}
	if attempt >= maxAttempts {
		return SeverityCritical
	}
	if attempt*2 >= maxAttempts {
		return SeverityHigh
	}
	if category == CategoryDeviceUnavailable {
		return SeverityMedium
	}
	return SeverityLow
}

func categorize(err error) Category {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return CategoryTimeout
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no route to host") ||
		strings.Contains(msg, "network is unreachable") || strings.Contains(msg, "connection reset"):
		return CategoryNetwork
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "status code 401") || strings.Contains(msg, "status code 403"):
		return CategoryAuthentication
	case strings.Contains(msg, "status code 503") || strings.Contains(msg, "device busy") ||
		strings.Contains(msg, "unavailable"):
		return CategoryDeviceUnavailable
	case strings.Contains(msg, "decode") || strings.Contains(msg, "unmarshal") ||
		strings.Contains(msg, "corrupt") || strings.Contains(msg, "invalid character"):
		return CategoryDataCorruption
	case strings.Contains(msg, "sdk"):
		return CategorySDK
	default:
		return CategoryUnknown
	}
}

