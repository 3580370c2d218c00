package terminal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"AttendOK/config"
	"AttendOK/pkg/logger"
)

// Punch 考勤机返回的单条打卡事件
type Punch struct {
	TransactionID  string    `json:"transaction_id"`
	TerminalUserID string    `json:"terminal_user_id"`
	PunchedAt      time.Time `json:"punched_at"`
}

// DeviceInfo 设备固件上报的基本信息
type DeviceInfo struct {
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	Firmware     string `json:"firmware"`
	UserCount    int    `json:"user_count"`
}

// TerminalUser 设备上登记的用户
type TerminalUser struct {
	TerminalUserID string `json:"terminal_user_id"`
	Name           string `json:"name"`
}

// Client 考勤机客户端接口
type Client interface {
	// FetchPunches 拉取 sinceTransactionID 之后的打卡事件
	// sinceTransactionID 为空表示全量拉取
	FetchPunches(ctx context.Context, device config.DeviceAddr, sinceTransactionID string) ([]Punch, error)

	// FetchDeviceInfo 读取设备基本信息
	FetchDeviceInfo(ctx context.Context, device config.DeviceAddr) (*DeviceInfo, error)

	// FetchUsers 拉取设备上登记的全部用户
	FetchUsers(ctx context.Context, device config.DeviceAddr) ([]TerminalUser, error)

	// Ping 测试设备连通性
	Ping(ctx context.Context, device config.DeviceAddr) error
}

var (
	terminalClient Client
	terminalOnce   sync.Once
	terminalErr    error
)

// Init 初始化考勤机客户端
func Init() error {
	terminalOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.DeviceProvider {
		case "http":
			terminalClient = NewHTTPClient()
		case "mock":
			terminalClient = NewMockClient()
		default:
			terminalErr = fmt.Errorf("unsupported device provider: %s", cfg.DeviceProvider)
		}

		if terminalErr != nil {
			logger.Logger.Error("Failed to initialize terminal client", zap.Error(terminalErr))
			return
		}

		logger.Logger.Info("Terminal client initialized successfully",
			zap.String("provider", cfg.DeviceProvider),
			zap.Int("pool_size", len(cfg.DevicePool())),
		)
	})

	return terminalErr
}

func GetClient() Client {
	if terminalClient == nil {
		panic("terminal client not initialized, call terminal.Init() first")
	}
	return terminalClient
}

func FetchPunches(ctx context.Context, device config.DeviceAddr, sinceTransactionID string) ([]Punch, error) {
	return GetClient().FetchPunches(ctx, device, sinceTransactionID)
}

func FetchDeviceInfo(ctx context.Context, device config.DeviceAddr) (*DeviceInfo, error) {
	return GetClient().FetchDeviceInfo(ctx, device)
}

func FetchUsers(ctx context.Context, device config.DeviceAddr) ([]TerminalUser, error) {
	return GetClient().FetchUsers(ctx, device)
}

func Ping(ctx context.Context, device config.DeviceAddr) error {
	return GetClient().Ping(ctx, device)
}
