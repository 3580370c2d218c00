package terminal

import (
	"context"
	"errors"
	"sync"

	"AttendOK/config"
)

// MockClient 可配置的考勤机客户端 mock，实现 Client 接口
type MockClient struct {
	mu sync.Mutex

	// Punches 按设备 ID 预置的打卡事件，按 TransactionID 升序
	Punches map[string][]Punch

	// Users 按设备 ID 预置的设备用户
	Users map[string][]TerminalUser

	// Infos 按设备 ID 预置的设备信息
	Infos map[string]DeviceInfo

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool

	// FailWith 非空时，FailNext 触发的错误使用该值
	FailWith error

	FetchCalls []string
	InfoCalls  []string
	UserCalls  []string
	PingCalls  []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Punches: make(map[string][]Punch),
		Users:   make(map[string][]TerminalUser),
		Infos:   make(map[string]DeviceInfo),
	}
}

func (m *MockClient) FetchPunches(ctx context.Context, device config.DeviceAddr, sinceTransactionID string) ([]Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchCalls = append(m.FetchCalls, device.ID)

	if m.FailNext {
		m.FailNext = false
		if m.FailWith != nil {
			return nil, m.FailWith
		}
		return nil, errors.New("mock device fetch failure")
	}

	all := m.Punches[device.ID]
	if sinceTransactionID == "" {
		return append([]Punch(nil), all...), nil
	}

	result := make([]Punch, 0, len(all))
	passed := false
	for _, p := range all {
		if passed {
			result = append(result, p)
		}
		if p.TransactionID == sinceTransactionID {
			passed = true
		}
	}
	if !passed {
		return append([]Punch(nil), all...), nil
	}

	return result, nil
}

func (m *MockClient) FetchDeviceInfo(ctx context.Context, device config.DeviceAddr) (*DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InfoCalls = append(m.InfoCalls, device.ID)

	if m.FailNext {
		m.FailNext = false
		if m.FailWith != nil {
			return nil, m.FailWith
		}
		return nil, errors.New("mock device info failure")
	}

	info, ok := m.Infos[device.ID]
	if !ok {
		return &DeviceInfo{Model: "mock", SerialNumber: device.ID}, nil
	}
	return &info, nil
}

func (m *MockClient) FetchUsers(ctx context.Context, device config.DeviceAddr) ([]TerminalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UserCalls = append(m.UserCalls, device.ID)

	if m.FailNext {
		m.FailNext = false
		if m.FailWith != nil {
			return nil, m.FailWith
		}
		return nil, errors.New("mock device users failure")
	}

	return append([]TerminalUser(nil), m.Users[device.ID]...), nil
}

func (m *MockClient) Ping(ctx context.Context, device config.DeviceAddr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PingCalls = append(m.PingCalls, device.ID)

	if m.FailNext {
		m.FailNext = false
		if m.FailWith != nil {
			return m.FailWith
		}
		return errors.New("mock device ping failure")
	}

	return nil
}
