package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"AttendOK/config"
)

// HTTPClient 通过考勤机自带的 HTTP 接口拉取打卡记录
// 设备固件暴露 /api/transactions、/api/info、/api/users 和 /api/ping 端点
// 每次请求按设备池里配置的单台超时截止
type HTTPClient struct {
	httpClient *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{},
	}
}

// opContext 应用单台设备配置的操作超时
func opContext(ctx context.Context, device config.DeviceAddr) (context.Context, context.CancelFunc) {
	if device.TimeoutSeconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, device.Timeout())
}

type transactionsResponse struct {
	Transactions []struct {
		ID      string `json:"id"`
		UserID  string `json:"user_id"`
		Punched int64  `json:"punched"` // Unix 秒
	} `json:"transactions"`
}

func (c *HTTPClient) baseURL(ip string, port int) string {
	return "http://" + ip + ":" + strconv.Itoa(port)
}

// FetchPunches 拉取指定事务之后的打卡事件
func (c *HTTPClient) FetchPunches(ctx context.Context, device config.DeviceAddr, sinceTransactionID string) ([]Punch, error) {
	ctx, cancel := opContext(ctx, device)
	defer cancel()

	u, err := url.Parse(c.baseURL(device.IP, device.Port) + "/api/transactions")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	if sinceTransactionID != "" {
		q.Set("after", sinceTransactionID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET /api/transactions failed with status code %d: %s", resp.StatusCode, string(b))
	}

	var body transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode transactions response: %w", err)
	}

	punches := make([]Punch, 0, len(body.Transactions))
	for _, tx := range body.Transactions {
		punches = append(punches, Punch{
			TransactionID:  tx.ID,
			TerminalUserID: tx.UserID,
			PunchedAt:      time.Unix(tx.Punched, 0).UTC(),
		})
	}

	return punches, nil
}

type infoResponse struct {
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	Firmware     string `json:"firmware"`
	UserCount    int    `json:"user_count"`
}

// FetchDeviceInfo 读取设备基本信息
func (c *HTTPClient) FetchDeviceInfo(ctx context.Context, device config.DeviceAddr) (*DeviceInfo, error) {
	ctx, cancel := opContext(ctx, device)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(device.IP, device.Port)+"/api/info", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET /api/info failed with status code %d: %s", resp.StatusCode, string(b))
	}

	var body infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode info response: %w", err)
	}

	return &DeviceInfo{
		SerialNumber: body.SerialNumber,
		Model:        body.Model,
		Firmware:     body.Firmware,
		UserCount:    body.UserCount,
	}, nil
}

type usersResponse struct {
	Users []struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	} `json:"users"`
}

// FetchUsers 拉取设备上登记的全部用户
func (c *HTTPClient) FetchUsers(ctx context.Context, device config.DeviceAddr) ([]TerminalUser, error) {
	ctx, cancel := opContext(ctx, device)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(device.IP, device.Port)+"/api/users", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET /api/users failed with status code %d: %s", resp.StatusCode, string(b))
	}

	var body usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}

	users := make([]TerminalUser, 0, len(body.Users))
	for _, u := range body.Users {
		users = append(users, TerminalUser{
			TerminalUserID: u.UserID,
			Name:           u.Name,
		})
	}

	return users, nil
}

// Ping 测试设备连通性
func (c *HTTPClient) Ping(ctx context.Context, device config.DeviceAddr) error {
	ctx, cancel := opContext(ctx, device)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(device.IP, device.Port)+"/api/ping", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping failed with status code %d", resp.StatusCode)
	}

	return nil
}
