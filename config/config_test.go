package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDevicePoolPerDeviceTimeout(t *testing.T) {
	cfg := Config{
		DevicePrimaryIP:      "192.168.1.201",
		DevicePrimaryPort:    4370,
		DeviceTimeoutSeconds: 10,
		DeviceSecondaryAddrs: "10.0.0.2:4371:5, 10.0.0.3",
	}

	pool := cfg.DevicePool()
	assert.Len(t, pool, 3)

	assert.Equal(t, "primary", pool[0].ID)
	assert.Equal(t, "192.168.1.201", pool[0].IP)
	assert.Equal(t, 4370, pool[0].Port)
	assert.Equal(t, 10*time.Second, pool[0].Timeout())

	// 备用设备带自己的超时秒数
	assert.Equal(t, "secondary-1", pool[1].ID)
	assert.Equal(t, "10.0.0.2", pool[1].IP)
	assert.Equal(t, 4371, pool[1].Port)
	assert.Equal(t, 5*time.Second, pool[1].Timeout())

	// 未指定端口和超时的备用设备继承主设备端口与全局默认超时
	assert.Equal(t, "secondary-2", pool[2].ID)
	assert.Equal(t, "10.0.0.3", pool[2].IP)
	assert.Equal(t, 4370, pool[2].Port)
	assert.Equal(t, 10*time.Second, pool[2].Timeout())
}

func TestDevicePoolWithoutSecondaries(t *testing.T) {
	cfg := Config{
		DevicePrimaryIP:      "192.168.1.201",
		DevicePrimaryPort:    4370,
		DeviceTimeoutSeconds: 10,
	}

	pool := cfg.DevicePool()
	assert.Len(t, pool, 1)
	assert.Equal(t, "primary", pool[0].ID)
}
