package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8890"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"attendok"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"attendok"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"atok"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 考勤机设备池配置
	// 主设备 + 备用设备，备用设备格式: "ip:port" 或 "ip:port:超时秒数"，逗号分隔
	// DEVICE_TIMEOUT_SECONDS 是未单独指定超时的设备的默认值
	DeviceProvider         string `env:"DEVICE_PROVIDER" envDefault:"http"` // http, mock
	DevicePrimaryIP        string `env:"DEVICE_PRIMARY_IP" envDefault:"192.168.1.201"`
	DevicePrimaryPort      int    `env:"DEVICE_PRIMARY_PORT" envDefault:"4370"`
	DeviceSecondaryAddrs   string `env:"DEVICE_SECONDARY_ADDRS" envDefault:""`
	DeviceTimeoutSeconds   int    `env:"DEVICE_TIMEOUT_SECONDS" envDefault:"10"`
	DeviceSyncIntervalMins int    `env:"DEVICE_SYNC_INTERVAL_MINUTES" envDefault:"15"`

	// 设备重试策略
	DeviceRetryMaxAttempts int `env:"DEVICE_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	DeviceRetryBaseDelayMs int `env:"DEVICE_RETRY_BASE_DELAY_MS" envDefault:"500"`
	DeviceRetryMaxDelayMs  int `env:"DEVICE_RETRY_MAX_DELAY_MS" envDefault:"10000"`

	// 设备熔断器
	BreakerFailureThreshold  int `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerRecoveryTimeoutMs int `env:"BREAKER_RECOVERY_TIMEOUT_MS" envDefault:"60000"`

	// 员工身份映射
	IdentityStrategy    string `env:"IDENTITY_STRATEGY" envDefault:"email_prefix"` // email_prefix, direct_id, custom_field
	IdentityEmailDomain string `env:"IDENTITY_EMAIL_DOMAIN" envDefault:"@example.com"`
	IdentityCacheTTLMin int    `env:"IDENTITY_CACHE_TTL_MINUTES" envDefault:"30"`

	// 薪资计算规则
	PayrollDailyThreshold     float64 `env:"PAYROLL_DAILY_THRESHOLD_HOURS" envDefault:"8"`
	PayrollWeeklyThreshold    float64 `env:"PAYROLL_WEEKLY_THRESHOLD_HOURS" envDefault:"40"`
	PayrollOvertimeMultiplier float64 `env:"PAYROLL_OVERTIME_MULTIPLIER" envDefault:"1.5"`
	PayrollDefaultHourlyRate  float64 `env:"PAYROLL_DEFAULT_HOURLY_RATE" envDefault:"25"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4317"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"` // 每秒请求数
}

// DeviceAddr 单台考勤机的连接地址和操作超时
type DeviceAddr struct {
	ID             string
	IP             string
	Port           int
	TimeoutSeconds int
}

// Timeout 该设备的操作超时
func (d DeviceAddr) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.JWTSecret == "" {
		if Cfg.IsProduction() {
			log.Fatal("JWT_SECRET is required in production")
		}
		log.Printf("WARN: JWT_SECRET not set, using insecure development secret")
		Cfg.JWTSecret = "insecure-dev-secret"
	}

	if Cfg.DeviceRetryMaxAttempts < 1 {
		log.Fatal("DEVICE_RETRY_MAX_ATTEMPTS must be at least 1")
	}

	if Cfg.BreakerFailureThreshold < 1 {
		log.Fatal("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}

	switch Cfg.IdentityStrategy {
	case "email_prefix", "direct_id", "custom_field":
	default:
		log.Fatalf("Unsupported IDENTITY_STRATEGY: %s", Cfg.IdentityStrategy)
	}

	if Cfg.IdentityStrategy == "email_prefix" && Cfg.IdentityEmailDomain == "" {
		log.Fatal("IDENTITY_EMAIL_DOMAIN is required for email_prefix strategy")
	}

	if Cfg.PayrollOvertimeMultiplier < 1 {
		log.Printf("WARN: PAYROLL_OVERTIME_MULTIPLIER < 1, overtime will pay less than regular hours")
	}
}

// DevicePool 返回设备池：主设备在前，备用设备在后
// 备用设备可以在地址里带上自己的超时秒数，缺省继承全局默认
func (c *Config) DevicePool() []DeviceAddr {
	pool := []DeviceAddr{
		{ID: "primary", IP: c.DevicePrimaryIP, Port: c.DevicePrimaryPort, TimeoutSeconds: c.DeviceTimeoutSeconds},
	}

	if c.DeviceSecondaryAddrs == "" {
		return pool
	}

	for i, addr := range strings.Split(c.DeviceSecondaryAddrs, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		host := addr
		port := c.DevicePrimaryPort
		timeout := c.DeviceTimeoutSeconds

		parts := strings.Split(addr, ":")
		if len(parts) >= 2 {
			if p, err := strconv.Atoi(parts[1]); err == nil && p > 0 && p <= 65535 {
				host = parts[0]
				port = p
			}
		}
		if len(parts) >= 3 {
			if t, err := strconv.Atoi(parts[2]); err == nil && t > 0 {
				timeout = t
			}
		}

		pool = append(pool, DeviceAddr{
			ID:             "secondary-" + strconv.Itoa(i+1),
			IP:             host,
			Port:           port,
			TimeoutSeconds: timeout,
		})
	}

	return pool
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
