package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Hub          HubConfig          `yaml:"hub"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Notification NotificationConfig `yaml:"notification"`
	Push         PushConfig         `yaml:"push"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	Timezone        string  `yaml:"timezone"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// HubConfig holds the websocket hub configuration.
type HubConfig struct {
	PingIntervalSeconds int           `yaml:"ping_interval_seconds"`
	PingInterval        time.Duration `yaml:"-"`
}

// DeliveryConfig holds the delivery sweep configuration.
type DeliveryConfig struct {
	Enabled              bool          `yaml:"enabled"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
}

// NotificationConfig holds the Telegram admin-group notification settings.
// An empty BotToken disables the Telegram sender.
type NotificationConfig struct {
	BotToken     string `yaml:"telegram_bot_token"`
	AdminChatID  int64  `yaml:"telegram_admin_chat_id"`
	DiscloseKeys bool   `yaml:"disclose_keys"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "Local"
	}

	if cfg.Hub.PingIntervalSeconds <= 0 {
		cfg.Hub.PingIntervalSeconds = 30
	}
	cfg.Hub.PingInterval = time.Duration(cfg.Hub.PingIntervalSeconds) * time.Second

	if cfg.Delivery.SweepIntervalSeconds <= 0 {
		cfg.Delivery.SweepIntervalSeconds = 30
	}
	cfg.Delivery.SweepInterval = time.Duration(cfg.Delivery.SweepIntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 4
	}
}
