package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	StoreAPI struct {
		BaseURL         string `yaml:"base_url"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"store_api"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Server struct {
		Port              int     `yaml:"port"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"server"`

	Reminder struct {
		Enabled          bool   `yaml:"enabled"`
		Timezone         string `yaml:"timezone"`
		LeadTimeMinutes  int    `yaml:"lead_time_minutes"`
		CheckIntervalSec int    `yaml:"check_interval_seconds"`
	} `yaml:"reminder"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Auth struct {
		GoogleClientID     string `yaml:"google_client_id"`
		GoogleClientSecret string `yaml:"google_client_secret"`
		GoogleRedirectURL  string `yaml:"google_redirect_url"`
	} `yaml:"auth"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/storehours.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Reminder.Timezone == "" {
		cfg.Reminder.Timezone = "America/New_York"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) StoreCacheTTL() time.Duration {
	if c.StoreAPI.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.StoreAPI.CacheTTLSeconds) * time.Second
}

func (c *Config) ReminderLeadTime() time.Duration {
	if c.Reminder.LeadTimeMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Reminder.LeadTimeMinutes) * time.Minute
}

func (c *Config) ReminderCheckInterval() time.Duration {
	if c.Reminder.CheckIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.Reminder.CheckIntervalSec) * time.Second
}
