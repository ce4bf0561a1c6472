package config

import (
	"errors"
	"fmt"
	"os"

	"washdesk/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Backend    BackendConfig    `yaml:"backend"`
	Redis      RedisConfig      `yaml:"redis"`
	Sessions   SessionConfig    `yaml:"sessions"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Exports    ExportConfig     `yaml:"exports"`
	Exporter   ExporterConfig   `yaml:"exporter"`
	Google     GoogleConfig     `yaml:"google"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// BackendConfig points at the car-wash REST backend, the system of record.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	BreakerThreshold int64  `yaml:"breaker_threshold"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	TTLHours          int `yaml:"ttl_hours"`
	LoginRateAttempts int `yaml:"login_rate_attempts"`
	LoginRateWindow   int `yaml:"login_rate_window_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DashboardConfig struct {
	RefreshMinutes int `yaml:"refresh_minutes"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// ExporterConfig controls the Sheets exporter and its local outbox.
type ExporterConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutboxPath string `yaml:"outbox_path"`
	MaxRetries int    `yaml:"max_retries"`
}

type GoogleConfig struct {
	CredentialsFile     string `yaml:"credentials_file"`
	ReportSpreadsheetID string `yaml:"report_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values referenced from the YAML via ${VAR}.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}
	if c.Exporter.Enabled && c.Exporter.OutboxPath == "" {
		return errors.New("exporter outbox_path is required when exporter is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "washdesk"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = models.DefaultBackendTimeoutSeconds
	}
	if c.Backend.BreakerThreshold == 0 {
		c.Backend.BreakerThreshold = 10
	}
	if c.Sessions.TTLHours == 0 {
		c.Sessions.TTLHours = models.DefaultSessionTTL / 3600
	}
	if c.Sessions.LoginRateAttempts == 0 {
		c.Sessions.LoginRateAttempts = models.LoginRateLimitAttempts
	}
	if c.Sessions.LoginRateWindow == 0 {
		c.Sessions.LoginRateWindow = models.LoginRateLimitWindow
	}
	if c.Dashboard.RefreshMinutes == 0 {
		c.Dashboard.RefreshMinutes = models.DefaultDashboardRefreshMinutes
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Exporter.MaxRetries == 0 {
		c.Exporter.MaxRetries = 5
	}
}
