package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	DefaultWorkbook string `yaml:"default_workbook" envconfig:"DEFAULT_WORKBOOK"`
}

// DashboardConfig describes the workbook layout and the dashboard defaults.
type DashboardConfig struct {
	// Networks is yaml-only; sheet bindings do not fit a flat variable.
	Networks       []domain.NetworkSheet `yaml:"networks" ignored:"true"`
	DefaultMonthA  string                `yaml:"default_month_a" envconfig:"DEFAULT_MONTH_A"`
	DefaultMonthB  string                `yaml:"default_month_b" envconfig:"DEFAULT_MONTH_B"`
	DefaultMetrics []string              `yaml:"default_metrics" envconfig:"DEFAULT_METRICS"`
	MaxUploadMB    int64                 `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
	LoadOnStart    bool                  `yaml:"load_on_start" envconfig:"LOAD_ON_START"`
	CSVWithBOM     bool                  `yaml:"csv_with_bom" envconfig:"CSV_WITH_BOM"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (d DashboardConfig) MaxUploadBytes() int64 {
	return d.MaxUploadMB << 20
}

// ChartMetrics resolves DefaultMetrics, skipping unknown names.
func (d DashboardConfig) ChartMetrics() []domain.Metric {
	var out []domain.Metric
	for _, name := range d.DefaultMetrics {
		if m, ok := domain.ParseMetric(name); ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return append([]domain.Metric(nil), domain.DefaultChartMetrics...)
	}
	return out
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load loads configuration from the first config file found and the environment.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom builds the configuration in three layers: defaults, then the YAML
// file at configFile (skipped when empty), then IWA_* environment variables.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, errors.NewConfigError("failed to load config from file", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; absent keys keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q (want console, file or both)", c.Logging.Output)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if len(c.Dashboard.Networks) == 0 {
		return fmt.Errorf("at least one network sheet must be configured")
	}
	seen := make(map[string]bool, len(c.Dashboard.Networks))
	for _, ns := range c.Dashboard.Networks {
		if strings.TrimSpace(ns.Network) == "" || strings.TrimSpace(ns.Sheet) == "" {
			return fmt.Errorf("network sheet entries need both network and sheet")
		}
		if seen[ns.Network] {
			return fmt.Errorf("duplicate network %q", ns.Network)
		}
		seen[ns.Network] = true
	}

	for _, name := range c.Dashboard.DefaultMetrics {
		if _, ok := domain.ParseMetric(name); !ok {
			return fmt.Errorf("unknown default metric %q", name)
		}
	}

	if c.Dashboard.DefaultMonthA == "" || c.Dashboard.DefaultMonthB == "" {
		return fmt.Errorf("default comparison months must be set")
	}

	if c.Dashboard.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigEnvVar); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:         DefaultDataDir,
			LogsDir:         DefaultLogsDir,
			DefaultWorkbook: DefaultWorkbookName,
		},
		Dashboard: DashboardConfig{
			Networks:       append([]domain.NetworkSheet(nil), domain.DefaultNetworkSheets...),
			DefaultMonthA:  DefaultMonthA,
			DefaultMonthB:  DefaultMonthB,
			DefaultMetrics: []string{string(domain.MetricViews), string(domain.MetricFollowers)},
			MaxUploadMB:    DefaultMaxUploadMB,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "iwa-sm-dashboard",
			MetricsEnabled: true,
			TraceExporter:  "stdout",
			Environment:    "development",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
	}
}
