package config

import "time"

// Application constants for the IWA social media dashboard
const (
	// Application Info
	AppName    = "IWA Social Media Dashboard"
	AppVersion = "1.0.0"
	AppVendor  = "IWA"

	// EnvPrefix namespaces every environment variable (IWA_SERVER_PORT, ...).
	EnvPrefix = "IWA"

	// ConfigEnvVar names an explicit config file, overriding the search list.
	ConfigEnvVar = "IWA_CONFIG"

	// Workbook defaults
	DefaultWorkbookName = "IWA SM Analytics.xlsx"
	DefaultMonthA       = "October"
	DefaultMonthB       = "November"
	DefaultMaxUploadMB  = 10

	// File Paths (relative to the base directory)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"

	// Rate Limiting
	DefaultRateLimit = 100
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Endpoints
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
