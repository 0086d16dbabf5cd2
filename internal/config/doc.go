// Package config provides configuration management for the dashboard.
//
// # Configuration Sources
//
// Configuration is built in layers, later layers winning:
//
//	1. Default() values
//	2. A YAML file (IWA_CONFIG, or config.yaml / configs/config.yaml)
//	3. Environment variables with the IWA_ prefix
//
// # Environment Variables
//
//	IWA_SERVER_PORT=8080
//	IWA_LOGGING_LEVEL=debug
//	IWA_PATHS_DEFAULT_WORKBOOK="IWA SM Analytics.xlsx"
//	IWA_DASHBOARD_DEFAULT_METRICS=Views,Followers
//	IWA_DASHBOARD_MAX_UPLOAD_MB=10
//
// The network to sheet bindings are only configurable from YAML:
//
//	dashboard:
//	  networks:
//	    - network: Facebook
//	      sheet: FB Page
//	    - network: Instagram
//	      sheet: Instagram
//
// # Path Management
//
// Config.ResolvePaths turns relative paths into absolute ones rooted at
// paths.base_dir (default: the working directory).
package config
