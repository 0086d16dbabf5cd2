// Package app wires the dashboard server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from YAML and environment variables
//	2. Initialize logging and OpenTelemetry (Prometheus metrics, optional tracing)
//	3. Create the dataset cache, websocket hub and services
//	4. Set up the chi router, middleware chain and handlers
//	5. Optionally load the default workbook, then start the HTTP server
//	6. Shut down gracefully on SIGINT or SIGTERM
//
// The websocket endpoint is mounted ahead of the middleware group so that
// upgrades are not subject to request timeouts. Everything under /api goes
// through tracing, request logging, panic recovery, CORS and rate limiting.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
