// Package http implements the HTTP handlers of the dashboard API. Handlers
// stay thin: they parse and validate the request, call a service and turn
// the result into JSON, PNG or CSV. Failures become RFC 7807 problem
// documents through errors.ErrorHandler.
//
// # Endpoints
//
// Routes are mounted under /api by the application router:
//
//	GET  /health, /health/ready, /health/live, /version
//	POST /dataset                               multipart field "file"
//	GET  /dataset
//	GET  /networks
//	GET  /networks/{network}/table
//	GET  /networks/{network}/insight?month_a=&month_b=
//	GET  /networks/{network}/comparison?month_a=&month_b=
//	GET  /networks/{network}/chart.png?metrics=Views,Followers
//	GET  /networks/{network}/export.csv
//	POST /client-log
//
// # Error mapping
//
//	services.ErrNoDataset        404 DATASET_NOT_LOADED
//	services.ErrNetworkNotFound  404 NETWORK_NOT_FOUND
//	services.ErrUploadTooLarge   413 UPLOAD_TOO_LARGE
//	parsing errors               422 WORKBOOK_UNREADABLE
//	validation errors            400 VALIDATION_FAILED
package http
