package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrNoDataset       = errors.New("no dataset loaded")
	ErrNetworkNotFound = errors.New("network not found")

	// Upload errors
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrEmptyUpload    = errors.New("upload is empty")
)
