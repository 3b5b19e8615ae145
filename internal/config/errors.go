package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidConcurrency = errors.New("invalid max concurrent files")
	ErrInvalidTimeout     = errors.New("invalid command timeout")
	ErrInvalidToolPath    = errors.New("invalid tool path")
)
