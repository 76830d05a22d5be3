package config

import (
	"errors"
)

// Sentinel error kinds for wellcheck configuration. Load and Validate wrap
// them so main can tell a bad file from a bad value.
var (
	ErrInvalidConfig = errors.New("invalid wellcheck config")
	ErrLoadConfig    = errors.New("failed to load wellcheck config")
)
