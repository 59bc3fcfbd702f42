package service

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing means no management controller host is stored yet.
	ErrConfigMissing = errors.New("controller host is not configured")
	// ErrNotConfigured is returned by operations that need a hardware client
	// before the monitor has built one.
	ErrNotConfigured = errors.New("monitor has no hardware client")
)

// ConfigError reports a stored setting that cannot be used.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
