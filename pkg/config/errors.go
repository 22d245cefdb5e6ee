package config

import (
	"errors"
	"fmt"
)

// ConfigError reports a configuration value that could not be used.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config %q=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	errNegative    = errors.New("must not be negative")
	errNotPositive = errors.New("must be positive")

	// ErrDisconnectTimeoutTooShort is reported when hub:disconnect_timeout is below MinDisconnectTimeout.
	ErrDisconnectTimeoutTooShort = errors.New("disconnect timeout below minimum")
	// ErrKeepAliveOutOfRange is reported when hub:keep_alive is outside [MinKeepAlive, DisconnectTimeout/3].
	ErrKeepAliveOutOfRange = errors.New("keep alive out of range")
)
