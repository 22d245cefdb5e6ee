package config

import (
	"strings"
	"time"
)

// Keys read by Manager.
const (
	KeyConnectionTimeout        = "hub:connection_timeout"
	KeyDisconnectTimeout        = "hub:disconnect_timeout"
	KeyKeepAlive                = "hub:keep_alive"
	KeyDefaultMessageBufferSize = "hub:default_message_buffer_size"
	KeyMaxIncomingMessageSize   = "hub:max_incoming_message_size"
)

// Defaults and bounds for connection settings.
const (
	DefaultConnectionTimeout        = 110 * time.Second
	DefaultDisconnectTimeout        = 30 * time.Second
	DefaultMessageBufferSize        = 1000
	DefaultMaxIncomingMessageSize   = 64 * 1024
	MinDisconnectTimeout            = 6 * time.Second
	MinKeepAlive                    = 2 * time.Second
	keepAliveDisconnectTimeoutRatio = 3
)

// Manager exposes typed connection settings. Every getter reads the provider when called,
// so a bad value is reported to whoever asks for it and nowhere else.
type Manager struct {
	p Provider
}

// NewManager wraps p; a nil provider behaves as Empty().
func NewManager(p Provider) *Manager {
	if p == nil {
		p = Empty()
	}
	return &Manager{p: p}
}

// ConnectionTimeout is how long a poll-style connection is held open without data.
func (m *Manager) ConnectionTimeout() (time.Duration, error) {
	return Duration(m.p, KeyConnectionTimeout, DefaultConnectionTimeout)
}

// DisconnectTimeout is how long a dropped connection may reconnect before it is declared gone.
func (m *Manager) DisconnectTimeout() (time.Duration, error) {
	d, err := Duration(m.p, KeyDisconnectTimeout, DefaultDisconnectTimeout)
	if err != nil {
		return 0, err
	}
	if d < MinDisconnectTimeout {
		return 0, &ConfigError{Key: KeyDisconnectTimeout, Value: d.String(), Err: ErrDisconnectTimeoutTooShort}
	}
	return d, nil
}

// KeepAlive returns the keep-alive interval; zero means keep-alives are disabled ("off").
// Unset, it is a third of the disconnect timeout.
func (m *Manager) KeepAlive() (time.Duration, error) {
	disconnect, err := m.DisconnectTimeout()
	if err != nil {
		return 0, err
	}
	raw := strings.ToLower(String(m.p, KeyKeepAlive, ""))
	switch raw {
	case "":
		return disconnect / keepAliveDisconnectTimeoutRatio, nil
	case "off", "disabled", "none":
		return 0, nil
	}
	d, err := Duration(m.p, KeyKeepAlive, 0)
	if err != nil {
		return 0, err
	}
	if d < MinKeepAlive || d > disconnect/keepAliveDisconnectTimeoutRatio {
		return 0, &ConfigError{Key: KeyKeepAlive, Value: raw, Err: ErrKeepAliveOutOfRange}
	}
	return d, nil
}

// DefaultMessageBufferSize bounds the per-connection message backlog.
func (m *Manager) DefaultMessageBufferSize() (int, error) {
	return positiveInt(m.p, KeyDefaultMessageBufferSize, DefaultMessageBufferSize)
}

// MaxIncomingMessageSize bounds a single inbound frame in bytes.
func (m *Manager) MaxIncomingMessageSize() (int, error) {
	return positiveInt(m.p, KeyMaxIncomingMessageSize, DefaultMaxIncomingMessageSize)
}

// Provider returns the underlying configuration source.
func (m *Manager) Provider() Provider { return m.p }

func positiveInt(p Provider, key string, def int) (int, error) {
	n, err := Int(p, key, def)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &ConfigError{Key: key, Value: String(p, key, ""), Err: errNotPositive}
	}
	return n, nil
}
