package config

import (
	"strconv"
	"strings"
	"time"
)

// String returns the trimmed value for key or def when unset.
func String(p Provider, key, def string) string {
	if p == nil {
		return def
	}
	if v, ok := p.Get(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}

// Int parses key as a base-10 integer.
func Int(p Provider, key string, def int) (int, error) {
	raw := String(p, key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Key: key, Value: raw, Err: err}
	}
	return n, nil
}

// Bool parses key with strconv.ParseBool.
func Bool(p Provider, key string, def bool) (bool, error) {
	raw := String(p, key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{Key: key, Value: raw, Err: err}
	}
	return b, nil
}

// Duration accepts Go duration syntax ("30s") or a bare number of seconds.
func Duration(p Provider, key string, def time.Duration) (time.Duration, error) {
	raw := String(p, key, "")
	if raw == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, &ConfigError{Key: key, Value: raw, Err: errNegative}
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigError{Key: key, Value: raw, Err: err}
	}
	if d < 0 {
		return 0, &ConfigError{Key: key, Value: raw, Err: errNegative}
	}
	return d, nil
}

// List splits a comma separated value, dropping empty entries.
func List(p Provider, key string) []string {
	raw := String(p, key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if x := strings.TrimSpace(s); x != "" {
			out = append(out, x)
		}
	}
	return out
}
