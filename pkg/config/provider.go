// Package config provides the string-typed key/value configuration consumed by hub services.
//
// Keys are colon-separated paths such as "auth:jwt:secret". Lookups are case-insensitive.
// Nothing in this package validates values up front: typed accessors parse on read, so a
// malformed value is reported by the service that first reads it.
package config

import (
	"os"
	"strings"
)

// Provider is the minimal configuration contract.
type Provider interface {
	Get(key string) (string, bool)
}

type mapProvider map[string]string

// FromMap returns a Provider over a copy of m.
func FromMap(m map[string]string) Provider {
	out := make(mapProvider, len(m))
	for k, v := range m {
		out[normalize(k)] = v
	}
	return out
}

func (m mapProvider) Get(key string) (string, bool) {
	v, ok := m[normalize(key)]
	return v, ok
}

type emptyProvider struct{}

func (emptyProvider) Get(string) (string, bool) { return "", false }

// Empty returns a Provider with no keys.
func Empty() Provider { return emptyProvider{} }

type envProvider struct{ prefix string }

// Env reads keys from the process environment on every lookup.
// "auth:jwt:secret" with prefix "HUB_" maps to HUB_AUTH__JWT__SECRET.
func Env(prefix string) Provider { return envProvider{prefix: prefix} }

func (e envProvider) Get(key string) (string, bool) {
	name := e.prefix + strings.ToUpper(strings.ReplaceAll(normalize(key), ":", "__"))
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

type chain []Provider

// Chain consults providers in order; the first one holding the key wins.
func Chain(ps ...Provider) Provider {
	out := make(chain, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (c chain) Get(key string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
