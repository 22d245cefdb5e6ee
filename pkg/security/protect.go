// Package security protects connection tokens and other payloads the server hands to
// clients and must later trust again.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
)

const (
	KeyProtectionKey = "security:protection:key"
	KeyProtectionTTL = "security:protection:ttl"

	minKeyLen = 16
)

// Purposes used by hub services.
const (
	PurposeConnectionToken = "connection-token"
	PurposeGroups          = "groups"
)

var (
	ErrTampered        = errors.New("security: protected payload is invalid")
	ErrPurposeMismatch = errors.New("security: payload was protected for another purpose")
	errKeyTooShort     = fmt.Errorf("must be at least %d bytes", minKeyLen)
)

// ProtectedData signs payloads so they round-trip through clients unchanged. A payload
// protected for one purpose cannot be unprotected for another. Payloads are signed, not
// encrypted.
type ProtectedData interface {
	Protect(data, purpose string) (string, error)
	Unprotect(protected, purpose string) (string, error)
}

type signer struct {
	key []byte
	ttl time.Duration
}

type payload struct {
	jwt.RegisteredClaims
	Purpose string `json:"pur"`
	Data    string `json:"dat"`
}

// New reads security:protection:*. Without a configured key a random one is generated, so
// protected payloads do not survive a restart or move between servers.
func New(cfg config.Provider) (ProtectedData, error) {
	ttl, err := config.Duration(cfg, KeyProtectionTTL, 0)
	if err != nil {
		return nil, err
	}

	key := []byte(config.String(cfg, KeyProtectionKey, ""))
	switch {
	case len(key) == 0:
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	case len(key) < minKeyLen:
		return nil, &config.ConfigError{Key: KeyProtectionKey, Err: errKeyTooShort}
	}
	return &signer{key: key, ttl: ttl}, nil
}

func (s *signer) Protect(data, purpose string) (string, error) {
	claims := payload{Purpose: purpose, Data: data}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *signer) Unprotect(protected, purpose string) (string, error) {
	var claims payload
	_, err := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})).
		ParseWithClaims(protected, &claims, func(*jwt.Token) (any, error) { return s.key, nil })
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTampered, err)
	}
	if claims.Purpose != purpose {
		return "", ErrPurposeMismatch
	}
	return claims.Data, nil
}
