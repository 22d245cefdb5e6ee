package auth

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
)

const (
	KeyJWTSecret    = "auth:jwt:secret"
	KeyJWTPublicKey = "auth:jwt:public_key"
	KeyJWTJWKSFile  = "auth:jwt:jwks_file"
	KeyJWTKeyID     = "auth:jwt:kid"
	KeyJWTIssuer    = "auth:jwt:issuer"
	KeyJWTAudience  = "auth:jwt:audience"
	KeyJWTLeeway    = "auth:jwt:leeway"
	KeyAdminRole    = "auth:admin_role"

	defaultLeeway = 60 * time.Second
)

// TokenValidator turns a bearer token into a User.
type TokenValidator interface {
	Validate(raw string) (User, error)
}

// JWTValidator checks HS256 tokens against a shared secret, or RS256 tokens against an RSA key.
type JWTValidator struct {
	key      any
	methods  []string
	issuer   string
	audience string
	leeway   time.Duration
}

var _ TokenValidator = (*JWTValidator)(nil)

type tokenClaims struct {
	jwt.RegisteredClaims
	UID      string   `json:"uid"`
	Role     string   `json:"role"`
	Roles    []string `json:"roles"`
	Provider string   `json:"provider,omitempty"`
}

// NewTokenValidator reads auth:jwt:* settings. With no key configured every token is
// rejected with ErrNoVerificationKey. The RSA settings win over the secret.
func NewTokenValidator(cfg config.Provider) (*JWTValidator, error) {
	leeway, err := config.Duration(cfg, KeyJWTLeeway, defaultLeeway)
	if err != nil {
		return nil, err
	}
	v := &JWTValidator{
		issuer:   config.String(cfg, KeyJWTIssuer, ""),
		audience: config.String(cfg, KeyJWTAudience, ""),
		leeway:   leeway,
	}

	switch {
	case config.String(cfg, KeyJWTPublicKey, "") != "":
		raw := config.String(cfg, KeyJWTPublicKey, "")
		pub, err := parseRSAPublicKey(raw)
		if err != nil {
			return nil, &config.ConfigError{Key: KeyJWTPublicKey, Err: err}
		}
		v.key, v.methods = pub, []string{"RS256"}
	case config.String(cfg, KeyJWTJWKSFile, "") != "":
		path := config.String(cfg, KeyJWTJWKSFile, "")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &config.ConfigError{Key: KeyJWTJWKSFile, Value: path, Err: err}
		}
		pub, err := parseJWKS(data, config.String(cfg, KeyJWTKeyID, ""))
		if err != nil {
			return nil, &config.ConfigError{Key: KeyJWTJWKSFile, Value: path, Err: err}
		}
		v.key, v.methods = pub, []string{"RS256"}
	case config.String(cfg, KeyJWTSecret, "") != "":
		v.key, v.methods = []byte(config.String(cfg, KeyJWTSecret, "")), []string{"HS256"}
	}
	return v, nil
}

// Validate verifies signature, expiry, issuer and audience, then maps claims to a User.
// uid wins over sub for the username.
func (v *JWTValidator) Validate(raw string) (User, error) {
	if v.key == nil {
		return User{}, ErrNoVerificationKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims tokenClaims
	tok, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return User{}, ErrInvalidToken
	}

	username := first(claims.UID, claims.Subject)
	if username == "" {
		return User{}, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}

	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: first(claims.Provider, "jwt")},
		Role:                 Role{Name: first(claims.Role, first(claims.Roles...))},
	}, nil
}

// Methods lists the signing algorithms the validator accepts.
func (v *JWTValidator) Methods() []string { return slices.Clone(v.methods) }

// IssueToken signs an HS256 token for u. Hosts use it for service accounts and tests.
func IssueToken(secret []byte, u User, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty signing secret")
	}
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      u.Username,
		Role:     u.Role.Name,
		Provider: u.AuthenticationSource.Provider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
