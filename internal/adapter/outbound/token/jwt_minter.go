// Package token provides the JWT token-pair minter.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marketauth/marketauth/internal/domain/identity"
	"github.com/marketauth/marketauth/internal/service"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds minter configuration.
type Config struct {
	// SigningKey is the HS256 secret.
	SigningKey string
	// AccessTTL is the access token lifetime. Default: 30 minutes.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime. Default: 7 days.
	RefreshTTL time.Duration
}

// Claims is the payload carried by both tokens of a pair.
type Claims struct {
	jwt.RegisteredClaims
	// Version is the identity's token version; bumping it invalidates
	// every outstanding pair.
	Version int `json:"ver"`
	// Role is the identity's role at mint time.
	Role string `json:"role"`
}

// JWTMinter implements the TokenMinter port with HS256-signed JWTs. Each
// token of a pair gets its own jti.
type JWTMinter struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTMinter creates a JWTMinter with the given config.
func NewJWTMinter(cfg Config) *JWTMinter {
	accessTTL := cfg.AccessTTL
	if accessTTL == 0 {
		accessTTL = DefaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &JWTMinter{
		signingKey: []byte(cfg.SigningKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Mint produces an access/refresh token pair for the identity.
func (m *JWTMinter) Mint(ctx context.Context, ident *identity.Identity) (*service.TokenPair, error) {
	access, err := m.sign(ident, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(ident, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &service.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses and validates a token, returning its claims.
func (m *JWTMinter) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

func (m *JWTMinter) sign(ident *identity.Identity, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", ident.ID),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Version: ident.TokenVersion,
		Role:    string(ident.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}
