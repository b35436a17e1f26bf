package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/truthline/truthline/internal/config"
)

var (
	// ErrInvalidToken is returned when a token fails verification
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when a signing secret is not configured
	ErrMissingSecret = errors.New("auth.access_secret and auth.refresh_secret must be configured")
)

// TokenManager signs and verifies the two JWT kinds: short-lived access
// tokens and long-lived refresh tokens, each with its own secret.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager creates a new token manager. Both signing secrets must
// be set; an unconfigured daemon must not sign tokens with an empty key.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// GenerateAccessToken issues an access token for the user
func (m *TokenManager) GenerateAccessToken(userID string) (string, error) {
	return m.sign(userID, m.accessSecret, m.accessTTL)
}

// GenerateRefreshToken issues a refresh token for the user
func (m *TokenManager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(userID, m.refreshSecret, m.refreshTTL)
}

func (m *TokenManager) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken verifies an access token and returns its subject
func (m *TokenManager) VerifyAccessToken(token string) (string, error) {
	return m.verify(token, m.accessSecret)
}

// VerifyRefreshToken verifies a refresh token and returns its subject
func (m *TokenManager) VerifyRefreshToken(token string) (string, error) {
	return m.verify(token, m.refreshSecret)
}

func (m *TokenManager) verify(tokenString string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
