// internal/auth/token.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenManager struct {
	secret        []byte
	expiryPeriod  time.Duration
	refreshPeriod time.Duration
}

func NewTokenManager(secret string, expiryPeriod, refreshPeriod time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		expiryPeriod:  expiryPeriod,
		refreshPeriod: refreshPeriod,
	}
}

type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Generate issues an access token.
func (tm *TokenManager) Generate(userID, username string) (string, error) {
	return tm.sign(userID, username, TokenTypeAccess, tm.expiryPeriod)
}

// GeneratePair issues an access token and a refresh token.
func (tm *TokenManager) GeneratePair(userID, username string) (*TokenPair, error) {
	access, err := tm.sign(userID, username, TokenTypeAccess, tm.expiryPeriod)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := tm.sign(userID, username, TokenTypeRefresh, tm.refreshPeriod)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (tm *TokenManager) sign(userID, username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate parses an access token.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	return tm.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses a refresh token.
func (tm *TokenManager) ValidateRefresh(tokenString string) (*Claims, error) {
	return tm.validate(tokenString, TokenTypeRefresh)
}

func (tm *TokenManager) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("invalid token: expected %s token, got %q", tokenType, claims.TokenType)
	}

	return claims, nil
}
