// Package auth issues and validates session tokens and resolves the current user
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Claims carried by a session token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Provider signs and verifies session tokens with a shared secret
type Provider struct {
	secret []byte
	ttl    time.Duration
}

func NewProvider(secret string, ttl time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Provider{secret: []byte(secret), ttl: ttl}, nil
}

// GenerateJWT creates a token for the user
func (p *Provider) GenerateJWT(userID, email string) (string, error) {
	if userID == "" {
		return "", apperrors.ErrNotAuthenticated
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// ValidateJWT validates a token and returns its claims
func (p *Provider) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// User converts claims to the identity used by the services
func (c *Claims) User() *models.User {
	return &models.User{ID: c.UserID, Email: c.Email}
}
