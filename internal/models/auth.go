package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginResponse is returned after a successful card login.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Record    StudentRecord `json:"record"`
	Scheme    ColorScheme   `json:"scheme"`
}

// JWTClaims identify a card session. Upstream credentials never enter the token.
type JWTClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
