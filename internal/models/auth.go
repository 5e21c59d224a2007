package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the JWT payload for reviewer access tokens.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LoginRequest carries reviewer credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
