package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserID   string          `json:"user_id"`
	TenantID string          `json:"tenant_id"`
	Role     string          `json:"role"`
	Scopes   map[string]bool `json:"scopes"` // "admin": true или "analytics.read": true
	jwt.RegisteredClaims
}

// Secure Token Issuing
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	ID           string          `json:"id" yaml:"id"`
	TenantID     string          `json:"tenant_id" yaml:"tenant_id"`
	Email        string          `json:"email" yaml:"email"`
	Username     string          `json:"username" yaml:"username"`
	PasswordHash string          `json:"-" yaml:"password_hash"` // Никогда не отправляем на фронт
	Role         string          `json:"role" yaml:"role"`
	Scopes       map[string]bool `json:"scopes" yaml:"scopes"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" yaml:"updated_at"`
}
