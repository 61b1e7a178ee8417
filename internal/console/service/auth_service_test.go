package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/infra"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
)

func TestGenerateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	svc := NewAuthService(newStore(t), key, infra.AuthConfig{Issuer: "workforce-console", TokenTTL: time.Hour})

	resp, err := svc.GenerateToken(context.Background(), "admin", "demo-admin")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := auth.NewBaseValidator(&key.PublicKey, "workforce-console").VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-acme-admin", claims.UserID)
	assert.Equal(t, "tnt-acme", claims.TenantID)
	assert.Equal(t, "Super Admin", claims.Role)
	assert.True(t, claims.Scopes["admin"])
}

func TestGenerateToken_InvalidCredentials(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	svc := NewAuthService(newStore(t), key, infra.AuthConfig{})

	_, err = svc.GenerateToken(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.GenerateToken(context.Background(), "nobody", "demo-admin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
