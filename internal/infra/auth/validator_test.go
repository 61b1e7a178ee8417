package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/domain"
	"go.uber.org/zap"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims *domain.CustomClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func testClaims(tenant string, ttl time.Duration) *domain.CustomClaims {
	return &domain.CustomClaims{
		UserID:   "u-1",
		TenantID: tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "workforce-console",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey, "workforce-console")

	claims, err := v.VerifyToken("Bearer " + signToken(t, key, testClaims("t-acme", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "t-acme", claims.TenantID)

	_, err = v.VerifyToken(signToken(t, key, testClaims("t-acme", -time.Hour)))
	assert.Error(t, err, "expired token must be rejected")

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.VerifyToken(signToken(t, other, testClaims("t-acme", time.Hour)))
	assert.Error(t, err, "foreign signature must be rejected")
}

func TestMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey, "")

	var seen *domain.CustomClaims
	h := NewMiddleware(v, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"no tenant", "Bearer " + signToken(t, key, testClaims("", time.Hour)), http.StatusUnauthorized},
		{"ok", "Bearer " + signToken(t, key, testClaims("t-acme", time.Hour)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, "t-acme", seen.TenantID)
}
