package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/console/handler"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/flags"
	"github.com/xela07ax/workforce-console/internal/infra"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"github.com/xela07ax/workforce-console/internal/repository/memory"
	"github.com/xela07ax/workforce-console/internal/risk"
	"go.uber.org/zap"
)

type nopAuditor struct{}

func (nopAuditor) Log(audit.Event) {}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, storage Pinger) *httptest.Server {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)
	cache := flags.NewCache(store, nil, logger)
	agg := analytics.NewAggregator(store, nil, time.Second, metrics, logger)
	authCfg := infra.AuthConfig{Issuer: "workforce-console", TokenTTL: time.Hour}

	h := Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(store, key, authCfg), logger),
		Tenant:     handler.NewTenantHandler(service.NewTenantService(store, cache, nil, nopAuditor{}, logger), logger),
		Analytics:  handler.NewAnalyticsHandler(service.NewAnalyticsService(agg, cache, nopAuditor{}), logger),
		Roles:      handler.NewRoleHandler(service.NewRoleService(store, risk.NewAnalyzer(logger), nopAuditor{}, logger), logger),
		Employees:  handler.NewEmployeeHandler(service.NewEmployeeService(store, nopAuditor{}, logger), logger),
		Automation: handler.NewAutomationHandler(service.NewAutomationService(store, nil, nopAuditor{}, logger), logger),
		Workforce:  handler.NewWorkforceHandler(service.NewWorkforceService(store, nopAuditor{}, logger), logger),
	}
	validator := auth.NewBaseValidator(&key.PublicKey, authCfg.Issuer)

	srv := httptest.NewServer(NewConsoleServer(logger, metrics, reg, validator, storage, h))
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	resp, err := http.Post(srv.URL+"/auth/token", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok domain.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	return tok.TokenType + " " + tok.AccessToken
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProtectedRoutes(t *testing.T) {
	srv := newTestServer(t, pinger{})

	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/api/admin/roles", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/api/admin/roles", "Bearer garbage").StatusCode)

	token := login(t, srv, "admin", "demo-admin")
	for _, path := range []string{
		"/api/v1/tenant",
		"/api/v1/tenants",
		"/api/v1/tenant/analytics?from=2026-09-01&to=2026-09-30",
		"/api/v1/tenant/analytics/seats",
		"/api/admin/roles",
		"/api/admin/roles/stats",
		"/api/v1/employees",
		"/api/v1/automation/rules",
		"/api/v1/utilization",
		"/api/v1/sourcing/candidates",
		"/api/v1/training/courses",
		"/api/v1/training/assignments",
		"/api/v1/training/sessions",
		"/api/v1/payroll/runs",
		"/api/v1/forecasts",
		"/api/v1/statuses",
	} {
		assert.Equal(t, http.StatusOK, get(t, srv.URL+path, token).StatusCode, path)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t, pinger{})

	resp, err := http.Post(srv.URL+"/auth/token", "application/json",
		strings.NewReader(`{"username":"admin","password":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTenantIsolation(t *testing.T) {
	srv := newTestServer(t, pinger{})
	token := login(t, srv, "globex", "demo-globex")

	resp := get(t, srv.URL+"/api/v1/tenant", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tenant domain.Tenant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tenant))
	assert.Equal(t, "tnt-globex", tenant.ID)

	// роль acme из-под globex не видна
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/admin/roles/role-01", token).StatusCode)
}

func TestHealth(t *testing.T) {
	resp := get(t, newTestServer(t, pinger{}).URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, newTestServer(t, pinger{err: errors.New("db down")}).URL+"/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics_RoutePattern(t *testing.T) {
	srv := newTestServer(t, pinger{})
	token := login(t, srv, "admin", "demo-admin")
	get(t, srv.URL+"/api/admin/roles/role-02", token)

	resp := get(t, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `route="/api/admin/roles/{id}"`)
	assert.NotContains(t, string(body), `route="/api/admin/roles/role-02"`)
}
