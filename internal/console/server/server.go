package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/workforce-console/internal/console/handler"
	"github.com/xela07ax/workforce-console/internal/infra"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"go.uber.org/zap"
)

// Pinger - зависимость, без которой консоль не готова обслуживать запросы (хранилище).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers - обработчики бизнес-доменов.
type Handlers struct {
	Auth       *handler.AuthHandler       // /auth/token
	Tenant     *handler.TenantHandler     // /api/v1/tenant, /api/v1/tenants
	Analytics  *handler.AnalyticsHandler  // /api/v1/tenant/analytics
	Roles      *handler.RoleHandler       // /api/admin/roles
	Employees  *handler.EmployeeHandler   // /api/v1/employees
	Automation *handler.AutomationHandler // /api/v1/automation
	Workforce  *handler.WorkforceHandler  // utilization, sourcing, training, payroll, forecasts
}

type ConsoleServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	metrics *infra.Metrics

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator
	gatherer      prometheus.Gatherer
	storage       Pinger

	h Handlers
}

// NewConsoleServer инициализирует роутер консоли со всеми зависимостями.
func NewConsoleServer(
	logger *zap.Logger,
	metrics *infra.Metrics,
	gatherer prometheus.Gatherer,
	validator auth.TokenValidator,
	storage Pinger,
	h Handlers,
) *ConsoleServer {
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		metrics:       metrics,
		authValidator: validator,
		gatherer:      gatherer,
		storage:       storage,
		h:             h,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.metrics))

	// --- 2. Публичные роуты ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.h.Auth.Login)
		r.Get("/health", s.health)
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	})

	// --- 3. Защищенный периметр (RS256 токен с tenant_id) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		r.Get("/api/v1/statuses", handler.Statuses)

		// Текущий тенант, флаги и аналитика
		r.Route("/api/v1/tenant", func(r chi.Router) {
			r.Get("/", s.h.Tenant.Current)
			r.Put("/features/{feature}", s.h.Tenant.SetFeature)
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/", s.h.Analytics.Snapshot)
				r.Get("/export", s.h.Analytics.Export)
				r.Get("/{source}", s.h.Analytics.Source)
			})
		})

		// Директория тенантов
		r.Route("/api/v1/tenants", func(r chi.Router) {
			r.Get("/", s.h.Tenant.List)
			r.Post("/", s.h.Tenant.Create)
			r.Post("/access-requests", s.h.Tenant.RequestAccess)
		})

		// Роли
		r.Route("/api/admin/roles", func(r chi.Router) {
			r.Get("/", s.h.Roles.List)
			r.Get("/stats", s.h.Roles.Stats)
			r.Get("/{id}", s.h.Roles.Get)
			r.Delete("/{id}", s.h.Roles.Delete)
		})

		r.Get("/api/v1/employees", s.h.Employees.List)
		r.Get("/api/v1/employees/export", s.h.Employees.Export)

		r.Get("/api/v1/automation/rules", s.h.Automation.List)
		r.Post("/api/v1/automation/rules/{id}/toggle", s.h.Automation.Toggle)

		r.Get("/api/v1/utilization", s.h.Workforce.Utilization)
		r.Get("/api/v1/sourcing/candidates", s.h.Workforce.Candidates)
		r.Route("/api/v1/training", func(r chi.Router) {
			r.Get("/courses", s.h.Workforce.Courses)
			r.Get("/assignments", s.h.Workforce.Training)
			r.Get("/sessions", s.h.Workforce.Sessions)
			r.Post("/sessions/{id}/enroll", s.h.Workforce.Enroll)
		})
		r.Get("/api/v1/payroll/runs", s.h.Workforce.PayrollRuns)
		r.Get("/api/v1/payroll/runs/{id}", s.h.Workforce.PayrollRun)
		r.Get("/api/v1/forecasts", s.h.Workforce.Forecasts)
	})
}

func (s *ConsoleServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.storage.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
