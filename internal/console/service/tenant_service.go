package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

// TenantFilters - equal-фильтры директории тенантов.
var TenantFilters = []string{"plan"}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type TenantRepository interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	CreateTenant(ctx context.Context, t *domain.Tenant) error
	SetFeature(ctx context.Context, id, feature string, on bool) (domain.Features, error)
	CreateAccessRequest(ctx context.Context, r *domain.AccessRequest) error
}

// FlagStore - кэш тенантов с фич-флагами (flags.Cache).
type FlagStore interface {
	Tenant(ctx context.Context, id string) (domain.Tenant, error)
	Put(t domain.Tenant)
	Publish(ctx context.Context, tenantID, feature string, on bool) error
}

type TenantService struct {
	repo     TenantRepository
	flags    FlagStore
	rdb      *redis.Client
	validate *validator.Validate
	audit    audit.Auditor
	logger   *zap.Logger
	now      func() time.Time
}

// NewTenantService. rdb может быть nil - тогда заявки на доступ никуда не транслируются.
func NewTenantService(repo TenantRepository, flags FlagStore, rdb *redis.Client, auditor audit.Auditor, logger *zap.Logger) *TenantService {
	return &TenantService{
		repo:     repo,
		flags:    flags,
		rdb:      rdb,
		validate: newValidator(),
		audit:    auditor,
		logger:   logger.Named("tenant-service"),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях используем имена полей формы, а не Go-структуры
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// describe превращает ошибки валидатора в одну строку для формы.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "slug":
			msgs = append(msgs, fe.Field()+" must be lowercase letters, digits and single hyphens")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Current - тенант вызывающего с актуальными флагами.
func (s *TenantService) Current(ctx context.Context, tenantID string) (domain.Tenant, error) {
	return s.flags.Tenant(ctx, tenantID)
}

// List - директория тенантов для сайдбара: поиск по имени и slug, фильтр по плану.
func (s *TenantService) List(ctx context.Context, p filter.Params) ([]domain.Tenant, error) {
	tenants, err := s.repo.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenant_service: list: %w", err)
	}
	q := filter.New[domain.Tenant](p).
		SearchIn(
			func(t domain.Tenant) string { return t.Name },
			func(t domain.Tenant) string { return t.Slug },
		).
		Field("plan", func(t domain.Tenant) string { return string(t.Plan) }).
		Field("name", func(t domain.Tenant) string { return t.Name })
	return q.Filter(tenants)
}

// Create - экшен "Create tenant". Ошибки формы возвращаются в ActionResult,
// error - только для отказов инфраструктуры.
func (s *TenantService) Create(ctx context.Context, form domain.CreateTenantForm) (res domain.ActionResult, err error) {
	form.Slug = strings.TrimSpace(form.Slug)
	form.Name = strings.TrimSpace(form.Name)
	if vErr := s.validate.Struct(form); vErr != nil {
		return domain.ActionResult{Error: describe(vErr)}, nil
	}

	t := &domain.Tenant{
		ID:        uuid.NewString(),
		Name:      form.Name,
		Slug:      form.Slug,
		Plan:      form.Plan,
		Features:  form.Features,
		Seats:     form.Seats,
		CreatedAt: s.now().UTC(),
	}

	defer func() {
		var opErr error
		if !res.OK {
			opErr = errors.New(res.Error)
		}
		if err != nil {
			opErr = err
		}
		record(ctx, s.audit, audit.Event{
			TenantID:   t.ID,
			Action:     audit.ActionTenantCreate,
			TargetType: "tenant",
			TargetID:   t.ID,
			Details:    map[string]any{"slug": t.Slug, "plan": string(t.Plan), "admin_email": form.AdminEmail},
		}, opErr)
	}()

	if err := s.repo.CreateTenant(ctx, t); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.ActionResult{Error: "slug already taken"}, nil
		}
		s.logger.Error("failed to create tenant", zap.String("slug", t.Slug), zap.Error(err))
		return domain.ActionResult{}, fmt.Errorf("tenant_service: create: %w", err)
	}
	s.flags.Put(*t)

	s.logger.Info("tenant created",
		zap.String("tenant_id", t.ID),
		zap.String("slug", t.Slug),
		zap.String("plan", string(t.Plan)))

	return domain.ActionResult{OK: true, Redirect: "/tenant/" + t.Slug + "/analytics"}, nil
}

// RequestAccess - экшен "Request access" к существующему тенанту.
func (s *TenantService) RequestAccess(ctx context.Context, form domain.AccessRequestForm) (domain.ActionResult, error) {
	form.TenantSlug = strings.TrimSpace(form.TenantSlug)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if err := s.validate.Struct(form); err != nil {
		return domain.ActionResult{Error: describe(err)}, nil
	}

	tenant, err := s.repo.GetTenantBySlug(ctx, form.TenantSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ActionResult{Error: "tenant not found"}, nil
		}
		return domain.ActionResult{}, fmt.Errorf("tenant_service: lookup tenant: %w", err)
	}

	req := &domain.AccessRequest{
		ID:        ulid.Make().String(),
		TenantID:  tenant.ID,
		Email:     form.Email,
		Reason:    form.Reason,
		Status:    domain.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	err = s.repo.CreateAccessRequest(ctx, req)
	record(ctx, s.audit, audit.Event{
		TenantID:   tenant.ID,
		Action:     audit.ActionAccessRequest,
		TargetType: "access_request",
		TargetID:   req.ID,
		Details:    map[string]any{"email": req.Email},
	}, err)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.ActionResult{Error: "access already requested"}, nil
		}
		return domain.ActionResult{}, fmt.Errorf("tenant_service: create access request: %w", err)
	}

	s.notifyAccessRequest(ctx, req)
	return domain.ActionResult{OK: true}, nil
}

// notifyAccessRequest транслирует заявку нотификаторам. Заявка уже сохранена, поэтому сбой Redis не фатален.
func (s *TenantService) notifyAccessRequest(ctx context.Context, req *domain.AccessRequest) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Error("failed to encode access request", zap.Error(err))
		return
	}
	if err := s.rdb.Publish(ctx, infra.RedisChanAccessRequests, payload).Err(); err != nil {
		s.logger.Warn("access request signal failed",
			zap.String("request_id", req.ID),
			zap.Error(err))
	}
}

// SetFeature включает/выключает фичу тенанта: БД, затем сигнал всем инстансам.
func (s *TenantService) SetFeature(ctx context.Context, tenantID, feature string, on bool) (tenant domain.Tenant, err error) {
	defer func() {
		record(ctx, s.audit, audit.Event{
			TenantID:   tenantID,
			Action:     audit.ActionFeatureToggle,
			TargetType: "tenant",
			TargetID:   tenantID,
			Details:    map[string]any{"feature": feature, "enabled": on},
		}, err)
	}()

	tenant, err = s.flags.Tenant(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, err
	}
	// Только валидация имени: сами флаги берем из ответа хранилища
	if err = new(domain.Features).Set(feature, on); err != nil {
		return domain.Tenant{}, err
	}

	// 1. Persistence Layer: одна колонка, а не весь набор флагов
	features, err := s.repo.SetFeature(ctx, tenantID, feature, on)
	if err != nil {
		s.logger.Error("failed to update feature in DB",
			zap.String("tenant_id", tenantID),
			zap.String("feature", feature),
			zap.Error(err))
		return domain.Tenant{}, fmt.Errorf("tenant_service: set feature: %w", err)
	}
	tenant.Features = features
	s.flags.Put(tenant)

	// 2. Real-time Signaling
	if err := s.flags.Publish(ctx, tenantID, feature, on); err != nil {
		s.logger.Warn("feature signal delivery failed",
			zap.String("tenant_id", tenantID),
			zap.String("feature", feature),
			zap.Error(err))
	}
	return tenant, nil
}
