package service

import (
	"context"
	"io"

	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
)

// Composer - агрегатор аналитики (analytics.Aggregator).
type Composer interface {
	Compose(ctx context.Context, req analytics.Request) (*domain.AnalyticsSnapshot, error)
	Fetch(ctx context.Context, req analytics.Request, source string) (any, error)
	Export(ctx context.Context, req analytics.Request, format string, w io.Writer) error
}

// AnalyticsQuery - разобранные параметры дашборда.
type AnalyticsQuery struct {
	Range  domain.DateRange
	Grain  domain.Grain
	Strict bool
	// ViewKey - вкладка дашборда: tenant + user + X-View-ID
	ViewKey string
}

// AnalyticsService подставляет актуальные флаги тенанта в запрос агрегатора.
type AnalyticsService struct {
	agg     Composer
	tenants FlagStore
	audit   audit.Auditor
}

func NewAnalyticsService(agg Composer, tenants FlagStore, auditor audit.Auditor) *AnalyticsService {
	return &AnalyticsService{agg: agg, tenants: tenants, audit: auditor}
}

func (s *AnalyticsService) request(ctx context.Context, tenantID string, q AnalyticsQuery) (analytics.Request, error) {
	tenant, err := s.tenants.Tenant(ctx, tenantID)
	if err != nil {
		return analytics.Request{}, err
	}
	return analytics.Request{
		TenantID: tenantID,
		Features: tenant.Features,
		Range:    q.Range,
		Grain:    q.Grain,
		ViewKey:  q.ViewKey,
		Strict:   q.Strict,
	}, nil
}

func (s *AnalyticsService) Snapshot(ctx context.Context, tenantID string, q AnalyticsQuery) (*domain.AnalyticsSnapshot, error) {
	req, err := s.request(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	return s.agg.Compose(ctx, req)
}

// Source - один набор метрик (серверный экшен getUsageMetrics и т.п.).
func (s *AnalyticsService) Source(ctx context.Context, tenantID, source string, q AnalyticsQuery) (any, error) {
	req, err := s.request(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	return s.agg.Fetch(ctx, req, source)
}

func (s *AnalyticsService) Export(ctx context.Context, tenantID string, q AnalyticsQuery, format string, w io.Writer) error {
	req, err := s.request(ctx, tenantID, q)
	if err != nil {
		return err
	}
	err = s.agg.Export(ctx, req, format, w)
	record(ctx, s.audit, audit.Event{
		TenantID:   tenantID,
		Action:     audit.ActionAnalyticsExport,
		TargetType: "analytics",
		Details: map[string]any{
			"format": format,
			"from":   q.Range.From.Format(domain.DateLayout),
			"to":     q.Range.To.Format(domain.DateLayout),
		},
	}, err)
	return err
}
