package postgres

import (
	"context"
	"time"

	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/domain"
)

var _ analytics.Source = (*Repo)(nil)

// Usage агрегирует дневные счетчики в бакеты grain средствами date_trunc.
// active_users за бакет - максимум дневных значений.
func (r *Repo) Usage(ctx context.Context, tenantID string, rng domain.DateRange, g domain.Grain) ([]domain.UsagePoint, error) {
	if g == "" {
		g = domain.GrainDay
	}
	query := `
		SELECT date_trunc($2, day)::date AS bucket, MAX(active_users), SUM(sessions), SUM(api_calls)
		FROM usage_daily
		WHERE tenant_id = $1 AND day BETWEEN $3 AND $4
		GROUP BY bucket ORDER BY bucket`

	return queryList(ctx, r.db, "usage", query, func(row rowScanner) (domain.UsagePoint, error) {
		var (
			p      domain.UsagePoint
			bucket time.Time
		)
		err := row.Scan(&bucket, &p.ActiveUsers, &p.Sessions, &p.APICalls)
		p.Date = bucket.Format(domain.DateLayout)
		return p, err
	}, tenantID, string(g), rng.From, rng.To)
}

func (r *Repo) SeatsByRole(ctx context.Context, tenantID string) ([]domain.SeatsByRole, error) {
	query := `
		SELECT r.name, r.user_count, GREATEST(COALESCE(s.allocated, 0) - r.user_count, 0)
		FROM roles r
		LEFT JOIN seat_allocations s ON s.role_id = r.id
		WHERE r.tenant_id = $1 AND r.is_active
		ORDER BY r.user_count DESC, r.name`

	return queryList(ctx, r.db, "seats", query, func(row rowScanner) (domain.SeatsByRole, error) {
		var s domain.SeatsByRole
		err := row.Scan(&s.Role, &s.Assigned, &s.Available)
		return s, err
	}, tenantID)
}

// FeatureAdoption - уникальные пользователи фичи за окно относительно купленных мест.
func (r *Repo) FeatureAdoption(ctx context.Context, tenantID string, rng domain.DateRange) ([]domain.FeatureAdoption, error) {
	query := `
		SELECT f.feature, COUNT(DISTINCT f.user_id),
		       COALESCE(COUNT(DISTINCT f.user_id)::float8 / NULLIF(t.seats, 0), 0)
		FROM feature_events f
		JOIN tenants t ON t.id = f.tenant_id
		WHERE f.tenant_id = $1 AND f.occurred_at::date BETWEEN $2 AND $3
		GROUP BY f.feature, t.seats
		ORDER BY f.feature`

	return queryList(ctx, r.db, "feature adoption", query, func(row rowScanner) (domain.FeatureAdoption, error) {
		var a domain.FeatureAdoption
		err := row.Scan(&a.Feature, &a.Users, &a.AdoptionRate)
		return a, err
	}, tenantID, rng.From, rng.To)
}

// CopilotMetrics отдает дневные точки, бакетирование делает агрегатор.
func (r *Repo) CopilotMetrics(ctx context.Context, tenantID string, rng domain.DateRange) ([]domain.CopilotPoint, error) {
	query := `
		SELECT day, prompts, accepted_suggestions
		FROM copilot_daily
		WHERE tenant_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day`

	return queryList(ctx, r.db, "copilot metrics", query, func(row rowScanner) (domain.CopilotPoint, error) {
		var (
			p   domain.CopilotPoint
			day time.Time
		)
		if err := row.Scan(&day, &p.Prompts, &p.AcceptedSuggestions); err != nil {
			return p, err
		}
		p.Date = day.Format(domain.DateLayout)
		if p.Prompts > 0 {
			p.AcceptanceRate = float64(p.AcceptedSuggestions) / float64(p.Prompts)
		}
		return p, nil
	}, tenantID, rng.From, rng.To)
}

// AuditRollup считает события журнала администраторов по дням и действиям.
func (r *Repo) AuditRollup(ctx context.Context, tenantID string, rng domain.DateRange) ([]domain.AuditRollupPoint, error) {
	query := `
		SELECT date_trunc('day', timestamp)::date AS day, action, COUNT(*)
		FROM audit_events
		WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY day, action
		ORDER BY day, action`

	return queryList(ctx, r.db, "audit rollup", query, func(row rowScanner) (domain.AuditRollupPoint, error) {
		var (
			p   domain.AuditRollupPoint
			day time.Time
		)
		err := row.Scan(&day, &p.Action, &p.Count)
		p.Date = day.Format(domain.DateLayout)
		return p, err
	}, tenantID, rng.From, rng.To.AddDate(0, 0, 1))
}
