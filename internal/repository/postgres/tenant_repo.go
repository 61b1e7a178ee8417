package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/domain"
)

const tenantColumns = `id, name, slug, plan, seats, feature_analytics, feature_copilot, feature_audit, feature_export, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.Seats,
		&t.Features.Analytics, &t.Features.Copilot, &t.Features.Audit, &t.Features.Export, &t.CreatedAt)
	return t, err
}

func (r *Repo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]domain.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *Repo) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "tenant", id)
	}
	return &t, nil
}

func (r *Repo) GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound(err, "tenant", slug)
	}
	return &t, nil
}

// CreateTenant вставляет тенанта. Занятый slug (unique violation) - domain.ErrConflict.
func (r *Repo) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, plan, seats, feature_analytics, feature_copilot, feature_audit, feature_export)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Plan, t.Seats,
		t.Features.Analytics, t.Features.Copilot, t.Features.Audit, t.Features.Export,
	).Scan(&t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant slug %q: %w", t.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("postgres: create tenant: %w", err)
	}
	return nil
}

// featureColumns - имя флага -> колонка. В SQL попадают только значения из этой таблицы.
var featureColumns = map[string]string{
	domain.FeatureAnalytics: "feature_analytics",
	domain.FeatureCopilot:   "feature_copilot",
	domain.FeatureAudit:     "feature_audit",
	domain.FeatureExport:    "feature_export",
}

// SetFeature обновляет одну колонку флага, остальные флаги не перезаписываются,
// поэтому параллельные переключения разных фич не теряются.
func (r *Repo) SetFeature(ctx context.Context, id, feature string, on bool) (domain.Features, error) {
	col, ok := featureColumns[feature]
	if !ok {
		return domain.Features{}, fmt.Errorf("%w: unknown feature %q", domain.ErrValidation, feature)
	}
	query := `
		UPDATE tenants SET ` + col + ` = $1
		WHERE id = $2
		RETURNING feature_analytics, feature_copilot, feature_audit, feature_export`

	var f domain.Features
	err := r.db.QueryRowContext(ctx, query, on, id).Scan(&f.Analytics, &f.Copilot, &f.Audit, &f.Export)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Features{}, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
		}
		return domain.Features{}, fmt.Errorf("postgres: set feature: %w", err)
	}
	return f, nil
}

// CreateAccessRequest. Повторная pending-заявка того же email (частичный unique-индекс) - ErrConflict.
func (r *Repo) CreateAccessRequest(ctx context.Context, req *domain.AccessRequest) error {
	query := `
		INSERT INTO access_requests (id, tenant_id, email, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, req.ID, req.TenantID, req.Email, req.Reason, req.Status, req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("access request for %s: %w", req.Email, domain.ErrConflict)
		}
		return fmt.Errorf("postgres: create access request: %w", err)
	}
	return nil
}
