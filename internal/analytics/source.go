package analytics

import (
	"context"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// Имена источников. Совпадают с ключами слотов в снапшоте и с путями /analytics/{source}.
const (
	SourceUsage    = "usage"
	SourceSeats    = "seats"
	SourceAdoption = "adoption"
	SourceCopilot  = "copilot"
	SourceAudit    = "audit"
)

// Source - независимые наборы метрик тенанта. Каждый метод - отдельный запрос к хранилищу.
type Source interface {
	Usage(ctx context.Context, tenantID string, r domain.DateRange, g domain.Grain) ([]domain.UsagePoint, error)
	SeatsByRole(ctx context.Context, tenantID string) ([]domain.SeatsByRole, error)
	FeatureAdoption(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.FeatureAdoption, error)
	CopilotMetrics(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.CopilotPoint, error)
	AuditRollup(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.AuditRollupPoint, error)
}

// SourceError - отказ конкретного источника. Текст ошибки отдается клиенту как есть.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }
