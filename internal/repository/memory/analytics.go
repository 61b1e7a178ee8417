package memory

import (
	"context"
	"hash/fnv"
	"sort"
	"time"

	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/domain"
)

// Синтетические метрики для демо: детерминированы по тенанту и дате,
// чтобы графики не прыгали между перезагрузками страницы.

var _ analytics.Source = (*Store)(nil)

func (s *Store) Usage(ctx context.Context, tenantID string, r domain.DateRange, g domain.Grain) ([]domain.UsagePoint, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	seed := tenantSeed(tenantID)
	base := int64(t.Seats) * 6 / 10

	points := make([]domain.UsagePoint, 0, r.Days())
	r.Each(func(day time.Time) {
		active := base
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			active = base * 3 / 10
		}
		active += int64((seed + uint32(day.YearDay())) % 7)
		points = append(points, domain.UsagePoint{
			Date:        day.Format(domain.DateLayout),
			ActiveUsers: active,
			Sessions:    active * 3 / 2,
			APICalls:    active * 40,
		})
	})
	return analytics.BucketUsage(points, g), nil
}

func (s *Store) SeatsByRole(ctx context.Context, tenantID string) ([]domain.SeatsByRole, error) {
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	roles := s.tenantRoles(tenantID)
	s.mu.RUnlock()

	out := make([]domain.SeatsByRole, 0, len(roles))
	for _, role := range roles {
		if !role.IsActive {
			continue
		}
		assigned := int64(role.UserCount)
		out = append(out, domain.SeatsByRole{
			Role:      role.Name,
			Assigned:  assigned,
			Available: assigned/5 + 1,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Assigned != out[j].Assigned {
			return out[i].Assigned > out[j].Assigned
		}
		return out[i].Role < out[j].Role
	})
	return out, nil
}

func (s *Store) FeatureAdoption(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.FeatureAdoption, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	seed := tenantSeed(tenantID)
	out := make([]domain.FeatureAdoption, 0, 4)
	for i, name := range []string{domain.FeatureAnalytics, domain.FeatureCopilot, domain.FeatureAudit, domain.FeatureExport} {
		if !t.Features.Enabled(name) || t.Seats == 0 {
			continue
		}
		// Чем длиннее окно, тем больше уникальных пользователей успело попробовать фичу
		pct := 20 + int64((seed>>uint(i*4))%40) + int64(min(r.Days(), 90)/9)
		users := int64(t.Seats) * pct / 100
		out = append(out, domain.FeatureAdoption{
			Feature:      name,
			Users:        users,
			AdoptionRate: float64(users) / float64(t.Seats),
		})
	}
	return out, nil
}

func (s *Store) CopilotMetrics(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.CopilotPoint, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	seed := tenantSeed(tenantID)
	points := make([]domain.CopilotPoint, 0, r.Days())
	r.Each(func(day time.Time) {
		k := seed + uint32(day.YearDay())
		prompts := int64(t.Seats)/4 + int64(k%15)
		accepted := prompts * int64(55+k%20) / 100
		points = append(points, domain.CopilotPoint{
			Date:                day.Format(domain.DateLayout),
			Prompts:             prompts,
			AcceptedSuggestions: accepted,
			AcceptanceRate:      ratio(accepted, prompts),
		})
	})
	return points, nil
}

// AuditRollup считает реальные события журнала по дням и действиям.
func (s *Store) AuditRollup(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.AuditRollupPoint, error) {
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	type key struct{ date, action string }
	counts := make(map[key]int64)

	s.mu.RLock()
	for _, e := range s.auditEvents {
		if e.TenantID != tenantID {
			continue
		}
		day := domain.GrainDay.Truncate(e.Timestamp)
		if day.Before(r.From) || day.After(r.To) {
			continue
		}
		counts[key{day.Format(domain.DateLayout), e.Action}]++
	}
	s.mu.RUnlock()

	out := make([]domain.AuditRollupPoint, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.AuditRollupPoint{Date: k.date, Action: k.action, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

func tenantSeed(tenantID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return h.Sum32()
}

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
