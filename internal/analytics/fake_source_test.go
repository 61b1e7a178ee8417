package analytics

import (
	"context"
	"sync/atomic"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// fakeSource отдает фиксированные данные; любой метод можно переопределить.
type fakeSource struct {
	usage    func(ctx context.Context) ([]domain.UsagePoint, error)
	seats    func(ctx context.Context) ([]domain.SeatsByRole, error)
	adoption func(ctx context.Context) ([]domain.FeatureAdoption, error)
	copilot  func(ctx context.Context) ([]domain.CopilotPoint, error)
	audit    func(ctx context.Context) ([]domain.AuditRollupPoint, error)

	usageCalls atomic.Int32
}

func (f *fakeSource) Usage(ctx context.Context, _ string, _ domain.DateRange, _ domain.Grain) ([]domain.UsagePoint, error) {
	f.usageCalls.Add(1)
	if f.usage != nil {
		return f.usage(ctx)
	}
	return []domain.UsagePoint{
		{Date: "2024-01-01", ActiveUsers: 10, Sessions: 20, APICalls: 100},
		{Date: "2024-01-02", ActiveUsers: 12, Sessions: 25, APICalls: 90},
	}, nil
}

func (f *fakeSource) SeatsByRole(ctx context.Context, _ string) ([]domain.SeatsByRole, error) {
	if f.seats != nil {
		return f.seats(ctx)
	}
	return []domain.SeatsByRole{{Role: "Admin", Assigned: 3, Available: 2}}, nil
}

func (f *fakeSource) FeatureAdoption(ctx context.Context, _ string, _ domain.DateRange) ([]domain.FeatureAdoption, error) {
	if f.adoption != nil {
		return f.adoption(ctx)
	}
	return []domain.FeatureAdoption{{Feature: "copilot", Users: 40, AdoptionRate: 0.4}}, nil
}

func (f *fakeSource) CopilotMetrics(ctx context.Context, _ string, _ domain.DateRange) ([]domain.CopilotPoint, error) {
	if f.copilot != nil {
		return f.copilot(ctx)
	}
	return []domain.CopilotPoint{{Date: "2024-01-01", Prompts: 10, AcceptedSuggestions: 5}}, nil
}

func (f *fakeSource) AuditRollup(ctx context.Context, _ string, _ domain.DateRange) ([]domain.AuditRollupPoint, error) {
	if f.audit != nil {
		return f.audit(ctx)
	}
	return []domain.AuditRollupPoint{{Date: "2024-01-01", Action: "role.delete", Count: 2}}, nil
}

// mapCache - SnapshotCache без фоновых горутин.
type mapCache struct {
	items map[string]domain.AnalyticsSnapshot
	sets  int
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string]domain.AnalyticsSnapshot)} }

func (c *mapCache) Get(_ context.Context, key string) (domain.AnalyticsSnapshot, bool) {
	s, ok := c.items[key]
	return s, ok
}

func (c *mapCache) Set(_ context.Context, key string, snap domain.AnalyticsSnapshot) {
	c.sets++
	c.items[key] = snap
}
