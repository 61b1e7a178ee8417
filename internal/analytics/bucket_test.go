package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela07ax/workforce-console/internal/domain"
)

func TestBucketUsage(t *testing.T) {
	daily := []domain.UsagePoint{
		{Date: "2024-01-01", ActiveUsers: 5, Sessions: 10, APICalls: 100}, // понедельник
		{Date: "2024-01-03", ActiveUsers: 8, Sessions: 12, APICalls: 50},
		{Date: "2024-01-07", ActiveUsers: 3, Sessions: 1, APICalls: 1}, // воскресенье
		{Date: "2024-01-08", ActiveUsers: 4, Sessions: 2, APICalls: 2},
		{Date: "2024-02-01", ActiveUsers: 9, Sessions: 9, APICalls: 9},
		{Date: "broken", ActiveUsers: 100},
	}

	t.Run("day passes through", func(t *testing.T) {
		assert.Equal(t, daily, BucketUsage(daily, domain.GrainDay))
	})

	t.Run("week starts on monday", func(t *testing.T) {
		got := BucketUsage(daily, domain.GrainWeek)
		assert.Equal(t, []domain.UsagePoint{
			{Date: "2024-01-01", ActiveUsers: 8, Sessions: 23, APICalls: 151},
			{Date: "2024-01-08", ActiveUsers: 4, Sessions: 2, APICalls: 2},
			{Date: "2024-01-29", ActiveUsers: 9, Sessions: 9, APICalls: 9},
		}, got)
	})

	t.Run("month", func(t *testing.T) {
		got := BucketUsage(daily, domain.GrainMonth)
		assert.Equal(t, []domain.UsagePoint{
			{Date: "2024-01-01", ActiveUsers: 8, Sessions: 25, APICalls: 153},
			{Date: "2024-02-01", ActiveUsers: 9, Sessions: 9, APICalls: 9},
		}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := BucketUsage(daily, domain.GrainWeek)
		assert.Equal(t, once, BucketUsage(once, domain.GrainWeek))
	})
}

func TestBucketCopilot_RecomputesRate(t *testing.T) {
	daily := []domain.CopilotPoint{
		{Date: "2024-03-01", Prompts: 10, AcceptedSuggestions: 9, AcceptanceRate: 0.9},
		{Date: "2024-03-15", Prompts: 90, AcceptedSuggestions: 11, AcceptanceRate: 0.12},
		{Date: "2024-04-02", Prompts: 0, AcceptedSuggestions: 0},
	}

	got := BucketCopilot(daily, domain.GrainMonth)
	assert.Len(t, got, 2)
	assert.Equal(t, "2024-03-01", got[0].Date)
	assert.Equal(t, int64(100), got[0].Prompts)
	assert.InDelta(t, 0.2, got[0].AcceptanceRate, 1e-9)
	assert.Zero(t, got[1].AcceptanceRate)
}
