package analytics

import (
	"sort"
	"time"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// BucketUsage суммирует дневные точки в бакеты нужного grain. Точки с битой датой отбрасываются.
func BucketUsage(points []domain.UsagePoint, g domain.Grain) []domain.UsagePoint {
	if g == domain.GrainDay || g == "" {
		return points
	}
	acc := make(map[string]*domain.UsagePoint)
	for _, p := range points {
		key, ok := bucketKey(p.Date, g)
		if !ok {
			continue
		}
		b, exists := acc[key]
		if !exists {
			b = &domain.UsagePoint{Date: key}
			acc[key] = b
		}
		// active_users за период - максимум дневных значений, а не сумма (один человек считается раз в день)
		if p.ActiveUsers > b.ActiveUsers {
			b.ActiveUsers = p.ActiveUsers
		}
		b.Sessions += p.Sessions
		b.APICalls += p.APICalls
	}
	out := make([]domain.UsagePoint, 0, len(acc))
	for _, b := range acc {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BucketCopilot суммирует промпты и принятые подсказки, acceptance_rate пересчитывается из сумм.
func BucketCopilot(points []domain.CopilotPoint, g domain.Grain) []domain.CopilotPoint {
	acc := make(map[string]*domain.CopilotPoint)
	for _, p := range points {
		key, ok := bucketKey(p.Date, g)
		if !ok {
			continue
		}
		b, exists := acc[key]
		if !exists {
			b = &domain.CopilotPoint{Date: key}
			acc[key] = b
		}
		b.Prompts += p.Prompts
		b.AcceptedSuggestions += p.AcceptedSuggestions
	}
	out := make([]domain.CopilotPoint, 0, len(acc))
	for _, b := range acc {
		b.AcceptanceRate = share(b.AcceptedSuggestions, b.Prompts)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func bucketKey(date string, g domain.Grain) (string, bool) {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return "", false
	}
	return g.Truncate(t).Format(domain.DateLayout), true
}

func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
