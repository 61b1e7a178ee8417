package filter

import "fmt"

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(page, limit, total int) Pagination {
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	if page < 1 {
		page = 1
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

// Offset - смещение для SQL (LIMIT/OFFSET). За последней страницей - Total:
// выборка пустая, а (Page-1)*Limit не переполняется.
func (p Pagination) Offset() int {
	if p.Limit < 1 || p.Page-1 > p.Total/p.Limit {
		return p.Total
	}
	return (p.Page - 1) * p.Limit
}

// Bounds возвращает полуоткрытый интервал [start, end) текущей страницы.
func (p Pagination) Bounds() (int, int) {
	start := p.Offset()
	if start > p.Total {
		start = p.Total
	}
	end := start + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// Summary - строка для футера таблицы: "Showing 11 to 20 of 25 roles".
func (p Pagination) Summary(noun string) string {
	start, end := p.Bounds()
	if start == end {
		return fmt.Sprintf("Showing 0 to 0 of %d %s", p.Total, noun)
	}
	return fmt.Sprintf("Showing %d to %d of %d %s", start+1, end, p.Total, noun)
}
