package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// MaxRangeDays ограничивает окно аналитики, чтобы не гонять тяжелые агрегаты по всей истории.
const MaxRangeDays = 366

// Grain - единица бакетирования временных рядов.
type Grain string

const (
	GrainDay   Grain = "day"
	GrainWeek  Grain = "week"
	GrainMonth Grain = "month"
)

func ParseGrain(s string) (Grain, error) {
	switch Grain(s) {
	case "":
		return GrainDay, nil
	case GrainDay, GrainWeek, GrainMonth:
		return Grain(s), nil
	}
	return "", fmt.Errorf("%w: unknown grain %q", ErrValidation, s)
}

// Truncate приводит дату к началу бакета. Неделя начинается с понедельника (ISO).
func (g Grain) Truncate(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case GrainWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case GrainMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// DateRange - окно в днях, обе границы включительно.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParseDateRange разбирает ?from=&to= и проверяет окно. Пустые значения - последние 30 дней до now.
func ParseDateRange(from, to string, now time.Time) (DateRange, error) {
	r, err := ParseDateWindow(from, to, now)
	if err != nil {
		return DateRange{}, err
	}
	return r, r.Validate()
}

// ParseDateWindow только разбирает даты, без проверки порядка и длины окна.
func ParseDateWindow(from, to string, now time.Time) (DateRange, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: bad 'to' date: %v", ErrValidation, err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -29)
	if from != "" {
		f, err := time.Parse(DateLayout, from)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: bad 'from' date: %v", ErrValidation, err)
		}
		start = f
	}
	return DateRange{From: start, To: end}, nil
}

func (r DateRange) Validate() error {
	if r.To.Before(r.From) {
		return fmt.Errorf("%w: 'from' is after 'to'", ErrValidation)
	}
	if r.Days() > MaxRangeDays {
		return fmt.Errorf("%w: range exceeds %d days", ErrValidation, MaxRangeDays)
	}
	return nil
}

// Days возвращает количество дней в окне (включительно).
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// Each обходит дни окна по порядку.
func (r DateRange) Each(fn func(day time.Time)) {
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// --- KPI-шейпы, которые отдаются прямо в чарты ---

type UsagePoint struct {
	Date        string `json:"date"`
	ActiveUsers int64  `json:"active_users"`
	Sessions    int64  `json:"sessions"`
	APICalls    int64  `json:"api_calls"`
}

type SeatsByRole struct {
	Role      string `json:"role"`
	Assigned  int64  `json:"assigned"`
	Available int64  `json:"available"`
}

type FeatureAdoption struct {
	Feature      string  `json:"feature"`
	Users        int64   `json:"users"`
	AdoptionRate float64 `json:"adoption_rate"`
}

type CopilotPoint struct {
	Date                string  `json:"date"`
	Prompts             int64   `json:"prompts"`
	AcceptedSuggestions int64   `json:"accepted_suggestions"`
	AcceptanceRate      float64 `json:"acceptance_rate"`
}

type AuditRollupPoint struct {
	Date   string `json:"date"`
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// --- Слоты: каждый источник данных живет своей жизнью ---

type SlotStatus string

const (
	SlotReady    SlotStatus = "ready"
	SlotError    SlotStatus = "error"
	SlotDisabled SlotStatus = "disabled"
)

// Slot хранит результат одного источника: данные либо ошибку.
// Ошибка одного слота не гасит остальные регионы дашборда.
type Slot[T any] struct {
	Status SlotStatus `json:"status"`
	Data   T          `json:"data,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func ReadySlot[T any](data T) Slot[T] { return Slot[T]{Status: SlotReady, Data: data} }

func ErrorSlot[T any](err error) Slot[T] { return Slot[T]{Status: SlotError, Error: err.Error()} }

func DisabledSlot[T any]() Slot[T] { return Slot[T]{Status: SlotDisabled} }

// AnalyticsSnapshot - композиция всех метрик тенанта за окно.
type AnalyticsSnapshot struct {
	TenantID   string    `json:"tenant_id"`
	Range      DateRange `json:"range"`
	Grain      Grain     `json:"grain"`
	Generation uint64    `json:"generation"`
	ComputedAt time.Time `json:"computed_at"`
	Cached     bool      `json:"cached"`

	Usage    Slot[[]UsagePoint]       `json:"usage"`
	Seats    Slot[[]SeatsByRole]      `json:"seats"`
	Adoption Slot[[]FeatureAdoption]  `json:"adoption"`
	Copilot  Slot[[]CopilotPoint]     `json:"copilot"`
	Audit    Slot[[]AuditRollupPoint] `json:"audit"`
}

// Complete - все включенные слоты готовы (только такие снапшоты можно кэшировать).
func (s *AnalyticsSnapshot) Complete() bool {
	for _, st := range []SlotStatus{s.Usage.Status, s.Seats.Status, s.Adoption.Status, s.Copilot.Status, s.Audit.Status} {
		if st == SlotError {
			return false
		}
	}
	return true
}
