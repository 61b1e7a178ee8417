package analytics

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xela07ax/workforce-console/internal/domain"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportHeader - колонки длинного (long-form) CSV: одна строка на одно значение метрики.
var ExportHeader = []string{"section", "date", "dimension", "metric", "value"}

// ContentType для ответа экспорта.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Export собирает снапшот в strict-режиме и пишет его в w.
// Ничего не пишется, пока композиция не завершилась успешно.
func (a *Aggregator) Export(ctx context.Context, req Request, format string, w io.Writer) error {
	if !req.Features.Export {
		return fmt.Errorf("export: %w", domain.ErrFeatureDisabled)
	}
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrValidation, format)
	}

	// Экспорт не должен вытеснять открытый дашборд того же пользователя
	if req.ViewKey == "" {
		req.ViewKey = req.TenantID
	}
	req.ViewKey += ":export"
	req.Strict = true

	snap, err := a.Compose(ctx, req)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return WriteSnapshotCSV(w, snap)
}

// WriteSnapshotCSV пишет готовые слоты снапшота. Кавычки и экранирование - по RFC 4180.
func WriteSnapshotCSV(w io.Writer, snap *domain.AnalyticsSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}

	var rows [][]string
	add := func(section, date, dim, metric, value string) {
		rows = append(rows, []string{section, date, dim, metric, value})
	}

	if snap.Usage.Status == domain.SlotReady {
		for _, p := range snap.Usage.Data {
			add(SourceUsage, p.Date, "", "active_users", itoa(p.ActiveUsers))
			add(SourceUsage, p.Date, "", "sessions", itoa(p.Sessions))
			add(SourceUsage, p.Date, "", "api_calls", itoa(p.APICalls))
		}
	}
	if snap.Seats.Status == domain.SlotReady {
		for _, s := range snap.Seats.Data {
			add(SourceSeats, "", s.Role, "assigned", itoa(s.Assigned))
			add(SourceSeats, "", s.Role, "available", itoa(s.Available))
		}
	}
	if snap.Adoption.Status == domain.SlotReady {
		for _, f := range snap.Adoption.Data {
			add(SourceAdoption, "", f.Feature, "users", itoa(f.Users))
			add(SourceAdoption, "", f.Feature, "adoption_rate", ftoa(f.AdoptionRate))
		}
	}
	if snap.Copilot.Status == domain.SlotReady {
		for _, p := range snap.Copilot.Data {
			add(SourceCopilot, p.Date, "", "prompts", itoa(p.Prompts))
			add(SourceCopilot, p.Date, "", "accepted_suggestions", itoa(p.AcceptedSuggestions))
			add(SourceCopilot, p.Date, "", "acceptance_rate", ftoa(p.AcceptanceRate))
		}
	}
	if snap.Audit.Status == domain.SlotReady {
		for _, p := range snap.Audit.Data {
			add(SourceAudit, p.Date, p.Action, "count", itoa(p.Count))
		}
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write analytics csv: %w", err)
	}
	return nil
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
