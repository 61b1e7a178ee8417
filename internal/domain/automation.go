package domain

import "time"

// AutomationRule - правило автоматизации HR-процессов (онбординг, напоминания и т.д.).
type AutomationRule struct {
	ID          string    `json:"id" yaml:"id"`
	TenantID    string    `json:"tenant_id" yaml:"tenant_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Trigger     string    `json:"trigger" yaml:"trigger"` // e.g. "employee.hired"
	Action      string    `json:"action" yaml:"action"`   // e.g. "send_welcome_pack"
	Status      Status    `json:"status" yaml:"status"`
	RunsCount   int64     `json:"runs_count" yaml:"runs_count"`
	LastRunAt   time.Time `json:"last_run_at" yaml:"last_run_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Toggled возвращает следующий статус переключателя: active <-> paused.
// Черновик переключать нельзя, его сначала надо опубликовать.
func (r *AutomationRule) Toggled() (Status, error) {
	switch r.Status {
	case StatusActive:
		return StatusPaused, nil
	case StatusPaused:
		return StatusActive, nil
	}
	return "", ErrInvalidTransition
}
