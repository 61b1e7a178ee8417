package audit

import "time"

// Действия администраторов, которые попадают в журнал
const (
	ActionTenantCreate    = "tenant.create"
	ActionAccessRequest   = "tenant.access_request"
	ActionFeatureToggle   = "tenant.feature_toggle"
	ActionRoleDelete      = "role.delete"
	ActionRuleToggle      = "automation.rule_toggle"
	ActionEmployeesExport = "employees.export"
	ActionAnalyticsExport = "analytics.export"
	ActionSessionEnroll   = "training.session_enroll"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	ID         string         `json:"id"`          // UUID события
	TenantID   string         `json:"tenant_id"`   // В каком тенанте
	ActorID    string         `json:"actor_id"`    // Кто делал
	Action     string         `json:"action"`      // Что сделал
	TargetType string         `json:"target_type"` // role, tenant, automation_rule...
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
