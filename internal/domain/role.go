package domain

import "time"

type RoleScope string

const (
	ScopeGlobal     RoleScope = "global"
	ScopeTenant     RoleScope = "tenant"
	ScopeDepartment RoleScope = "department"
)

// FieldAccess - уровень доступа к отдельному полю сущности.
type FieldAccess string

const (
	AccessNone  FieldAccess = "none"
	AccessRead  FieldAccess = "read"
	AccessWrite FieldAccess = "write"
)

// AIInsight - оценка риска роли. Либо пришла из внешнего сервиса, либо посчитана анализатором.
type AIInsight struct {
	RiskScore  int      `json:"risk_score" yaml:"risk_score"` // 0..100
	Confidence float64  `json:"confidence" yaml:"confidence"` // 0..1
	Summary    string   `json:"summary" yaml:"summary"`
	Findings   []string `json:"findings,omitempty" yaml:"findings"`
}

type Role struct {
	ID          string    `json:"id" yaml:"id"`
	TenantID    string    `json:"tenant_id" yaml:"tenant_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Scope       RoleScope `json:"scope" yaml:"scope"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	IsBuiltIn   bool      `json:"is_built_in" yaml:"is_built_in"`

	// module -> actions, e.g. "payroll": ["read", "approve"]
	Permissions map[string][]string `json:"permissions" yaml:"permissions"`
	// entity -> field -> access, e.g. "employee": {"salary": "read"}
	FieldPermissions map[string]map[string]FieldAccess `json:"field_permissions" yaml:"field_permissions"`

	UserCount int        `json:"user_count" yaml:"user_count"`
	AIInsight *AIInsight `json:"ai_insight,omitempty" yaml:"ai_insight"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

type RoleStats struct {
	TotalRoles    int        `json:"total_roles"`
	ActiveRoles   int        `json:"active_roles"`
	CustomRoles   int        `json:"custom_roles"`
	AssignedUsers int        `json:"assigned_users"`
	HighRiskRoles int        `json:"high_risk_roles"`
	AIInsight     *AIInsight `json:"ai_insight,omitempty"`
}

// RoleFilter - параметры выборки GET /api/admin/roles.
type RoleFilter struct {
	Search   string
	Scope    string
	IsActive *bool
	Page     int
	Limit    int
}
