package domain

import "time"

// UtilizationData - загрузка сотрудника на проектах (staffing).
type UtilizationData struct {
	ID            string  `json:"id" yaml:"id"`
	TenantID      string  `json:"tenant_id" yaml:"tenant_id"`
	EmployeeName  string  `json:"employee_name" yaml:"employee_name"`
	Role          string  `json:"role" yaml:"role"`
	Department    string  `json:"department" yaml:"department"`
	Project       string  `json:"project" yaml:"project"`
	BillableHours float64 `json:"billable_hours" yaml:"billable_hours"`
	TotalHours    float64 `json:"total_hours" yaml:"total_hours"`
	Utilization   float64 `json:"utilization" yaml:"utilization"` // 0..1
	Status        Status  `json:"status" yaml:"status"`
}

type Candidate struct {
	ID         string    `json:"id" yaml:"id"`
	TenantID   string    `json:"tenant_id" yaml:"tenant_id"`
	Name       string    `json:"name" yaml:"name"`
	Email      string    `json:"email" yaml:"email"`
	Position   string    `json:"position" yaml:"position"`
	Source     string    `json:"source" yaml:"source"` // linkedin, referral, job_board
	Skills     []string  `json:"skills" yaml:"skills"`
	MatchScore int       `json:"match_score" yaml:"match_score"`
	Status     Status    `json:"status" yaml:"status"`
	AppliedAt  time.Time `json:"applied_at" yaml:"applied_at"`
}

type TrainingCourse struct {
	ID            string  `json:"id" yaml:"id"`
	TenantID      string  `json:"tenant_id" yaml:"tenant_id"`
	Title         string  `json:"title" yaml:"title"`
	Category      string  `json:"category" yaml:"category"`
	DurationHours float64 `json:"duration_hours" yaml:"duration_hours"`
	Mandatory     bool    `json:"mandatory" yaml:"mandatory"`
	Enrolled      int     `json:"enrolled" yaml:"enrolled"`
	Completed     int     `json:"completed" yaml:"completed"`
}

type EmployeeTraining struct {
	TenantID     string    `json:"tenant_id" yaml:"tenant_id"`
	EmployeeID   string    `json:"employee_id" yaml:"employee_id"`
	EmployeeName string    `json:"employee_name" yaml:"employee_name"`
	CourseID     string    `json:"course_id" yaml:"course_id"`
	Progress     int       `json:"progress" yaml:"progress"` // 0..100
	Status       Status    `json:"status" yaml:"status"`
	DueDate      time.Time `json:"due_date" yaml:"due_date"`
}

// TrainingSession - очная/онлайн сессия с ограничением по участникам.
type TrainingSession struct {
	ID                  string    `json:"id" yaml:"id"`
	TenantID            string    `json:"tenant_id" yaml:"tenant_id"`
	Title               string    `json:"title" yaml:"title"`
	Instructor          string    `json:"instructor" yaml:"instructor"`
	Type                string    `json:"type" yaml:"type"` // workshop, webinar, classroom
	StartsAt            time.Time `json:"starts_at" yaml:"starts_at"`
	CurrentParticipants int       `json:"current_participants" yaml:"current_participants"`
	MaxParticipants     int       `json:"max_participants" yaml:"max_participants"`
	Status              Status    `json:"status" yaml:"status"`
}

// Full - места закончились. Инвариант: current <= max.
func (s TrainingSession) Full() bool { return s.CurrentParticipants >= s.MaxParticipants }

type PayrollRun struct {
	ID            string        `json:"id" yaml:"id"`
	TenantID      string        `json:"tenant_id" yaml:"tenant_id"`
	Period        string        `json:"period" yaml:"period"` // "2026-09"
	PayDate       time.Time     `json:"pay_date" yaml:"pay_date"`
	EmployeeCount int           `json:"employee_count" yaml:"employee_count"`
	GrossTotal    float64       `json:"gross_total" yaml:"gross_total"`
	NetTotal      float64       `json:"net_total" yaml:"net_total"`
	Currency      string        `json:"currency" yaml:"currency"`
	Status        Status        `json:"status" yaml:"status"`
	EmployeeLines []EmployeePay `json:"employee_lines,omitempty" yaml:"employee_lines"`
}

type EmployeePay struct {
	EmployeeID   string  `json:"employee_id" yaml:"employee_id"`
	EmployeeName string  `json:"employee_name" yaml:"employee_name"`
	Gross        float64 `json:"gross" yaml:"gross"`
	Deductions   float64 `json:"deductions" yaml:"deductions"`
	Net          float64 `json:"net" yaml:"net"`
}

// --- Прогнозы (приходят от внешнего forecasting-сервиса, здесь только хранятся) ---

type ForecastData struct {
	Period     string  `json:"period" yaml:"period"`
	Headcount  int     `json:"headcount" yaml:"headcount"`
	Attrition  float64 `json:"attrition" yaml:"attrition"`
	HiringNeed int     `json:"hiring_need" yaml:"hiring_need"`
	Budget     float64 `json:"budget" yaml:"budget"`
}

type SkillDemandForecast struct {
	Skill         string  `json:"skill" yaml:"skill"`
	CurrentSupply int     `json:"current_supply" yaml:"current_supply"`
	ProjectedNeed int     `json:"projected_need" yaml:"projected_need"`
	Gap           int     `json:"gap" yaml:"gap"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
}

type ResourceForecast struct {
	Department  string  `json:"department" yaml:"department"`
	Period      string  `json:"period" yaml:"period"`
	Capacity    float64 `json:"capacity" yaml:"capacity"`
	Demand      float64 `json:"demand" yaml:"demand"`
	Utilization float64 `json:"utilization" yaml:"utilization"`
}

type Forecasts struct {
	Workforce   []ForecastData        `json:"workforce" yaml:"workforce"`
	SkillDemand []SkillDemandForecast `json:"skill_demand" yaml:"skill_demand"`
	Resources   []ResourceForecast    `json:"resources" yaml:"resources"`
}
