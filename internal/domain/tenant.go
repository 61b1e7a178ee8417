package domain

import (
	"fmt"
	"time"
)

// Имена фич-флагов тенанта
const (
	FeatureAnalytics = "analytics"
	FeatureCopilot   = "copilot"
	FeatureAudit     = "audit"
	FeatureExport    = "export"
)

// Features - набор флагов, определяющих, какие разделы дашборда доступны тенанту.
type Features struct {
	Analytics bool `json:"analytics" yaml:"analytics"`
	Copilot   bool `json:"copilot" yaml:"copilot"`
	Audit     bool `json:"audit" yaml:"audit"`
	Export    bool `json:"export" yaml:"export"`
}

func (f Features) Enabled(name string) bool {
	switch name {
	case FeatureAnalytics:
		return f.Analytics
	case FeatureCopilot:
		return f.Copilot
	case FeatureAudit:
		return f.Audit
	case FeatureExport:
		return f.Export
	}
	return false
}

// Set переключает флаг по имени. Неизвестное имя - ошибка валидации.
func (f *Features) Set(name string, on bool) error {
	switch name {
	case FeatureAnalytics:
		f.Analytics = on
	case FeatureCopilot:
		f.Copilot = on
	case FeatureAudit:
		f.Audit = on
	case FeatureExport:
		f.Export = on
	default:
		return fmt.Errorf("%w: unknown feature %q", ErrValidation, name)
	}
	return nil
}

type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

type Tenant struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Slug      string    `json:"slug" yaml:"slug"`
	Plan      Plan      `json:"plan" yaml:"plan"`
	Features  Features  `json:"features" yaml:"features"`
	Seats     int       `json:"seats" yaml:"seats"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// CreateTenantForm - данные формы "Create tenant" из сайдбара директории.
type CreateTenantForm struct {
	Name       string   `json:"name" validate:"required,min=2,max=80"`
	Slug       string   `json:"slug" validate:"required,slug"`
	Plan       Plan     `json:"plan" validate:"required,oneof=starter growth enterprise"`
	AdminEmail string   `json:"admin_email" validate:"required,email"`
	Seats      int      `json:"seats" validate:"gte=0,lte=100000"`
	Features   Features `json:"features"`
}

// AccessRequestForm - запрос доступа к существующему тенанту.
type AccessRequestForm struct {
	TenantSlug string `json:"tenant_slug" validate:"required,slug"`
	Email      string `json:"email" validate:"required,email"`
	Reason     string `json:"reason" validate:"max=500"`
}

type AccessRequest struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ActionResult - единый ответ серверных экшенов директории ({ok, redirect?, error?}).
type ActionResult struct {
	OK       bool   `json:"ok"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}
