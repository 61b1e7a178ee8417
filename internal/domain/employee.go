package domain

import "time"

type Employee struct {
	ID         string    `json:"id" yaml:"id"`
	TenantID   string    `json:"tenant_id" yaml:"tenant_id"`
	FirstName  string    `json:"first_name" yaml:"first_name"`
	LastName   string    `json:"last_name" yaml:"last_name"`
	Email      string    `json:"email" yaml:"email"`
	Department string    `json:"department" yaml:"department"`
	Position   string    `json:"position" yaml:"position"`
	Status     Status    `json:"status" yaml:"status"`
	Location   string    `json:"location" yaml:"location"`
	StartDate  time.Time `json:"start_date" yaml:"start_date"`
}

func (e Employee) FullName() string { return e.FirstName + " " + e.LastName }
