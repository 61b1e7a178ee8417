package domain

import "errors"

// Базовые ошибки доменного слоя. Хендлеры маппят их в HTTP-статусы.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrFeatureDisabled   = errors.New("feature disabled for tenant")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSessionFull       = errors.New("training session is full")
)
