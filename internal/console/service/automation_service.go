package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

var RuleFilters = []string{"status", "trigger"}

type RuleRepository interface {
	ListRules(ctx context.Context, tenantID string) ([]domain.AutomationRule, error)
	GetRule(ctx context.Context, tenantID, id string) (*domain.AutomationRule, error)
	UpdateRuleStatus(ctx context.Context, tenantID, id string, from, to domain.Status) error
}

type AutomationService struct {
	repo   RuleRepository
	rdb    *redis.Client
	audit  audit.Auditor
	logger *zap.Logger
}

// NewAutomationService. rdb может быть nil - тогда исполнители правил узнают о смене статуса при следующем чтении.
func NewAutomationService(repo RuleRepository, rdb *redis.Client, auditor audit.Auditor, logger *zap.Logger) *AutomationService {
	return &AutomationService{
		repo:   repo,
		rdb:    rdb,
		audit:  auditor,
		logger: logger.Named("automation-service"),
	}
}

func (s *AutomationService) Rules(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.AutomationRule], error) {
	rules, err := s.repo.ListRules(ctx, tenantID)
	if err != nil {
		return filter.Page[domain.AutomationRule]{}, fmt.Errorf("automation_service: list: %w", err)
	}
	return filter.New[domain.AutomationRule](p).
		SearchIn(
			func(r domain.AutomationRule) string { return r.Name },
			func(r domain.AutomationRule) string { return r.Description },
		).
		Field("status", func(r domain.AutomationRule) string { return string(r.Status) }).
		Field("trigger", func(r domain.AutomationRule) string { return r.Trigger }).
		Field("name", func(r domain.AutomationRule) string { return r.Name }).
		Apply(rules)
}

// Toggle переключает правило active <-> paused. Остальные правила не затрагиваются.
func (s *AutomationService) Toggle(ctx context.Context, tenantID, id string) (rule *domain.AutomationRule, err error) {
	defer func() {
		details := map[string]any{}
		if rule != nil {
			details["status"] = string(rule.Status)
		}
		record(ctx, s.audit, audit.Event{
			TenantID:   tenantID,
			Action:     audit.ActionRuleToggle,
			TargetType: domain.KindAutomationRule,
			TargetID:   id,
			Details:    details,
		}, err)
	}()

	current, err := s.repo.GetRule(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Toggled()
	if err != nil {
		return nil, fmt.Errorf("rule %s is %s: %w", id, current.Status, err)
	}

	// 1. Persistence Layer
	if err := s.repo.UpdateRuleStatus(ctx, tenantID, id, current.Status, next); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to update rule status in DB",
			zap.String("rule_id", id),
			zap.String("status", string(next)),
			zap.Error(err))
		return nil, fmt.Errorf("automation_service: toggle: %w", err)
	}
	current.Status = next

	// 2. Real-time Signaling
	if s.rdb != nil {
		payload := fmt.Sprintf("%s:%s=%s", tenantID, id, next)
		if err := s.rdb.Publish(ctx, infra.RedisChanAutomationRule, payload).Err(); err != nil {
			s.logger.Warn("rule signal delivery failed",
				zap.String("channel", infra.RedisChanAutomationRule),
				zap.Error(err))
		}
	}

	s.logger.Info("automation rule toggled",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", id),
		zap.String("new_status", string(next)))
	return current, nil
}
