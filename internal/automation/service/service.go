// Package service provides automation rule management. Rule definitions are
// validated against the closed trigger, field, operator and action
// vocabularies before they reach storage, so the engine only ever loads
// well-formed rules.
package service

import (
	"context"
	"errors"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the rule persistence interface needed by the service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateRuleParams) (domain.Rule, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Rule, error)
	List(ctx context.Context) ([]domain.Rule, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateRuleParams) (domain.Rule, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create validates and stores a new rule.
func (s *Service) Create(ctx context.Context, params repository.CreateRuleParams) (domain.Rule, error) {
	if err := validateDefinition(params.Trigger, params.Conditions, params.Actions, params.Priority); err != nil {
		return domain.Rule{}, err
	}
	rule, err := s.repo.Create(ctx, params)
	if err != nil {
		return domain.Rule{}, err
	}
	s.log.Info("automation rule created", "ruleId", rule.ID, "name", rule.Name, "trigger", string(rule.Trigger))
	return rule, nil
}

// GetByID returns a single rule.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Rule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rule{}, apperr.NotFound("automation rule not found")
	}
	return rule, err
}

// List returns all rules in evaluation order.
func (s *Service) List(ctx context.Context) ([]domain.Rule, error) {
	return s.repo.List(ctx)
}

// Update validates and replaces a rule's definition. Trigger statistics are
// preserved across updates.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params repository.UpdateRuleParams) (domain.Rule, error) {
	if err := validateDefinition(params.Trigger, params.Conditions, params.Actions, params.Priority); err != nil {
		return domain.Rule{}, err
	}
	rule, err := s.repo.Update(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rule{}, apperr.NotFound("automation rule not found")
	}
	return rule, err
}

// SetActive toggles whether the rule participates in dispatch.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Rule, error) {
	rule, err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rule{}, apperr.NotFound("automation rule not found")
	}
	if err == nil {
		s.log.Info("automation rule toggled", "ruleId", rule.ID, "active", active)
	}
	return rule, err
}

// Delete removes a rule permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("automation rule not found")
	}
	return err
}

func validateDefinition(trigger domain.Trigger, conditions []domain.ConditionClause, actions []domain.ActionClause, priority int) error {
	if !domain.IsKnownTrigger(trigger) {
		return apperr.Validation("unknown trigger: " + string(trigger))
	}
	if priority < 0 {
		return apperr.Validation("priority must not be negative")
	}
	if len(actions) == 0 {
		return apperr.Validation("a rule needs at least one action")
	}
	for _, clause := range conditions {
		if err := validateCondition(clause); err != nil {
			return err
		}
	}
	for _, clause := range actions {
		if !domain.IsKnownActionType(clause.Type) {
			return apperr.Validation("unknown action type: " + string(clause.Type))
		}
	}
	return nil
}

func validateCondition(clause domain.ConditionClause) error {
	if !domain.IsKnownConditionField(clause.Field) {
		return apperr.Validation("unknown condition field: " + string(clause.Field))
	}
	if domain.IsUnsupportedConditionField(clause.Field) {
		return apperr.Validation("condition field not supported: " + string(clause.Field))
	}
	if !domain.IsKnownOperator(clause.Operator) {
		return apperr.Validation("unknown condition operator: " + string(clause.Operator))
	}
	if clause.Operator == domain.OpBetween {
		if _, ok := clause.Value.AsNumber(); !ok {
			return apperr.Validation("between requires a numeric lower bound")
		}
		if _, ok := clause.Value2.AsNumber(); !ok {
			return apperr.Validation("between requires a numeric upper bound")
		}
	}
	return nil
}
