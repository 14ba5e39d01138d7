package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/repository"

	"github.com/google/uuid"
)

// CreateRuleRequest contains data for creating an automation rule. Condition
// and action clauses are passed through in their wire form; the service layer
// validates them against the known vocabularies.
type CreateRuleRequest struct {
	Name        string                   `json:"name" validate:"required,min=1,max=200"`
	Description string                   `json:"description,omitempty" validate:"max=1000"`
	Trigger     string                   `json:"trigger" validate:"required"`
	Conditions  []domain.ConditionClause `json:"conditions,omitempty"`
	Actions     []domain.ActionClause    `json:"actions" validate:"required,min=1"`
	IsActive    *bool                    `json:"isActive,omitempty"`
	Priority    int                      `json:"priority" validate:"min=0"`
}

// UpdateRuleRequest replaces a rule's full definition.
type UpdateRuleRequest struct {
	Name        string                   `json:"name" validate:"required,min=1,max=200"`
	Description string                   `json:"description,omitempty" validate:"max=1000"`
	Trigger     string                   `json:"trigger" validate:"required"`
	Conditions  []domain.ConditionClause `json:"conditions,omitempty"`
	Actions     []domain.ActionClause    `json:"actions" validate:"required,min=1"`
	Priority    int                      `json:"priority" validate:"min=0"`
}

// ToggleRuleRequest activates or deactivates a rule.
type ToggleRuleRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// RuleResponse represents an automation rule in API responses.
type RuleResponse struct {
	ID              uuid.UUID                `json:"id"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description,omitempty"`
	Trigger         string                   `json:"trigger"`
	Conditions      []domain.ConditionClause `json:"conditions"`
	Actions         []domain.ActionClause    `json:"actions"`
	IsActive        bool                     `json:"isActive"`
	Priority        int                      `json:"priority"`
	TriggerCount    int64                    `json:"triggerCount"`
	LastTriggeredAt *time.Time               `json:"lastTriggeredAt,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// RuleListResponse wraps a list of rules.
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
	Total int            `json:"total"`
}

// ToCreateParams converts the request to repository parameters. New rules
// default to active unless the request says otherwise.
func (r CreateRuleRequest) ToCreateParams() repository.CreateRuleParams {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return repository.CreateRuleParams{
		Name:        r.Name,
		Description: r.Description,
		Trigger:     domain.Trigger(r.Trigger),
		Conditions:  r.Conditions,
		Actions:     r.Actions,
		IsActive:    active,
		Priority:    r.Priority,
	}
}

// ToUpdateParams converts the request to repository parameters.
func (r UpdateRuleRequest) ToUpdateParams() repository.UpdateRuleParams {
	return repository.UpdateRuleParams{
		Name:        r.Name,
		Description: r.Description,
		Trigger:     domain.Trigger(r.Trigger),
		Conditions:  r.Conditions,
		Actions:     r.Actions,
		Priority:    r.Priority,
	}
}

// ToRuleResponse converts a domain rule to its API representation.
func ToRuleResponse(rule domain.Rule) RuleResponse {
	conditions := rule.Conditions
	if conditions == nil {
		conditions = []domain.ConditionClause{}
	}
	actions := rule.Actions
	if actions == nil {
		actions = []domain.ActionClause{}
	}
	return RuleResponse{
		ID:              rule.ID,
		Name:            rule.Name,
		Description:     rule.Description,
		Trigger:         string(rule.Trigger),
		Conditions:      conditions,
		Actions:         actions,
		IsActive:        rule.IsActive,
		Priority:        rule.Priority,
		TriggerCount:    rule.TriggerCount,
		LastTriggeredAt: rule.LastTriggeredAt,
		CreatedAt:       rule.CreatedAt,
		UpdatedAt:       rule.UpdatedAt,
	}
}

// ToRuleListResponse converts a slice of rules.
func ToRuleListResponse(rules []domain.Rule) RuleListResponse {
	items := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ToRuleResponse(rule))
	}
	return RuleListResponse{Rules: items, Total: len(items)}
}
