package adapters

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	leadsvc "github.com/JamshedLatipov/crm-sub002/internal/leads/service"

	"github.com/google/uuid"
)

// AutomationLeadActions adapts the leads service to the automation engine's
// lead capability port.
type AutomationLeadActions struct {
	svc *leadsvc.Service
}

// NewAutomationLeadActions creates the lead actions adapter.
func NewAutomationLeadActions(svc *leadsvc.Service) *AutomationLeadActions {
	return &AutomationLeadActions{svc: svc}
}

func (a *AutomationLeadActions) ChangeStatus(ctx context.Context, leadID uuid.UUID, status string, actor events.Actor) error {
	_, err := a.svc.ChangeStatus(ctx, leadID, status, actor)
	return err
}

func (a *AutomationLeadActions) AdjustScore(ctx context.Context, leadID uuid.UUID, delta int, actor events.Actor) error {
	_, err := a.svc.AdjustScore(ctx, leadID, delta, actor)
	return err
}

func (a *AutomationLeadActions) AddTags(ctx context.Context, leadID uuid.UUID, tags []string, actor events.Actor) error {
	_, err := a.svc.AddTags(ctx, leadID, tags, actor)
	return err
}

func (a *AutomationLeadActions) RemoveTags(ctx context.Context, leadID uuid.UUID, tags []string, actor events.Actor) error {
	_, err := a.svc.RemoveTags(ctx, leadID, tags, actor)
	return err
}

func (a *AutomationLeadActions) Assign(ctx context.Context, leadID, userID uuid.UUID, reason string, actor events.Actor) error {
	_, err := a.svc.AssignLead(ctx, leadID, userID, nil, reason, actor)
	return err
}

var _ engine.LeadActions = (*AutomationLeadActions)(nil)
