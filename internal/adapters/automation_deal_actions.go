// Package adapters bridges module boundaries: each adapter implements a
// consumer-declared port on top of another module's service.
package adapters

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	dealsvc "github.com/JamshedLatipov/crm-sub002/internal/deals/service"
	dealtransport "github.com/JamshedLatipov/crm-sub002/internal/deals/transport"
	"github.com/JamshedLatipov/crm-sub002/internal/events"

	"github.com/google/uuid"
)

// AutomationDealActions adapts the deals service to the automation engine's
// deal capability port.
type AutomationDealActions struct {
	svc *dealsvc.Service
}

// NewAutomationDealActions creates the deal actions adapter.
func NewAutomationDealActions(svc *dealsvc.Service) *AutomationDealActions {
	return &AutomationDealActions{svc: svc}
}

func (a *AutomationDealActions) MoveToStage(ctx context.Context, dealID, stageID uuid.UUID, actor events.Actor) error {
	_, err := a.svc.MoveToStage(ctx, dealID, stageID, false, actor)
	return err
}

func (a *AutomationDealActions) ChangeStatus(ctx context.Context, dealID uuid.UUID, status string, actor events.Actor) error {
	_, err := a.svc.ChangeStatus(ctx, dealID, status, actor)
	return err
}

func (a *AutomationDealActions) UpdateAmount(ctx context.Context, dealID uuid.UUID, amount float64, actor events.Actor) error {
	_, err := a.svc.Update(ctx, dealID, dealtransport.UpdateDealRequest{Amount: &amount}, actor)
	return err
}

func (a *AutomationDealActions) UpdateProbability(ctx context.Context, dealID uuid.UUID, probability int, actor events.Actor) error {
	_, err := a.svc.Update(ctx, dealID, dealtransport.UpdateDealRequest{Probability: &probability}, actor)
	return err
}

func (a *AutomationDealActions) Assign(ctx context.Context, dealID, userID uuid.UUID, reason string, actor events.Actor) error {
	_, err := a.svc.Assign(ctx, dealID, userID, nil, reason, actor)
	return err
}

var _ engine.DealActions = (*AutomationDealActions)(nil)
