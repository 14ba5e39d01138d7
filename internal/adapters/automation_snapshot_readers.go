package adapters

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	dealsvc "github.com/JamshedLatipov/crm-sub002/internal/deals/service"
	leadsvc "github.com/JamshedLatipov/crm-sub002/internal/leads/service"

	"github.com/google/uuid"
)

// DealSnapshotReader loads deal state for rule evaluation.
type DealSnapshotReader struct {
	svc *dealsvc.Service
}

// NewDealSnapshotReader creates the deal snapshot adapter.
func NewDealSnapshotReader(svc *dealsvc.Service) *DealSnapshotReader {
	return &DealSnapshotReader{svc: svc}
}

func (a *DealSnapshotReader) DealSnapshot(ctx context.Context, id uuid.UUID) (engine.Snapshot, error) {
	deal, err := a.svc.GetByID(ctx, id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{
		Kind:        engine.EntityDeal,
		ID:          deal.ID,
		StageID:     deal.StageID,
		Status:      deal.Status,
		Amount:      deal.Amount,
		Probability: deal.Probability,
		CreatedAt:   deal.CreatedAt,
	}, nil
}

// LeadSnapshotReader loads lead state for rule evaluation.
type LeadSnapshotReader struct {
	svc *leadsvc.Service
}

// NewLeadSnapshotReader creates the lead snapshot adapter.
func NewLeadSnapshotReader(svc *leadsvc.Service) *LeadSnapshotReader {
	return &LeadSnapshotReader{svc: svc}
}

func (a *LeadSnapshotReader) LeadSnapshot(ctx context.Context, id uuid.UUID) (engine.Snapshot, error) {
	lead, err := a.svc.GetByID(ctx, id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{
		Kind:      engine.EntityLead,
		ID:        lead.ID,
		Status:    lead.Status,
		Score:     lead.Score,
		Source:    lead.Source,
		Tags:      lead.Tags,
		CreatedAt: lead.CreatedAt,
	}, nil
}

var (
	_ automation.DealReader = (*DealSnapshotReader)(nil)
	_ automation.LeadReader = (*LeadSnapshotReader)(nil)
)
