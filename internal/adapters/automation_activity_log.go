package adapters

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	historyrepo "github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	historysvc "github.com/JamshedLatipov/crm-sub002/internal/history/service"

	"github.com/google/uuid"
)

// AutomationActivityLog writes automation log-activity entries to the entity
// audit history.
type AutomationActivityLog struct {
	svc *historysvc.Service
}

// NewAutomationActivityLog creates the activity log adapter.
func NewAutomationActivityLog(svc *historysvc.Service) *AutomationActivityLog {
	return &AutomationActivityLog{svc: svc}
}

func (a *AutomationActivityLog) Record(ctx context.Context, kind engine.EntityKind, entityID uuid.UUID, message string) error {
	actorName := historyrepo.ActorNameAutomation
	_, err := a.svc.Record(ctx, historyrepo.AppendEntryParams{
		EntityType:  string(kind),
		EntityID:    entityID,
		ChangeType:  historyrepo.ChangeTypeActivity,
		ActorName:   &actorName,
		Description: message,
	})
	return err
}

var _ engine.ActivityLog = (*AutomationActivityLog)(nil)
