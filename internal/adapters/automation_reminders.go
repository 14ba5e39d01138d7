package adapters

import (
	"context"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	"github.com/JamshedLatipov/crm-sub002/internal/scheduler"

	"github.com/google/uuid"
)

// AutomationReminders adapts the asynq scheduler client to the automation
// engine's reminder port. A nil client is tolerated; scheduling then
// silently succeeds without enqueueing, matching the client's own no-op
// behavior.
type AutomationReminders struct {
	client *scheduler.Client
}

// NewAutomationReminders creates the reminder adapter.
func NewAutomationReminders(client *scheduler.Client) *AutomationReminders {
	return &AutomationReminders{client: client}
}

func (a *AutomationReminders) Schedule(ctx context.Context, kind engine.EntityKind, entityID uuid.UUID, message string, at time.Time) error {
	return a.client.ScheduleFollowUp(ctx, string(kind), entityID, message, at)
}

var _ engine.ReminderScheduler = (*AutomationReminders)(nil)
