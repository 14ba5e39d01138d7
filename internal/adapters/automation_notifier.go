package adapters

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	notificationsvc "github.com/JamshedLatipov/crm-sub002/internal/notification/service"

	"github.com/google/uuid"
)

// AutomationNotifier adapts the notification service to the automation
// engine's notifier port.
type AutomationNotifier struct {
	svc *notificationsvc.Service
}

// NewAutomationNotifier creates the notifier adapter.
func NewAutomationNotifier(svc *notificationsvc.Service) *AutomationNotifier {
	return &AutomationNotifier{svc: svc}
}

func (a *AutomationNotifier) Send(ctx context.Context, n engine.Notification) error {
	var entityID *uuid.UUID
	if n.EntityID != uuid.Nil {
		id := n.EntityID
		entityID = &id
	}
	return a.svc.Send(ctx, notificationsvc.SendParams{
		Channel:    n.Channel,
		Recipient:  n.Recipient,
		Subject:    n.Subject,
		Body:       n.Body,
		EntityType: string(n.EntityKind),
		EntityID:   entityID,
	})
}

var _ engine.Notifier = (*AutomationNotifier)(nil)
