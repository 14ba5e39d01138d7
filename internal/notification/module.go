// Package notification provides the notification domain module: storage,
// email outbox flushing and the HTTP listing endpoint. It also turns due
// follow-up reminders into in-app notifications.
package notification

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/events"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/internal/notification/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/notification/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/notification/service"
	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the notification domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	flusher *service.Flusher
	log     *logger.Logger
}

// NewModule creates a notification module. email may be nil; the outbox then
// accumulates pending email rows until an SMTP sender is configured.
func NewModule(pool *pgxpool.Pool, email service.EmailSender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, email, log)
	flusher := service.NewFlusher(svc, cfg.GetNotificationFlushInterval(), log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
		flusher: flusher,
		log:     log,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "notifications"
}

// Service returns the notification service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/notifications"))
}

// SubscribeEvents stores an in-app notification for every due follow-up.
func (m *Module) SubscribeEvents(bus events.Bus) {
	bus.Subscribe(events.FollowUpDue{}.EventName(), events.HandlerFunc(m.onFollowUpDue))
}

// StartFlusher launches the periodic email outbox drain.
func (m *Module) StartFlusher() {
	m.flusher.Start()
}

// StopFlusher stops the outbox drain.
func (m *Module) StopFlusher() {
	m.flusher.Stop()
}

func (m *Module) onFollowUpDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpDue)
	if !ok {
		return nil
	}

	entityID := e.EntityID
	err := m.service.Send(ctx, service.SendParams{
		Channel:    repository.ChannelInApp,
		Subject:    "Follow-up due",
		Body:       e.Message,
		EntityType: e.EntityType,
		EntityID:   &entityID,
	})
	if err != nil {
		m.log.Error("failed to store follow-up notification", "entityId", e.EntityID, "error", err)
	}
	return nil
}

var _ apphttp.Module = (*Module)(nil)
