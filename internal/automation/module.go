// Package automation provides the rule engine module: rule management over
// HTTP, event-driven trigger dispatch and the periodic time-based scheduler.
package automation

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/engine"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/service"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DealReader loads the evaluation snapshot for a deal.
type DealReader interface {
	DealSnapshot(ctx context.Context, id uuid.UUID) (engine.Snapshot, error)
}

// LeadReader loads the evaluation snapshot for a lead.
type LeadReader interface {
	LeadSnapshot(ctx context.Context, id uuid.UUID) (engine.Snapshot, error)
}

// Deps carries everything the automation module needs from the rest of the
// system. Notifier, Reminders and Activity may be nil; the matching actions
// become warn-level no-ops.
type Deps struct {
	Pool       *pgxpool.Pool
	Deals      engine.DealActions
	Leads      engine.LeadActions
	DealReader DealReader
	LeadReader LeadReader
	Notifier   engine.Notifier
	Reminders  engine.ReminderScheduler
	Activity   engine.ActivityLog
	Config     config.AutomationConfig
	Validator  *validator.Validator
	Logger     *logger.Logger
}

// Module represents the automation domain module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	dispatcher *engine.Dispatcher
	scheduler  *engine.PeriodicScheduler
	dealReader DealReader
	leadReader LeadReader
	log        *logger.Logger
}

// NewModule creates an automation module with all dependencies wired.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	svc := service.New(repo, deps.Logger)

	evaluator := engine.NewEvaluator(deps.Logger)
	executor := engine.NewExecutor(deps.Deals, deps.Leads, deps.Notifier, deps.Reminders, deps.Activity, deps.Logger)
	dispatcher := engine.NewDispatcher(repo, evaluator, executor, deps.Logger)
	scheduler := engine.NewPeriodicScheduler(dispatcher, deps.Config.GetAutomationTickInterval(), deps.Logger)

	return &Module{
		handler:    handler.New(svc, scheduler, deps.Validator),
		service:    svc,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		dealReader: deps.DealReader,
		leadReader: deps.LeadReader,
		log:        deps.Logger,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "automation"
}

// Service returns the rule management service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/automation"))
}

// SubscribeEvents attaches the trigger dispatch handlers to the event bus.
// Handlers always return nil: an automation failure must never fail the
// mutation that raised the event.
func (m *Module) SubscribeEvents(bus events.Bus) {
	bus.Subscribe(events.DealCreated{}.EventName(), events.HandlerFunc(m.onDealCreated))
	bus.Subscribe(events.DealUpdated{}.EventName(), events.HandlerFunc(m.onDealUpdated))
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(m.onLeadCreated))
	bus.Subscribe(events.LeadUpdated{}.EventName(), events.HandlerFunc(m.onLeadUpdated))
}

// StartScheduler launches the periodic time-based rule runner.
func (m *Module) StartScheduler() {
	m.scheduler.Start()
}

// StopScheduler stops the periodic runner and waits for an in-flight pass.
func (m *Module) StopScheduler() {
	m.scheduler.Stop()
}

func (m *Module) onDealCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealCreated)
	if !ok || isAutomationActor(e.Actor) {
		return nil
	}
	snap, ok := m.loadDeal(ctx, e.DealID)
	if ok {
		m.dispatcher.OnEntityCreated(ctx, snap)
	}
	return nil
}

func (m *Module) onDealUpdated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealUpdated)
	if !ok || isAutomationActor(e.Actor) {
		return nil
	}
	snap, ok := m.loadDeal(ctx, e.DealID)
	if ok {
		m.dispatcher.OnEntityUpdated(ctx, snap, e.Changes)
	}
	return nil
}

func (m *Module) onLeadCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok || isAutomationActor(e.Actor) {
		return nil
	}
	snap, ok := m.loadLead(ctx, e.LeadID)
	if ok {
		m.dispatcher.OnEntityCreated(ctx, snap)
	}
	return nil
}

func (m *Module) onLeadUpdated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadUpdated)
	if !ok || isAutomationActor(e.Actor) {
		return nil
	}
	snap, ok := m.loadLead(ctx, e.LeadID)
	if ok {
		m.dispatcher.OnEntityUpdated(ctx, snap, e.Changes)
	}
	return nil
}

func (m *Module) loadDeal(ctx context.Context, id uuid.UUID) (engine.Snapshot, bool) {
	snap, err := m.dealReader.DealSnapshot(ctx, id)
	if err != nil {
		m.log.Error("failed to load deal for automation", "dealId", id, "error", err)
		return engine.Snapshot{}, false
	}
	return snap, true
}

func (m *Module) loadLead(ctx context.Context, id uuid.UUID) (engine.Snapshot, bool) {
	snap, err := m.leadReader.LeadSnapshot(ctx, id)
	if err != nil {
		m.log.Error("failed to load lead for automation", "leadId", id, "error", err)
		return engine.Snapshot{}, false
	}
	return snap, true
}

// isAutomationActor guards against dispatch loops: mutations the engine made
// itself must not re-enter the engine.
func isAutomationActor(actor events.Actor) bool {
	return actor.Name == engine.AutomationActor.Name
}

var _ apphttp.Module = (*Module)(nil)
