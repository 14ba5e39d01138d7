// Package leads provides the lead capture and qualification module.
package leads

import (
	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historysvc "github.com/JamshedLatipov/crm-sub002/internal/history/service"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/service"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the leads domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new leads module with all dependencies wired.
// scheduler may be nil when the background job scheduler is not configured.
func NewModule(pool *pgxpool.Pool, history *historysvc.Service, scheduler service.FollowUpScheduler, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	assignments := assignrepo.New(pool)
	svc := service.New(repo, assignments, history, scheduler, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
