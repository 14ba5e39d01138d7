// Package deals provides the deal pipeline domain module.
package deals

import (
	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/service"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historysvc "github.com/JamshedLatipov/crm-sub002/internal/history/service"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	pipelinesvc "github.com/JamshedLatipov/crm-sub002/internal/pipeline/service"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the deals domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new deals module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, stages *pipelinesvc.Service, history *historysvc.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	assignments := assignrepo.New(pool)
	svc := service.New(repo, stages, assignments, history, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "deals"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/deals"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
