// Package pipeline provides the pipeline stage catalog module.
package pipeline

import (
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/service"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the pipeline stage catalog module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new pipeline module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/pipeline/stages"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
