// Package history provides the append-only audit history module.
package history

import (
	"github.com/JamshedLatipov/crm-sub002/internal/history/handler"
	"github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/history/service"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the audit history module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cleanup *service.CleanupJob
}

// NewModule creates a new history module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, cfg config.HistoryConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		cleanup: service.NewCleanupJob(svc, cfg, log),
	}
}

// StartCleanup launches the retention pruning job.
func (m *Module) StartCleanup() {
	m.cleanup.Start()
}

// StopCleanup stops the retention pruning job.
func (m *Module) StopCleanup() {
	m.cleanup.Stop()
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "history"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/history"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
