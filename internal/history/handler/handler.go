// Package handler exposes the audit history read endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/history/service"
	"github.com/JamshedLatipov/crm-sub002/internal/history/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidEntityType = "invalid entity type"
	msgInvalidEntityID   = "invalid entity id"
)

// Handler handles HTTP requests for the audit history.
type Handler struct {
	svc *service.Service
}

// New creates a new history handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the history routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:entityType/:entityId", h.ListByEntity)
	rg.POST("/cleanup", h.Cleanup)
}

// ListByEntity returns the full audit trail for one entity, oldest first.
func (h *Handler) ListByEntity(c *gin.Context) {
	entityType := c.Param("entityType")
	if entityType != repository.EntityTypeDeal && entityType != repository.EntityTypeLead {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidEntityType, nil)
		return
	}

	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidEntityID, nil)
		return
	}

	entries, err := h.svc.ListByEntity(c.Request.Context(), entityType, entityID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToEntryListResponse(entries))
}

// Cleanup deletes entries older than the given number of days. Maintenance
// endpoint; the same pruning also runs on a timer when retention is configured.
func (h *Handler) Cleanup(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days < 1 {
		httpkit.Error(c, http.StatusBadRequest, "days must be a positive integer", nil)
		return
	}

	deleted, err := h.svc.DeleteOlderThan(c.Request.Context(), days)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"deleted": deleted})
}
