// Package handler exposes the notification HTTP endpoints.
package handler

import (
	"strconv"

	"github.com/JamshedLatipov/crm-sub002/internal/notification/service"
	"github.com/JamshedLatipov/crm-sub002/internal/notification/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for notifications.
type Handler struct {
	svc *service.Service
}

// New creates a new notification handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.svc.List(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToNotificationListResponse(notifications))
}
