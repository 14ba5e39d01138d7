// Package handler exposes the automation rule HTTP endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/service"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidRuleID    = "invalid rule id"
)

// TickRunner triggers one time-based dispatch pass on demand.
type TickRunner interface {
	Tick(ctx context.Context)
}

// Handler handles HTTP requests for automation rules.
type Handler struct {
	svc    *service.Service
	ticker TickRunner
	val    *validator.Validator
}

// New creates a new automation handler. ticker may be nil when the periodic
// scheduler is disabled; the manual tick endpoint then returns 503.
func New(svc *service.Service, ticker TickRunner, val *validator.Validator) *Handler {
	return &Handler{svc: svc, ticker: ticker, val: val}
}

// RegisterRoutes registers the automation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rules", h.List)
	rg.POST("/rules", h.Create)
	rg.GET("/rules/:id", h.GetByID)
	rg.PUT("/rules/:id", h.Update)
	rg.DELETE("/rules/:id", h.Delete)
	rg.PATCH("/rules/:id/toggle", h.Toggle)
	rg.POST("/tick", h.Tick)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.Create(c.Request.Context(), req.ToCreateParams())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToRuleResponse(rule))
}

func (h *Handler) List(c *gin.Context) {
	rules, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleListResponse(rules))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}

	rule, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleResponse(rule))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}

	var req transport.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.Update(c.Request.Context(), id, req.ToUpdateParams())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleResponse(rule))
}

func (h *Handler) Toggle(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}

	var req transport.ToggleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.SetActive(c.Request.Context(), id, *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleResponse(rule))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

// Tick runs the time-based rules immediately instead of waiting for the next
// scheduler interval.
func (h *Handler) Tick(c *gin.Context) {
	if h.ticker == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "time-based scheduler is disabled", nil)
		return
	}

	h.ticker.Tick(c.Request.Context())
	httpkit.OK(c, gin.H{"status": "completed"})
}

func ruleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return uuid.Nil, false
	}
	return id, true
}
