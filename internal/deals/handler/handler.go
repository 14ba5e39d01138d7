// Package handler exposes the deal HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/JamshedLatipov/crm-sub002/internal/deals/service"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/transport"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDealID    = "invalid deal id"
)

// Handler handles HTTP requests for deals.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new deals handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the deal routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/move-stage", h.MoveStage)
	rg.PATCH("/:id/status", h.ChangeStatus)
	rg.POST("/:id/win", h.Win)
	rg.POST("/:id/lose", h.Lose)
	rg.POST("/:id/assign", h.Assign)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) MoveStage(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.MoveToStage(c.Request.Context(), id, req.StageID, req.Force, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Win(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.WinDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Win(c.Request.Context(), id, req.ActualAmount, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Lose(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.LoseDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Lose(c.Request.Context(), id, req.Reason, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.AssignDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actor := actorFromRequest(c)
	result, err := h.svc.Assign(c.Request.Context(), id, req.UserID, actor.ID, req.Reason, actor)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func dealID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDealID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// actorFromRequest builds the acting identity from the optional actor
// headers. Mutations without them are attributed to an anonymous API caller.
func actorFromRequest(c *gin.Context) events.Actor {
	actor := events.Actor{Name: c.GetHeader("X-Actor-Name")}
	if raw := c.GetHeader("X-Actor-Id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actor.ID = &id
		}
	}
	return actor
}
