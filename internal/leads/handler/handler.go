// Package handler exposes the lead HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/JamshedLatipov/crm-sub002/internal/events"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/service"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.ChangeStatus)
	rg.POST("/:id/assign", h.Assign)
	rg.PUT("/:id/score", h.Score)
	rg.POST("/:id/tags", h.AddTags)
	rg.DELETE("/:id/tags", h.RemoveTags)
	rg.POST("/:id/notes", h.AddNote)
	rg.POST("/:id/follow-up", h.ScheduleFollowUp)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
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
	id, ok := leadID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ChangeLeadStatusRequest
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

func (h *Handler) Assign(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actor := actorFromRequest(c)
	result, err := h.svc.AssignLead(c.Request.Context(), id, req.UserID, actor.ID, req.Reason, actor)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Score(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ScoreLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ScoreLead(c.Request.Context(), id, req.Score, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) AddTags(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddTags(c.Request.Context(), id, req.Tags, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) RemoveTags(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.RemoveTags(c.Request.Context(), id, req.Tags, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) AddNote(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.AddNote(c.Request.Context(), id, req.Text, actorFromRequest(c)); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "recorded"})
}

func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ScheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ScheduleFollowUp(c.Request.Context(), id, req.At, req.Message, actorFromRequest(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
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
