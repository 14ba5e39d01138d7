// Package handler exposes the pipeline stage catalog endpoints.
package handler

import (
	"net/http"

	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/service"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/httpkit"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidStageID   = "invalid stage id"
)

// Handler handles HTTP requests for pipeline stages.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pipeline handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the stage routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Create(c.Request.Context(), repository.CreateStageParams{
		Name:               req.Name,
		Kind:               req.Kind,
		DefaultProbability: req.DefaultProbability,
		Position:           req.Position,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToStageResponse(stage))
}

func (h *Handler) List(c *gin.Context) {
	stages, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStageListResponse(stages))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStageID, nil)
		return
	}

	stage, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStageResponse(stage))
}
