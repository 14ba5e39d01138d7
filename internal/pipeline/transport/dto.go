package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"

	"github.com/google/uuid"
)

// CreateStageRequest adds a stage to the pipeline catalog.
type CreateStageRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=100"`
	Kind               string `json:"kind" validate:"required,oneof=normal won lost"`
	DefaultProbability int    `json:"defaultProbability" validate:"min=0,max=100"`
	Position           int    `json:"position" validate:"min=0"`
}

// StageResponse represents a pipeline stage in API responses.
type StageResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Kind               string    `json:"kind"`
	DefaultProbability int       `json:"defaultProbability"`
	Position           int       `json:"position"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// StageListResponse wraps the stage catalog in board order.
type StageListResponse struct {
	Items []StageResponse `json:"items"`
	Total int             `json:"total"`
}

// ToStageResponse maps a repository stage to its API representation.
func ToStageResponse(stage repository.Stage) StageResponse {
	return StageResponse{
		ID:                 stage.ID,
		Name:               stage.Name,
		Kind:               stage.Kind,
		DefaultProbability: stage.DefaultProbability,
		Position:           stage.Position,
		IsActive:           stage.IsActive,
		CreatedAt:          stage.CreatedAt,
		UpdatedAt:          stage.UpdatedAt,
	}
}

// ToStageListResponse maps a slice of repository stages.
func ToStageListResponse(stages []repository.Stage) StageListResponse {
	items := make([]StageResponse, 0, len(stages))
	for _, stage := range stages {
		items = append(items, ToStageResponse(stage))
	}
	return StageListResponse{Items: items, Total: len(items)}
}
