package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/deals/repository"

	"github.com/google/uuid"
)

// CreateDealRequest contains data for creating a new deal.
type CreateDealRequest struct {
	Title             string     `json:"title" validate:"required,min=1,max=200"`
	StageID           uuid.UUID  `json:"stageId" validate:"required"`
	Amount            float64    `json:"amount" validate:"min=0"`
	Probability       *int       `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Notes             string     `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateDealRequest contains data for a partial deal update. Stage and status
// changes go through their dedicated lifecycle endpoints, not this one.
type UpdateDealRequest struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Amount            *float64   `json:"amount,omitempty" validate:"omitempty,min=0"`
	Probability       *int       `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// MoveStageRequest moves a deal to another pipeline stage.
type MoveStageRequest struct {
	StageID uuid.UUID `json:"stageId" validate:"required"`
	// Force re-applies the stage's default probability even when the deal
	// already has one set.
	Force bool `json:"force,omitempty"`
}

// ChangeStatusRequest mutates a deal's status directly.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open won lost"`
}

// WinDealRequest closes a deal as won.
type WinDealRequest struct {
	ActualAmount *float64 `json:"actualAmount,omitempty" validate:"omitempty,min=0"`
}

// LoseDealRequest closes a deal as lost.
type LoseDealRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// AssignDealRequest assigns a deal to a user. Assignees are referenced
// strictly by id; there is no name-based fallback.
type AssignDealRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Reason string    `json:"reason,omitempty" validate:"max=500"`
}

// DealResponse represents a deal in API responses.
type DealResponse struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	StageID           uuid.UUID  `json:"stageId"`
	Status            string     `json:"status"`
	Amount            float64    `json:"amount"`
	Probability       *int       `json:"probability,omitempty"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	ActualCloseDate   *time.Time `json:"actualCloseDate,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// DealListResponse wraps a list of deals.
type DealListResponse struct {
	Items []DealResponse `json:"items"`
	Total int            `json:"total"`
}

// ToDealResponse maps a repository deal to its API representation.
func ToDealResponse(deal repository.Deal) DealResponse {
	return DealResponse{
		ID:                deal.ID,
		Title:             deal.Title,
		StageID:           deal.StageID,
		Status:            deal.Status,
		Amount:            deal.Amount,
		Probability:       deal.Probability,
		ExpectedCloseDate: deal.ExpectedCloseDate,
		ActualCloseDate:   deal.ActualCloseDate,
		Notes:             deal.Notes,
		CreatedAt:         deal.CreatedAt,
		UpdatedAt:         deal.UpdatedAt,
	}
}

// ToDealListResponse maps a slice of repository deals.
func ToDealListResponse(deals []repository.Deal) DealListResponse {
	items := make([]DealResponse, 0, len(deals))
	for _, deal := range deals {
		items = append(items, ToDealResponse(deal))
	}
	return DealListResponse{Items: items, Total: len(items)}
}
