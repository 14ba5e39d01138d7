package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest contains data for creating a new lead.
type CreateLeadRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=200"`
	Email  string   `json:"email,omitempty" validate:"omitempty,email"`
	Source string   `json:"source,omitempty" validate:"max=100"`
	Score  int      `json:"score,omitempty" validate:"min=0,max=100"`
	Tags   []string `json:"tags,omitempty" validate:"dive,min=1,max=50"`
}

// ChangeLeadStatusRequest mutates a lead's status.
type ChangeLeadStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified converted lost"`
}

// AssignLeadRequest assigns a lead to a user. Assignees are referenced
// strictly by id; there is no name-based fallback.
type AssignLeadRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Reason string    `json:"reason,omitempty" validate:"max=500"`
}

// ScoreLeadRequest sets the lead score.
type ScoreLeadRequest struct {
	Score int `json:"score" validate:"min=0,max=100"`
}

// TagsRequest adds or removes tags.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,min=1,max=50"`
}

// AddNoteRequest appends a free-form note to the lead's audit trail.
type AddNoteRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// ScheduleFollowUpRequest schedules a follow-up reminder.
type ScheduleFollowUpRequest struct {
	At      time.Time `json:"at" validate:"required"`
	Message string    `json:"message,omitempty" validate:"max=500"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Source     string     `json:"source,omitempty"`
	Status     string     `json:"status"`
	Score      int        `json:"score"`
	Tags       []string   `json:"tags"`
	FollowUpAt *time.Time `json:"followUpAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// LeadListResponse wraps a list of leads.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

// ToLeadResponse maps a repository lead to its API representation.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:         lead.ID,
		Name:       lead.Name,
		Email:      lead.Email,
		Source:     lead.Source,
		Status:     lead.Status,
		Score:      lead.Score,
		Tags:       tags,
		FollowUpAt: lead.FollowUpAt,
		CreatedAt:  lead.CreatedAt,
		UpdatedAt:  lead.UpdatedAt,
	}
}

// ToLeadListResponse maps a slice of repository leads.
func ToLeadListResponse(leads []repository.Lead) LeadListResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return LeadListResponse{Items: items, Total: len(items)}
}
