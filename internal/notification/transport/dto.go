package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/notification/repository"

	"github.com/google/uuid"
)

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID         uuid.UUID  `json:"id"`
	Channel    string     `json:"channel"`
	Recipient  string     `json:"recipient,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Body       string     `json:"body,omitempty"`
	EntityType string     `json:"entityType,omitempty"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	Status     string     `json:"status"`
	LastError  *string    `json:"lastError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
}

// NotificationListResponse wraps a list of notifications.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Total int                    `json:"total"`
}

// ToNotificationResponse maps a repository notification to its API form.
func ToNotificationResponse(n repository.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Channel:    n.Channel,
		Recipient:  n.Recipient,
		Subject:    n.Subject,
		Body:       n.Body,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Status:     n.Status,
		LastError:  n.LastError,
		CreatedAt:  n.CreatedAt,
		SentAt:     n.SentAt,
	}
}

// ToNotificationListResponse maps a slice of notifications.
func ToNotificationListResponse(notifications []repository.Notification) NotificationListResponse {
	items := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, ToNotificationResponse(n))
	}
	return NotificationListResponse{Items: items, Total: len(items)}
}
