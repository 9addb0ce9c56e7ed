package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// NotificationResponse mirrors a stored notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(models []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(models))
	for _, notification := range models {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}
