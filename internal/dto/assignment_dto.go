package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for assignment creation.
type AssignmentCreateRequest struct {
	ClassID     uint   `form:"class_id" validate:"required,gt=0"`
	Title       string `form:"title" validate:"required,min=3"`
	Description string `form:"description"`
	DueDate     string `form:"due_date" validate:"omitempty"`
}

// AssignmentResponse serializes an assignment.
type AssignmentResponse struct {
	ID          uint       `json:"id"`
	ClassID     uint       `json:"class_id"`
	ProfessorID uint       `json:"professor_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	FileURL     string     `json:"file_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		ClassID:     model.ClassID,
		ProfessorID: model.ProfessorID,
		Title:       model.Title,
		Description: model.Description,
		Status:      model.Status,
		DueDate:     model.DueDate,
		FileURL:     model.FileURL,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
