package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a submission upload.
type SubmissionCreateRequest struct {
	AssignmentID uint   `form:"assignment_id" validate:"required,gt=0"`
	Feedback     string `form:"feedback"`
}

// SubmissionGradeRequest is used by professors to grade a submission.
// The grade range is checked in the service so a negative grade surfaces
// as ErrInvalidGrade rather than a generic validation failure.
type SubmissionGradeRequest struct {
	Grade    float64 `json:"grade"`
	Feedback *string `json:"feedback" validate:"omitempty,min=3"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint `query:"assignment_id"`
	StudentID    *uint `query:"student_id"`
	Ungraded     bool  `query:"ungraded"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      uint       `json:"id"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	FileURL      string         `json:"file_url"`
	Feedback     string         `json:"feedback"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Grade        *float64       `json:"grade"`
	GradedAt     *time.Time     `json:"graded_at"`
	GradedBy     *uint          `json:"graded_by"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		FileURL:      model.FileURL,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		Grade:        model.Grade,
		GradedAt:     model.GradedAt,
		GradedBy:     model.GradedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			DueDate: model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
