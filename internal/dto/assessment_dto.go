package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// OptionPayload defines one selectable choice when authoring a question.
type OptionPayload struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionPayload defines one question when authoring an assessment.
type QuestionPayload struct {
	Type    string          `json:"type" validate:"required,oneof=multiple_choice multiple_selection true_false short_answer"`
	Text    string          `json:"text" validate:"required"`
	Points  float64         `json:"points" validate:"required,gt=0"`
	Options []OptionPayload `json:"options" validate:"dive"`
}

// AssessmentCreateRequest describes the payload for creating an assessment.
type AssessmentCreateRequest struct {
	ClassID     uint              `json:"class_id" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,min=3"`
	Description string            `json:"description"`
	MaxAttempts int               `json:"max_attempts" validate:"required,gt=0"`
	TimeLimit   *int              `json:"time_limit" validate:"omitempty,gt=0"`
	Questions   []QuestionPayload `json:"questions" validate:"required,min=1,dive"`
}

// OptionResponse serializes one option.
type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionResponse serializes one question with its options.
type QuestionResponse struct {
	ID      uint             `json:"id"`
	Type    string           `json:"type"`
	Text    string           `json:"text"`
	Points  float64          `json:"points"`
	Options []OptionResponse `json:"options"`
}

// AssessmentResponse serializes an assessment with its questions.
type AssessmentResponse struct {
	ID          uint               `json:"id"`
	ClassID     uint               `json:"class_id"`
	ProfessorID uint               `json:"professor_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	MaxAttempts int                `json:"max_attempts"`
	TimeLimit   *int               `json:"time_limit"`
	TotalPoints float64            `json:"total_points"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewAssessmentResponse converts an Assessment model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		options := make([]OptionResponse, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, OptionResponse{
				ID:        option.ID,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		questions = append(questions, QuestionResponse{
			ID:      question.ID,
			Type:    question.Type,
			Text:    question.Text,
			Points:  question.Points,
			Options: options,
		})
	}

	return AssessmentResponse{
		ID:          model.ID,
		ClassID:     model.ClassID,
		ProfessorID: model.ProfessorID,
		Title:       model.Title,
		Description: model.Description,
		Status:      model.Status,
		MaxAttempts: model.MaxAttempts,
		TimeLimit:   model.TimeLimit,
		TotalPoints: model.TotalPoints(),
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
