package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// AnswerSubmission is a student's response to one question.
type AnswerSubmission struct {
	QuestionID      uint   `json:"question_id" validate:"required,gt=0"`
	SelectedOptions []uint `json:"selected_options"`
	TextAnswer      string `json:"text_answer"`
}

// AttemptSubmitRequest carries all answers for an attempt. StartedAt is the
// client-reported start time used to derive time spent.
type AttemptSubmitRequest struct {
	StartedAt *time.Time         `json:"started_at"`
	Answers   []AnswerSubmission `json:"answers" validate:"required,dive"`
}

// AttemptResponse serializes an in-progress attempt.
type AttemptResponse struct {
	ID           uint       `json:"id"`
	AssessmentID uint       `json:"assessment_id"`
	StudentID    uint       `json:"student_id"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// AnswerResponse serializes the scored outcome of one answer.
type AnswerResponse struct {
	QuestionID   uint     `json:"question_id"`
	IsCorrect    bool     `json:"is_correct"`
	Points       float64  `json:"points"`
	ManualPoints *float64 `json:"manual_points,omitempty"`
}

// AttemptResultResponse serializes a finalized, scored attempt.
type AttemptResultResponse struct {
	AttemptID     uint             `json:"attempt_id"`
	Score         float64          `json:"score"`
	TotalPossible float64          `json:"total_possible"`
	Percentage    float64          `json:"percentage"`
	TimeSpent     *int             `json:"time_spent"`
	CompletedAt   *time.Time       `json:"completed_at"`
	Answers       []AnswerResponse `json:"answers"`
}

// QuestionSuccessRate reports per-question performance across all attempts.
type QuestionSuccessRate struct {
	QuestionID     uint    `json:"question_id"`
	Text           string  `json:"text"`
	TotalAnswers   int     `json:"total_answers"`
	CorrectAnswers int     `json:"correct_answers"`
	SuccessRate    float64 `json:"success_rate"`
}

// AssessmentStatsResponse aggregates attempt outcomes for one assessment.
type AssessmentStatsResponse struct {
	AssessmentID      uint                  `json:"assessment_id"`
	TotalAttempts     int                   `json:"total_attempts"`
	CompletedAttempts int                   `json:"completed_attempts"`
	CompletionRate    float64               `json:"completion_rate"`
	AverageScore      float64               `json:"average_score"`
	HighestScore      *float64              `json:"highest_score"`
	LowestScore       *float64              `json:"lowest_score"`
	AverageTimeSpent  *int                  `json:"average_time_spent"`
	Questions         []QuestionSuccessRate `json:"questions"`
}

// NewAttemptResponse converts an Attempt model into a DTO.
func NewAttemptResponse(model models.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		StudentID:    model.StudentID,
		StartedAt:    model.StartedAt,
		CompletedAt:  model.CompletedAt,
	}
}

// NewAttemptResultResponse converts a finalized Attempt into a result DTO.
func NewAttemptResultResponse(model models.Attempt) AttemptResultResponse {
	answers := make([]AnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, AnswerResponse{
			QuestionID:   answer.QuestionID,
			IsCorrect:    answer.IsCorrect,
			Points:       answer.Points,
			ManualPoints: answer.ManualPoints,
		})
	}

	return AttemptResultResponse{
		AttemptID:     model.ID,
		Score:         model.Score,
		TotalPossible: model.TotalPoints,
		Percentage:    model.Percentage(),
		TimeSpent:     model.TimeSpent,
		CompletedAt:   model.CompletedAt,
		Answers:       answers,
	}
}
