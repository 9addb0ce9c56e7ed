package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt is one student's run through an assessment. Once CompletedAt is set
// the attempt is immutable.
type Attempt struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssessmentID uint       `gorm:"not null;index:idx_attempt_assessment_student" json:"assessment_id"`
	StudentID    uint       `gorm:"not null;index:idx_attempt_assessment_student" json:"student_id"`
	Score        float64    `gorm:"not null;default:0" json:"score"`
	TotalPoints  float64    `gorm:"not null;default:0" json:"total_points"`
	TimeSpent    *int       `json:"time_spent"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Answers      []Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
	Assessment   Assessment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsCompleted reports whether the attempt has been finalized.
func (a Attempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Percentage returns the attempt score as a percentage of total points.
func (a Attempt) Percentage() float64 {
	if a.TotalPoints <= 0 {
		return 0
	}
	return a.Score / a.TotalPoints * 100
}

// Answer records the outcome of one question within an attempt.
// ManualPoints is a grader override layered on top of the automatic score;
// the automatically scored Points value is never rewritten.
type Answer struct {
	ID              uint                      `gorm:"primaryKey" json:"id"`
	AttemptID       uint                      `gorm:"not null;index" json:"attempt_id"`
	QuestionID      uint                      `gorm:"not null;index" json:"question_id"`
	SelectedOptions datatypes.JSONSlice[uint] `gorm:"type:json" json:"selected_options"`
	TextAnswer      string                    `gorm:"type:text" json:"text_answer"`
	IsCorrect       bool                      `gorm:"not null;default:false" json:"is_correct"`
	Points          float64                   `gorm:"not null;default:0" json:"points"`
	ManualPoints    *float64                  `json:"manual_points"`
	CreatedAt       time.Time                 `json:"created_at"`
}
