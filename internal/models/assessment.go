package models

import "time"

const (
	// AssessmentStatusDraft indicates the assessment is being authored and cannot be attempted.
	AssessmentStatusDraft = "draft"
	// AssessmentStatusPublished indicates the assessment accepts attempts.
	AssessmentStatusPublished = "published"
	// AssessmentStatusClosed indicates the assessment no longer accepts attempts.
	AssessmentStatusClosed = "closed"
)

const (
	// QuestionTypeMultipleChoice expects exactly one selected option.
	QuestionTypeMultipleChoice = "multiple_choice"
	// QuestionTypeMultipleSelection expects a set of selected options.
	QuestionTypeMultipleSelection = "multiple_selection"
	// QuestionTypeTrueFalse is a two-option multiple choice.
	QuestionTypeTrueFalse = "true_false"
	// QuestionTypeShortAnswer is free text and is never auto-scored.
	QuestionTypeShortAnswer = "short_answer"
)

// Assessment represents a quiz owned by a professor within a class.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ClassID     uint       `gorm:"not null;index" json:"class_id"`
	ProfessorID uint       `gorm:"not null;index" json:"professor_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:32;not null;default:draft" json:"status"`
	MaxAttempts int        `gorm:"not null;default:1" json:"max_attempts"`
	TimeLimit   *int       `json:"time_limit"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// IsPublished reports whether the assessment currently accepts attempts.
func (a Assessment) IsPublished() bool {
	return a.Status == AssessmentStatusPublished
}

// TotalPoints sums the point weight of every question in the assessment.
func (a Assessment) TotalPoints() float64 {
	total := 0.0
	for _, question := range a.Questions {
		total += question.Points
	}
	return total
}

// Question belongs to exactly one assessment.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssessmentID uint      `gorm:"not null;index" json:"assessment_id"`
	Type         string    `gorm:"size:32;not null" json:"type"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	Points       float64   `gorm:"not null" json:"points"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Options      []Option  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
}

// CorrectOptionIDs returns the identifiers of all options flagged correct.
func (q Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, len(q.Options))
	for _, option := range q.Options {
		if option.IsCorrect {
			ids = append(ids, option.ID)
		}
	}
	return ids
}

// Option is one selectable choice for a question.
type Option struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"size:512;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
