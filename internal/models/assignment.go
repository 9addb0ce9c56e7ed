package models

import "time"

const (
	// AssignmentStatusDraft indicates the assignment is not yet open for submissions.
	AssignmentStatusDraft = "draft"
	// AssignmentStatusPublished indicates the assignment accepts submissions.
	AssignmentStatusPublished = "published"
	// AssignmentStatusClosed indicates the assignment no longer accepts submissions.
	AssignmentStatusClosed = "closed"
)

// Assignment represents a deliverable issued by a professor to a class.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ClassID     uint       `gorm:"not null;index" json:"class_id"`
	ProfessorID uint       `gorm:"not null;index" json:"professor_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:32;not null;default:draft" json:"status"`
	DueDate     *time.Time `json:"due_date"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Submissions []Submission
}

// IsPublished reports whether the assignment currently accepts submissions.
func (a Assignment) IsPublished() bool {
	return a.Status == AssignmentStatusPublished
}

// IsPastDue returns true when a due date is set and the reference time is after it.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
