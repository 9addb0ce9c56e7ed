package models

import "time"

// Submission is a student's current deliverable for an assignment. At most one
// live row exists per (assignment, student) pair; a resubmission overwrites it
// in place and clears any prior grade.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Grade        *float64   `json:"grade"`
	GradedAt     *time.Time `json:"graded_at"`
	GradedBy     *uint      `json:"graded_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether the submission carries a grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}

// ResetGrade clears grading state, returning the submission to ungraded.
func (s *Submission) ResetGrade() {
	s.Grade = nil
	s.GradedAt = nil
	s.GradedBy = nil
}
