package models

import "time"

// Class represents a course section owned by a professor.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	ProfessorID uint      `gorm:"not null;index" json:"professor_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enrollment links a student to a class. One row per (class, student) pair.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
	Student   Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
