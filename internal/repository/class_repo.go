package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/models"
)

// ClassRepository defines data operations for classes and enrollments.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error)
	ListEnrolledStudents(ctx context.Context, classID uint) ([]models.Student, error)
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates the repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("class_id = ?", classID).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *classRepository) ListEnrolledStudents(ctx context.Context, classID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN enrollments ON enrollments.student_id = students.id").
		Where("enrollments.class_id = ?", classID).
		Order("students.id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *classRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}
