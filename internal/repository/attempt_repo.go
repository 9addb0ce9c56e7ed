package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/models"
)

// AttemptRepository defines data operations for quiz attempts and answers.
type AttemptRepository interface {
	GetByID(ctx context.Context, id uint) (models.Attempt, error)
	CountByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (int64, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error)
	ListByStudent(ctx context.Context, assessmentID, studentID uint) ([]models.Attempt, error)
	Create(ctx context.Context, attempt *models.Attempt) error
	Update(ctx context.Context, attempt *models.Attempt) error
	CreateAnswers(ctx context.Context, answers []models.Answer) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&attempt, id).Error
	if err != nil {
		return models.Attempt{}, err
	}
	return attempt, nil
}

func (r *attemptRepository) CountByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) ListByStudent(ctx context.Context, assessmentID, studentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.Attempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *attemptRepository) CreateAnswers(ctx context.Context, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&answers).Error
}
