package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/models"
)

// AssessmentRepository defines data operations for assessments and their questions.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates the repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("options.position ASC") }).
		First(&assessment, id).Error
	if err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}

func (r *assessmentRepository) ListByClass(ctx context.Context, classID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions").
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, err
	}
	return assessments, nil
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Save(assessment).Error
}
