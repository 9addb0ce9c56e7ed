package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/repository"
)

// ErrInvalidQuestion indicates a question violates its type's option rules.
var ErrInvalidQuestion = errors.New("invalid question definition")

// AssessmentService manages quiz authoring: creation, publication and retrieval.
type AssessmentService interface {
	Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error)
	Publish(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentResponse, error)
	Get(ctx context.Context, assessmentID uint) (dto.AssessmentResponse, error)
	ListByClass(ctx context.Context, classID uint) ([]dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(assessmentRepo repository.AssessmentRepository, classRepo repository.ClassRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: assessmentRepo,
		classes:     classRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrClassNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if class.ProfessorID != actor.ID {
		return dto.AssessmentResponse{}, ErrAccessDenied
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for position, question := range payload.Questions {
		model, err := buildQuestion(question, position)
		if err != nil {
			return dto.AssessmentResponse{}, err
		}
		questions = append(questions, model)
	}

	assessment := models.Assessment{
		ClassID:     payload.ClassID,
		ProfessorID: actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      models.AssessmentStatusDraft,
		MaxAttempts: payload.MaxAttempts,
		TimeLimit:   payload.TimeLimit,
		Questions:   questions,
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", assessment.ID).Int("questions", len(questions)).Msg("assessment created")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Publish(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if assessment.ProfessorID != actor.ID {
		return dto.AssessmentResponse{}, ErrAccessDenied
	}

	assessment.Status = models.AssessmentStatusPublished
	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Get(ctx context.Context, assessmentID uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) ListByClass(ctx context.Context, classID uint) ([]dto.AssessmentResponse, error) {
	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, dto.NewAssessmentResponse(assessment))
	}
	return responses, nil
}

// buildQuestion validates the option rules for the question type: single
// choice and true/false need exactly one correct option, multiple selection
// needs at least one, short answer carries none.
func buildQuestion(payload dto.QuestionPayload, position int) (models.Question, error) {
	correct := 0
	for _, option := range payload.Options {
		if option.IsCorrect {
			correct++
		}
	}

	switch payload.Type {
	case models.QuestionTypeMultipleChoice:
		if correct != 1 {
			return models.Question{}, fmt.Errorf("%w: multiple choice requires exactly one correct option", ErrInvalidQuestion)
		}
	case models.QuestionTypeTrueFalse:
		if len(payload.Options) != 2 || correct != 1 {
			return models.Question{}, fmt.Errorf("%w: true/false requires two options with exactly one correct", ErrInvalidQuestion)
		}
	case models.QuestionTypeMultipleSelection:
		if correct == 0 {
			return models.Question{}, fmt.Errorf("%w: multiple selection requires at least one correct option", ErrInvalidQuestion)
		}
	case models.QuestionTypeShortAnswer:
		if len(payload.Options) != 0 {
			return models.Question{}, fmt.Errorf("%w: short answer questions carry no options", ErrInvalidQuestion)
		}
	default:
		return models.Question{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, payload.Type)
	}

	options := make([]models.Option, 0, len(payload.Options))
	for optionPosition, option := range payload.Options {
		options = append(options, models.Option{
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
			Position:  optionPosition,
		})
	}

	return models.Question{
		Type:     payload.Type,
		Text:     payload.Text,
		Points:   payload.Points,
		Position: position,
		Options:  options,
	}, nil
}
