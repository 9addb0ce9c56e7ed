package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/repository"
)

// ErrInvalidDueDate indicates an unparseable or already-passed due date.
var ErrInvalidDueDate = errors.New("invalid due date")

// FileUploader abstracts persistent storage of uploaded files.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService manages assignment authoring: creation, publication and
// listing. Submission handling lives in SubmissionService.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, file *multipart.FileHeader, actor Actor) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, assignmentID uint, actor Actor) (dto.AssignmentResponse, error)
	ListByClass(ctx context.Context, classID uint) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, classRepo repository.ClassRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		classes:     classRepo,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, file *multipart.FileHeader, actor Actor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if class.ProfessorID != actor.ID {
		return dto.AssignmentResponse{}, ErrAccessDenied
	}

	var dueDate *time.Time
	if payload.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: must be an RFC3339 timestamp", ErrInvalidDueDate)
		}
		if parsed.Before(s.now()) {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: must be in the future", ErrInvalidDueDate)
		}
		dueDate = &parsed
	}

	assignment := models.Assignment{
		ClassID:     payload.ClassID,
		ProfessorID: actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      models.AssignmentStatusDraft,
		DueDate:     dueDate,
	}

	if file != nil {
		reader, err := file.Open()
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("failed to open file: %w", err)
		}
		defer reader.Close()

		uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("failed to upload file: %w", err)
		}
		assignment.FileURL = uploadURL
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("class_id", class.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Publish(ctx context.Context, assignmentID uint, actor Actor) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if assignment.ProfessorID != actor.ID {
		return dto.AssignmentResponse{}, ErrAccessDenied
	}

	assignment.Status = models.AssignmentStatusPublished
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListByClass(ctx context.Context, classID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.NewAssignmentResponse(assignment))
	}
	return responses, nil
}
