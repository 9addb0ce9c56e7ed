package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/observability"
	"github.com/classhub/scoring-api/internal/repository"
)

// ErrAssignmentNotFound indicates the assignment could not be located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAssignmentNotOpen indicates the assignment is not published.
var ErrAssignmentNotOpen = errors.New("assignment is not open for submissions")

// ErrNotEnrolled indicates the student is not enrolled in the assignment's class.
var ErrNotEnrolled = errors.New("student is not enrolled in this class")

// ErrPastDueDate indicates the assignment due date has passed.
var ErrPastDueDate = errors.New("assignment due date has passed")

// ErrInvalidGrade indicates a negative grade value.
var ErrInvalidGrade = errors.New("grade must be a non-negative number")

// ErrUnsupportedFileType indicates the uploaded file type is not accepted.
var ErrUnsupportedFileType = errors.New("file type not allowed")

// SubmissionService manages the assignment submission lifecycle: first
// submission, resubmission with grade reset, and manual grading.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Submit(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	uploader    FileUploader
	notifier    Notifier
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, classRepo repository.ClassRepository, validate *validator.Validate, uploader FileUploader, notifier Notifier, activity ActivityRecorder, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		classes:     classRepo,
		validator:   validate,
		uploader:    uploader,
		notifier:    notifier,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Ungraded:     filter.Ungraded,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !assignment.IsPublished() {
		return dto.SubmissionResponse{}, ErrAssignmentNotOpen
	}

	enrolled, err := s.classes.IsEnrolled(ctx, assignment.ClassID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	now := s.now()
	if assignment.IsPastDue(now) {
		return dto.SubmissionResponse{}, ErrPastDueDate
	}

	if err := validateSubmissionFileType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, payload.AssignmentID, actor.ID)
	switch {
	case err == nil:
		// Resubmission overwrites the live row in place and invalidates any
		// prior grade. Only the most recent state is retained.
		submission.FileURL = uploadURL
		submission.Feedback = feedback
		submission.SubmittedAt = now
		submission.ResetGrade()
		if err := s.submissions.Update(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID: payload.AssignmentID,
			StudentID:    actor.ID,
			FileURL:      uploadURL,
			Feedback:     feedback,
			SubmittedAt:  now,
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
	default:
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsReceivedTotal().Inc()
	s.logger.Info().Uint("submission_id", created.ID).Uint("assignment_id", assignment.ID).Msg("submission received")

	if s.notifier != nil {
		s.notifier.Notify(ctx, assignment.ProfessorID, "submission.received",
			fmt.Sprintf("New submission for %q", assignment.Title))
	}

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/classhub/scoring-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.grade")
	span.SetAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("submission.grader_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if payload.Grade < 0 {
		return dto.SubmissionResponse{}, ErrInvalidGrade
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment.ProfessorID != actor.ID {
		return dto.SubmissionResponse{}, ErrAccessDenied
	}

	grade := payload.Grade
	gradedAt := s.now()
	gradedBy := actor.ID
	submission.Grade = &grade
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy
	if payload.Feedback != nil {
		submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Feedback))
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsGradedTotal().Inc()
	span.SetAttributes(attribute.Float64("submission.grade", grade))

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"assignment_id": submission.AssignmentID,
				"student_id":    submission.StudentID,
				"grade":         grade,
			},
		})
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, submission.StudentID, "submission.graded",
			fmt.Sprintf("Your submission for %q has been graded", submission.Assignment.Title))
	}

	return dto.NewSubmissionResponse(submission), nil
}

// AverageGrade returns the arithmetic mean of graded values in the set.
// Grades of exactly zero are excluded: the legacy aggregate cannot tell a
// zero grade apart from "no grade" and callers depend on that behaviour.
func AverageGrade(submissions []models.Submission) float64 {
	sum := 0.0
	count := 0
	for _, submission := range submissions {
		if submission.Grade == nil || *submission.Grade <= 0 {
			continue
		}
		sum += *submission.Grade
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func validateSubmissionFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
