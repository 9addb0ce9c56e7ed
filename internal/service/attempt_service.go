package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/observability"
	"github.com/classhub/scoring-api/internal/repository"
	"github.com/classhub/scoring-api/internal/scoring"
)

// ErrAssessmentNotFound indicates the assessment could not be located.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ErrAssessmentNotOpen indicates the assessment is not published.
var ErrAssessmentNotOpen = errors.New("assessment is not open for attempts")

// ErrAttemptNotFound indicates the attempt could not be located.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrAttemptLimitExceeded indicates the student has consumed every allowed attempt.
var ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

// ErrAttemptAlreadyCompleted indicates a finalized attempt was submitted again.
var ErrAttemptAlreadyCompleted = errors.New("attempt already completed")

// ErrAccessDenied indicates the actor does not own the target entity.
var ErrAccessDenied = errors.New("access denied")

// AttemptService tracks quiz attempts per (assessment, student) pair, scores
// submitted answers and aggregates assessment statistics.
type AttemptService interface {
	Start(ctx context.Context, assessmentID uint, actor Actor) (dto.AttemptResponse, error)
	Submit(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest, actor Actor) (dto.AttemptResultResponse, error)
	Stats(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentStatsResponse, error)
}

type attemptService struct {
	attempts    repository.AttemptRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	notifier    Notifier
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttemptService constructs an AttemptService instance.
func NewAttemptService(attemptRepo repository.AttemptRepository, assessmentRepo repository.AssessmentRepository, validate *validator.Validate, notifier Notifier, logger zerolog.Logger) AttemptService {
	return &attemptService{
		attempts:    attemptRepo,
		assessments: assessmentRepo,
		validator:   validate,
		notifier:    notifier,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

func (s *attemptService) Start(ctx context.Context, assessmentID uint, actor Actor) (dto.AttemptResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAssessmentNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if !assessment.IsPublished() {
		return dto.AttemptResponse{}, ErrAssessmentNotOpen
	}

	used, err := s.attempts.CountByAssessmentAndStudent(ctx, assessmentID, actor.ID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	if used >= int64(assessment.MaxAttempts) {
		return dto.AttemptResponse{}, fmt.Errorf("%w: the limit of %d attempts has been reached", ErrAttemptLimitExceeded, assessment.MaxAttempts)
	}

	attempt := models.Attempt{
		AssessmentID: assessmentID,
		StudentID:    actor.ID,
		TotalPoints:  assessment.TotalPoints(),
		StartedAt:    s.now(),
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("assessment_id", assessmentID).
		Uint("student_id", actor.ID).
		Int64("attempt_number", used+1).
		Msg("attempt started")

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest, actor Actor) (dto.AttemptResultResponse, error) {
	tracer := otel.Tracer("github.com/classhub/scoring-api/internal/service/attempt")
	ctx, span := tracer.Start(ctx, "attempt.submit")
	span.SetAttributes(
		attribute.Int64("attempt.id", int64(attemptID)),
		attribute.Int("attempt.answer_count", len(payload.Answers)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttemptResultResponse{}, err
	}

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResultResponse{}, ErrAttemptNotFound
		}
		span.RecordError(err)
		return dto.AttemptResultResponse{}, err
	}

	if attempt.StudentID != actor.ID {
		return dto.AttemptResultResponse{}, ErrAccessDenied
	}

	// Finalized attempts are immutable. A second submit is rejected, never
	// silently re-scored.
	if attempt.IsCompleted() {
		return dto.AttemptResultResponse{}, ErrAttemptAlreadyCompleted
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		span.RecordError(err)
		return dto.AttemptResultResponse{}, err
	}

	questions := make(map[uint]models.Question, len(assessment.Questions))
	for _, question := range assessment.Questions {
		questions[question.ID] = question
	}

	answers := make([]models.Answer, 0, len(payload.Answers))
	score := 0.0
	for _, submitted := range payload.Answers {
		question, ok := questions[submitted.QuestionID]
		if !ok {
			// Answers referencing questions outside this assessment are
			// ignored: not scored, not counted toward the total.
			s.logger.Warn().
				Uint("attempt_id", attempt.ID).
				Uint("question_id", submitted.QuestionID).
				Msg("discarding answer for unknown question")
			continue
		}

		outcome := scoring.Evaluate(question, scoring.SubmittedAnswer{
			QuestionID:      submitted.QuestionID,
			SelectedOptions: submitted.SelectedOptions,
			TextAnswer:      submitted.TextAnswer,
		})

		answers = append(answers, models.Answer{
			AttemptID:       attempt.ID,
			QuestionID:      question.ID,
			SelectedOptions: submitted.SelectedOptions,
			TextAnswer:      submitted.TextAnswer,
			IsCorrect:       outcome.Correct,
			Points:          outcome.Points,
		})
		score += outcome.Points
	}

	if err := s.attempts.CreateAnswers(ctx, answers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answers_persist_failed")
		return dto.AttemptResultResponse{}, err
	}

	now := s.now()
	attempt.Score = score
	attempt.TotalPoints = assessment.TotalPoints()
	attempt.CompletedAt = &now
	attempt.TimeSpent = timeSpentFrom(payload.StartedAt, now)
	attempt.Answers = answers

	if err := s.attempts.Update(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_update_failed")
		return dto.AttemptResultResponse{}, err
	}

	observability.AttemptsScoredTotal().WithLabelValues(assessment.Status).Inc()
	span.SetAttributes(
		attribute.Float64("attempt.score", score),
		attribute.Float64("attempt.total_points", attempt.TotalPoints),
	)

	if s.notifier != nil {
		s.notifier.Notify(ctx, assessment.ProfessorID, "attempt.completed",
			fmt.Sprintf("A student completed an attempt on %q", assessment.Title))
	}

	return dto.NewAttemptResultResponse(attempt), nil
}

func (s *attemptService) Stats(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentStatsResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentStatsResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentStatsResponse{}, err
	}

	if assessment.ProfessorID != actor.ID && actor.Role != "admin" {
		return dto.AssessmentStatsResponse{}, ErrAccessDenied
	}

	attempts, err := s.attempts.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return dto.AssessmentStatsResponse{}, err
	}

	return buildAssessmentStats(assessment, attempts), nil
}

// buildAssessmentStats aggregates over stored attempt scores. Scores are never
// recomputed from answer rows so the numbers stay consistent with whatever
// scoring rule was active at submission time.
func buildAssessmentStats(assessment models.Assessment, attempts []models.Attempt) dto.AssessmentStatsResponse {
	stats := dto.AssessmentStatsResponse{
		AssessmentID:  assessment.ID,
		TotalAttempts: len(attempts),
	}

	completed := 0
	scoreSum := 0.0
	timeSum := 0
	timeCount := 0
	perQuestion := make(map[uint]*questionTally)

	for _, attempt := range attempts {
		if !attempt.IsCompleted() {
			continue
		}
		completed++
		scoreSum += attempt.Score

		if stats.HighestScore == nil || attempt.Score > *stats.HighestScore {
			score := attempt.Score
			stats.HighestScore = &score
		}
		if stats.LowestScore == nil || attempt.Score < *stats.LowestScore {
			score := attempt.Score
			stats.LowestScore = &score
		}

		if attempt.TimeSpent != nil {
			timeSum += *attempt.TimeSpent
			timeCount++
		}

		for _, answer := range attempt.Answers {
			tally, ok := perQuestion[answer.QuestionID]
			if !ok {
				tally = &questionTally{}
				perQuestion[answer.QuestionID] = tally
			}
			tally.total++
			if answer.IsCorrect {
				tally.correct++
			}
		}
	}

	stats.CompletedAttempts = completed
	if len(attempts) > 0 {
		stats.CompletionRate = float64(completed) / float64(len(attempts)) * 100
	}
	if completed > 0 {
		stats.AverageScore = scoreSum / float64(completed)
	}
	if timeCount > 0 {
		average := timeSum / timeCount
		stats.AverageTimeSpent = &average
	}

	for _, question := range assessment.Questions {
		success := dto.QuestionSuccessRate{QuestionID: question.ID, Text: question.Text}
		if tally, ok := perQuestion[question.ID]; ok && tally.total > 0 {
			success.TotalAnswers = tally.total
			success.CorrectAnswers = tally.correct
			success.SuccessRate = float64(tally.correct) / float64(tally.total) * 100
		}
		stats.Questions = append(stats.Questions, success)
	}

	return stats
}

type questionTally struct {
	total   int
	correct int
}

// timeSpentFrom derives elapsed seconds from the client-reported start time.
// A missing start time yields nil rather than a server-side wall clock guess,
// since the student may have paused.
func timeSpentFrom(startedAt *time.Time, completedAt time.Time) *int {
	if startedAt == nil {
		return nil
	}
	seconds := int(completedAt.Sub(*startedAt).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return &seconds
}
