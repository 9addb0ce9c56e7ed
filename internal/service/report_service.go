package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/repository"
)

// ReportService shapes ledger, lifecycle and aggregator outputs into the
// analytics responses served to dashboards.
type ReportService interface {
	ClassReport(ctx context.Context, classID uint, actor Actor) (dto.ClassReportResponse, error)
	StudentReport(ctx context.Context, classID, studentID uint) (dto.StudentReportResponse, error)
	AttendanceRangeReport(ctx context.Context, classID uint, opts dto.AttendanceRateOptions) (dto.ClassAttendanceSummaryResponse, error)
}

type reportService struct {
	classes     repository.ClassRepository
	assessments repository.AssessmentRepository
	attempts    repository.AttemptRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	attendance  repository.AttendanceRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(classRepo repository.ClassRepository, assessmentRepo repository.AssessmentRepository, attemptRepo repository.AttemptRepository, assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, attendanceRepo repository.AttendanceRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		classes:     classRepo,
		assessments: assessmentRepo,
		attempts:    attemptRepo,
		assignments: assignmentRepo,
		submissions: submissionRepo,
		attendance:  attendanceRepo,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "report_service").Logger(),
		now:         time.Now,
	}
}

func (s *reportService) ClassReport(ctx context.Context, classID uint, actor Actor) (dto.ClassReportResponse, error) {
	cacheKey := fmt.Sprintf("report:class:%d", classID)
	tracer := otel.Tracer("github.com/classhub/scoring-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.class")
	span.SetAttributes(attribute.Int64("report.class_id", int64(classID)))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.ClassReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
			span.RecordError(err)
		}
	}

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassReportResponse{}, ErrClassNotFound
		}
		span.RecordError(err)
		return dto.ClassReportResponse{}, err
	}

	if class.ProfessorID != actor.ID && actor.Role != "admin" {
		return dto.ClassReportResponse{}, ErrAccessDenied
	}

	report := dto.ClassReportResponse{
		ClassID:     class.ID,
		ClassName:   class.Name,
		GeneratedAt: s.now(),
	}

	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_assessments_failed")
		return dto.ClassReportResponse{}, err
	}
	for _, assessment := range assessments {
		attempts, err := s.attempts.ListByAssessment(ctx, assessment.ID)
		if err != nil {
			span.RecordError(err)
			return dto.ClassReportResponse{}, err
		}
		report.Assessments = append(report.Assessments, buildAssessmentStats(assessment, attempts))
	}

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_assignments_failed")
		return dto.ClassReportResponse{}, err
	}
	for _, assignment := range assignments {
		assignmentID := assignment.ID
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
		if err != nil {
			span.RecordError(err)
			return dto.ClassReportResponse{}, err
		}

		ungraded, err := s.submissions.CountUngraded(ctx, assignmentID)
		if err != nil {
			span.RecordError(err)
			return dto.ClassReportResponse{}, err
		}

		summary := dto.AssignmentSummary{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			Status:       assignment.Status,
			Submissions:  len(submissions),
			Ungraded:     int(ungraded),
		}
		summary.AverageGrade = AverageGrade(submissions)
		report.Assignments = append(report.Assignments, summary)
	}

	sessions, err := s.attendance.ListSessions(ctx, repository.AttendanceSessionFilter{ClassID: classID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_sessions_failed")
		return dto.ClassReportResponse{}, err
	}
	students, err := s.classes.ListEnrolledStudents(ctx, classID)
	if err != nil {
		span.RecordError(err)
		return dto.ClassReportResponse{}, err
	}
	report.Attendance = buildClassSummary(classID, sessions, students, false)
	report.EnrolledStudents = len(students)

	if s.cache != nil {
		payload, err := json.Marshal(report)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
				span.RecordError(err)
			}
		}
	}

	return report, nil
}

func (s *reportService) StudentReport(ctx context.Context, classID, studentID uint) (dto.StudentReportResponse, error) {
	report := dto.StudentReportResponse{
		ClassID:     classID,
		StudentID:   studentID,
		GeneratedAt: s.now(),
	}

	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		return dto.StudentReportResponse{}, err
	}
	for _, assessment := range assessments {
		attempts, err := s.attempts.ListByStudent(ctx, assessment.ID, studentID)
		if err != nil {
			return dto.StudentReportResponse{}, err
		}

		detail := dto.StudentAssessmentDetail{
			AssessmentID: assessment.ID,
			Title:        assessment.Title,
			MaxAttempts:  assessment.MaxAttempts,
			AttemptsUsed: len(attempts),
		}
		for _, attempt := range attempts {
			if !attempt.IsCompleted() {
				continue
			}
			percentage := attempt.Percentage()
			if detail.BestPercentage == nil || percentage > *detail.BestPercentage {
				detail.BestPercentage = &percentage
				score := attempt.Score
				detail.BestScore = &score
			}
		}
		report.Assessments = append(report.Assessments, detail)
	}

	studentFilter := studentID
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentFilter})
	if err != nil {
		return dto.StudentReportResponse{}, err
	}
	for _, submission := range submissions {
		if submission.Assignment.ID != 0 && submission.Assignment.ClassID != classID {
			continue
		}
		report.Submissions = append(report.Submissions, dto.NewSubmissionResponse(submission))
	}

	sessions, err := s.attendance.ListSessions(ctx, repository.AttendanceSessionFilter{ClassID: classID})
	if err != nil {
		return dto.StudentReportResponse{}, err
	}
	report.Attendance = computeRate(sessions, studentID, false)

	return report, nil
}

func (s *reportService) AttendanceRangeReport(ctx context.Context, classID uint, opts dto.AttendanceRateOptions) (dto.ClassAttendanceSummaryResponse, error) {
	sessions, err := s.attendance.ListSessions(ctx, repository.AttendanceSessionFilter{
		ClassID: classID,
		From:    opts.From,
		To:      opts.To,
	})
	if err != nil {
		return dto.ClassAttendanceSummaryResponse{}, err
	}

	students, err := s.classes.ListEnrolledStudents(ctx, classID)
	if err != nil {
		return dto.ClassAttendanceSummaryResponse{}, err
	}

	return buildClassSummary(classID, sessions, students, opts.IncludeUnmarked), nil
}
