package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/observability"
	"github.com/classhub/scoring-api/internal/repository"
)

// ErrClassNotFound indicates the class could not be located.
var ErrClassNotFound = errors.New("class not found")

// ErrSessionNotFound indicates the attendance session could not be located.
var ErrSessionNotFound = errors.New("attendance session not found")

// ErrInvalidAttendanceStatus indicates an unknown attendance mark.
var ErrInvalidAttendanceStatus = errors.New("invalid attendance status")

// Status weights for the participation rate.
const (
	presentWeight = 1.0
	lateWeight    = 0.5
	excusedWeight = 0.75
	absentWeight  = 0.0
)

// AttendanceService marks attendance and computes weighted participation
// rates across sessions.
type AttendanceService interface {
	CreateSession(ctx context.Context, payload dto.AttendanceSessionCreateRequest, actor Actor) (dto.AttendanceSessionResponse, error)
	Mark(ctx context.Context, sessionID uint, payload dto.AttendanceMarkRequest, actor Actor) (dto.AttendanceRecordResponse, error)
	StudentRate(ctx context.Context, classID, studentID uint, opts dto.AttendanceRateOptions) (dto.AttendanceRateResponse, error)
	ClassSummary(ctx context.Context, classID uint, opts dto.AttendanceRateOptions) (dto.ClassAttendanceSummaryResponse, error)
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	classes    repository.ClassRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(attendanceRepo repository.AttendanceRepository, classRepo repository.ClassRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		attendance: attendanceRepo,
		classes:    classRepo,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		now:        time.Now,
	}
}

func (s *attendanceService) CreateSession(ctx context.Context, payload dto.AttendanceSessionCreateRequest, actor Actor) (dto.AttendanceSessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceSessionResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceSessionResponse{}, ErrClassNotFound
		}
		return dto.AttendanceSessionResponse{}, err
	}

	if class.ProfessorID != actor.ID {
		return dto.AttendanceSessionResponse{}, ErrAccessDenied
	}

	session := models.AttendanceSession{
		ClassID: payload.ClassID,
		Date:    payload.Date,
	}
	if err := s.attendance.CreateSession(ctx, &session); err != nil {
		return dto.AttendanceSessionResponse{}, err
	}

	s.logger.Info().Uint("session_id", session.ID).Uint("class_id", class.ID).Msg("attendance session created")

	return dto.NewAttendanceSessionResponse(session), nil
}

func (s *attendanceService) Mark(ctx context.Context, sessionID uint, payload dto.AttendanceMarkRequest, actor Actor) (dto.AttendanceRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceRecordResponse{}, err
	}

	if !models.ValidAttendanceStatus(payload.Status) {
		return dto.AttendanceRecordResponse{}, ErrInvalidAttendanceStatus
	}

	session, err := s.attendance.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceRecordResponse{}, ErrSessionNotFound
		}
		return dto.AttendanceRecordResponse{}, err
	}

	if session.Class.ProfessorID != actor.ID {
		return dto.AttendanceRecordResponse{}, ErrAccessDenied
	}

	enrolled, err := s.classes.IsEnrolled(ctx, session.ClassID, payload.StudentID)
	if err != nil {
		return dto.AttendanceRecordResponse{}, err
	}
	if !enrolled {
		return dto.AttendanceRecordResponse{}, ErrNotEnrolled
	}

	record := models.AttendanceRecord{
		SessionID: sessionID,
		StudentID: payload.StudentID,
		Status:    payload.Status,
		MarkedBy:  actor.ID,
	}

	// Marking twice updates the existing row rather than duplicating it.
	if err := s.attendance.UpsertRecord(ctx, &record); err != nil {
		return dto.AttendanceRecordResponse{}, err
	}

	observability.AttendanceMarkedTotal().WithLabelValues(payload.Status).Inc()

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "attendance.marked",
			EntityType: "attendance_session",
			EntityID:   &sessionID,
			Metadata: map[string]interface{}{
				"student_id": payload.StudentID,
				"status":     payload.Status,
			},
		})
	}

	return dto.NewAttendanceRecordResponse(record), nil
}

func (s *attendanceService) StudentRate(ctx context.Context, classID, studentID uint, opts dto.AttendanceRateOptions) (dto.AttendanceRateResponse, error) {
	sessions, err := s.attendance.ListSessions(ctx, repository.AttendanceSessionFilter{
		ClassID: classID,
		From:    opts.From,
		To:      opts.To,
	})
	if err != nil {
		return dto.AttendanceRateResponse{}, err
	}

	return computeRate(sessions, studentID, opts.IncludeUnmarked), nil
}

func (s *attendanceService) ClassSummary(ctx context.Context, classID uint, opts dto.AttendanceRateOptions) (dto.ClassAttendanceSummaryResponse, error) {
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

// computeRate classifies the student's mark in every session and derives the
// weighted participation rate. Sessions without a mark count toward the
// denominator only when includeUnmarked is set; callers choose the policy
// explicitly because different reports need different denominators.
func computeRate(sessions []models.AttendanceSession, studentID uint, includeUnmarked bool) dto.AttendanceRateResponse {
	rate := dto.AttendanceRateResponse{StudentID: studentID}

	for _, session := range sessions {
		record, ok := session.RecordFor(studentID)
		if !ok {
			rate.NotMarked++
			continue
		}
		switch record.Status {
		case models.AttendanceStatusPresent:
			rate.Present++
		case models.AttendanceStatusLate:
			rate.Late++
		case models.AttendanceStatusExcused:
			rate.Excused++
		case models.AttendanceStatusAbsent:
			rate.Absent++
		}
	}

	denominator := rate.Present + rate.Absent + rate.Late + rate.Excused
	if includeUnmarked {
		denominator += rate.NotMarked
	}
	rate.TotalSessions = denominator
	rate.Rate = weightedRate(rate.Present, rate.Late, rate.Excused, denominator)

	return rate
}

func buildClassSummary(classID uint, sessions []models.AttendanceSession, students []models.Student, includeUnmarked bool) dto.ClassAttendanceSummaryResponse {
	summary := dto.ClassAttendanceSummaryResponse{
		ClassID:       classID,
		TotalSessions: len(sessions),
	}

	pooledPresent, pooledLate, pooledExcused, pooledTotal := 0, 0, 0, 0
	rateSum := 0.0

	for _, student := range students {
		rate := computeRate(sessions, student.ID, includeUnmarked)
		rate.StudentName = student.Name
		summary.Students = append(summary.Students, rate)

		pooledPresent += rate.Present
		pooledLate += rate.Late
		pooledExcused += rate.Excused
		pooledTotal += rate.TotalSessions
		rateSum += rate.Rate
	}

	// Leaderboard order: best rate first, student id as the deterministic
	// tie-break.
	sort.SliceStable(summary.Students, func(i, j int) bool {
		if summary.Students[i].Rate != summary.Students[j].Rate {
			return summary.Students[i].Rate > summary.Students[j].Rate
		}
		return summary.Students[i].StudentID < summary.Students[j].StudentID
	})

	// The pooled rate divides summed raw counts and is not the mean of the
	// per-student rates; reports need both.
	summary.PooledRate = weightedRate(pooledPresent, pooledLate, pooledExcused, pooledTotal)
	if len(students) > 0 {
		summary.MeanRate = roundOneDecimal(rateSum / float64(len(students)))
	}

	return summary
}

func weightedRate(present, late, excused, total int) float64 {
	if total <= 0 {
		return 0
	}
	weighted := float64(present)*presentWeight + float64(late)*lateWeight + float64(excused)*excusedWeight
	return roundOneDecimal(weighted / float64(total) * 100)
}

func roundOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}
