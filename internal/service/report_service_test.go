package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
)

type reportFixture struct {
	svc         ReportService
	classes     *fakeClassRepo
	assessments *fakeAssessmentRepo
	attempts    *fakeAttemptRepo
	assignments *fakeAssignmentRepo
	subs        *fakeSubmissionRepo
	attendance  *fakeAttendanceRepo
}

func newReportFixture(t *testing.T, cache *redis.Client, ttl time.Duration) reportFixture {
	t.Helper()

	classes := newFakeClassRepo(models.Class{ID: 1, Name: "Databases", ProfessorID: 99})
	classes.enroll(1, models.Student{ID: 7, Name: "Dana"})
	classes.enroll(1, models.Student{ID: 8, Name: "Eli"})

	assessments := newFakeAssessmentRepo(quizFixture())
	attempts := newFakeAttemptRepo()

	due := time.Now().Add(24 * time.Hour)
	assignment := models.Assignment{ID: 1, ClassID: 1, ProfessorID: 99, Title: "Normalization exercise", Status: models.AssignmentStatusPublished, DueDate: &due}
	assignments := newFakeAssignmentRepo(assignment)

	subs := newFakeSubmissionRepo()
	subs.assignments[1] = assignment
	grade := 80.0
	now := time.Now()
	require.NoError(t, subs.Create(context.Background(), &models.Submission{AssignmentID: 1, StudentID: 7, Grade: &grade, GradedAt: &now, SubmittedAt: now}))
	require.NoError(t, subs.Create(context.Background(), &models.Submission{AssignmentID: 1, StudentID: 8, SubmittedAt: now}))

	attendance := newFakeAttendanceRepo(sessionsFor(1,
		map[uint]string{7: models.AttendanceStatusPresent, 8: models.AttendanceStatusAbsent},
		map[uint]string{7: models.AttendanceStatusPresent, 8: models.AttendanceStatusLate},
	)...)

	svc := NewReportService(classes, assessments, attempts, assignments, subs, attendance, cache, ttl, testLogger())
	return reportFixture{svc: svc, classes: classes, assessments: assessments, attempts: attempts, assignments: assignments, subs: subs, attendance: attendance}
}

func TestClassReportAggregates(t *testing.T) {
	fx := newReportFixture(t, nil, 0)

	now := time.Now()
	require.NoError(t, fx.attempts.Create(context.Background(), &models.Attempt{
		AssessmentID: 1, StudentID: 7, Score: 8, TotalPoints: 10,
		StartedAt: now.Add(-time.Hour), CompletedAt: timePtr(now),
	}))

	report, err := fx.svc.ClassReport(context.Background(), 1, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.Equal(t, "Databases", report.ClassName)
	require.Equal(t, 2, report.EnrolledStudents)
	require.False(t, report.CacheHit)

	require.Len(t, report.Assessments, 1)
	require.Equal(t, 1, report.Assessments[0].CompletedAttempts)
	require.InDelta(t, 8.0, report.Assessments[0].AverageScore, 0.001)

	require.Len(t, report.Assignments, 1)
	require.Equal(t, 2, report.Assignments[0].Submissions)
	require.Equal(t, 1, report.Assignments[0].Ungraded)
	require.InDelta(t, 80.0, report.Assignments[0].AverageGrade, 0.001)

	require.Equal(t, 2, report.Attendance.TotalSessions)
	require.Len(t, report.Attendance.Students, 2)
	require.Equal(t, uint(7), report.Attendance.Students[0].StudentID)
}

func TestClassReportServedFromCacheOnSecondCall(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	fx := newReportFixture(t, cache, time.Minute)

	first, err := fx.svc.ClassReport(context.Background(), 1, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := fx.svc.ClassReport(context.Background(), 1, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.ClassName, second.ClassName)
	require.Equal(t, first.Assignments, second.Assignments)
}

func TestClassReportDeniesForeignProfessor(t *testing.T) {
	fx := newReportFixture(t, nil, 0)

	_, err := fx.svc.ClassReport(context.Background(), 1, Actor{ID: 5, Role: "professor"})
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = fx.svc.ClassReport(context.Background(), 1, Actor{ID: 5, Role: "admin"})
	require.NoError(t, err)
}

func TestStudentReportTracksBestAttempt(t *testing.T) {
	fx := newReportFixture(t, nil, 0)

	now := time.Now()
	for _, score := range []float64{4, 9, 6} {
		require.NoError(t, fx.attempts.Create(context.Background(), &models.Attempt{
			AssessmentID: 1, StudentID: 7, Score: score, TotalPoints: 10,
			StartedAt: now.Add(-time.Hour), CompletedAt: timePtr(now),
		}))
	}

	report, err := fx.svc.StudentReport(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, report.Assessments, 1)
	require.Equal(t, 3, report.Assessments[0].AttemptsUsed)
	require.NotNil(t, report.Assessments[0].BestScore)
	require.Equal(t, 9.0, *report.Assessments[0].BestScore)
	require.InDelta(t, 90.0, *report.Assessments[0].BestPercentage, 0.001)

	require.Len(t, report.Submissions, 1)
	require.Equal(t, uint(7), report.Submissions[0].StudentID)
	require.Equal(t, 100.0, report.Attendance.Rate)
}

func TestAttendanceRangeReportFiltersByDate(t *testing.T) {
	fx := newReportFixture(t, nil, 0)

	from := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	summary, err := fx.svc.AttendanceRangeReport(context.Background(), 1, dto.AttendanceRateOptions{From: &from})
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalSessions)
}
