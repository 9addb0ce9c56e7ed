package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
)

func sessionsFor(classID uint, marks ...map[uint]string) []models.AttendanceSession {
	sessions := make([]models.AttendanceSession, 0, len(marks))
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, sessionMarks := range marks {
		session := models.AttendanceSession{
			ID:      uint(i + 1),
			ClassID: classID,
			Date:    day.AddDate(0, 0, i),
		}
		for studentID, status := range sessionMarks {
			session.Records = append(session.Records, models.AttendanceRecord{
				ID:        uint(len(session.Records) + 1),
				SessionID: session.ID,
				StudentID: studentID,
				Status:    status,
			})
		}
		sessions = append(sessions, session)
	}
	return sessions
}

func newAttendanceFixture(t *testing.T, sessions []models.AttendanceSession) (AttendanceService, *fakeAttendanceRepo, *fakeClassRepo, *fakeActivityRecorder) {
	t.Helper()
	attendance := newFakeAttendanceRepo(sessions...)
	classes := newFakeClassRepo(models.Class{ID: 1, Name: "Databases", ProfessorID: 99})
	activity := &fakeActivityRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewAttendanceService(attendance, classes, validate, activity, testLogger())
	return svc, attendance, classes, activity
}

func TestStudentRateWeightsStatuses(t *testing.T) {
	// 7 present, 1 excused, 2 absent over 10 sessions:
	// (7*1.0 + 1*0.75) / 10 * 100 = 77.5
	marks := make([]map[uint]string, 0, 10)
	for i := 0; i < 7; i++ {
		marks = append(marks, map[uint]string{7: models.AttendanceStatusPresent})
	}
	marks = append(marks, map[uint]string{7: models.AttendanceStatusExcused})
	marks = append(marks, map[uint]string{7: models.AttendanceStatusAbsent})
	marks = append(marks, map[uint]string{7: models.AttendanceStatusAbsent})

	svc, _, _, _ := newAttendanceFixture(t, sessionsFor(1, marks...))

	rate, err := svc.StudentRate(context.Background(), 1, 7, dto.AttendanceRateOptions{})
	require.NoError(t, err)
	require.Equal(t, 7, rate.Present)
	require.Equal(t, 1, rate.Excused)
	require.Equal(t, 2, rate.Absent)
	require.Equal(t, 10, rate.TotalSessions)
	require.Equal(t, 77.5, rate.Rate)
}

func TestStudentRateLateCountsHalf(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t, sessionsFor(1,
		map[uint]string{7: models.AttendanceStatusPresent},
		map[uint]string{7: models.AttendanceStatusLate},
	))

	rate, err := svc.StudentRate(context.Background(), 1, 7, dto.AttendanceRateOptions{})
	require.NoError(t, err)
	require.Equal(t, 75.0, rate.Rate)
}

func TestStudentRateUnmarkedDenominatorIsOptIn(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t, sessionsFor(1,
		map[uint]string{7: models.AttendanceStatusPresent},
		map[uint]string{}, // no mark for student 7
	))

	rate, err := svc.StudentRate(context.Background(), 1, 7, dto.AttendanceRateOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, rate.NotMarked)
	require.Equal(t, 1, rate.TotalSessions)
	require.Equal(t, 100.0, rate.Rate)

	strict, err := svc.StudentRate(context.Background(), 1, 7, dto.AttendanceRateOptions{IncludeUnmarked: true})
	require.NoError(t, err)
	require.Equal(t, 2, strict.TotalSessions)
	require.Equal(t, 50.0, strict.Rate)
}

func TestStudentRateEmptyClassIsZero(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t, nil)

	rate, err := svc.StudentRate(context.Background(), 1, 7, dto.AttendanceRateOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, rate.TotalSessions)
	require.Equal(t, 0.0, rate.Rate)
}

func TestMarkUpsertsExistingRecord(t *testing.T) {
	sessions := sessionsFor(1, map[uint]string{})
	sessions[0].Class = models.Class{ID: 1, ProfessorID: 99}
	svc, attendance, classes, activity := newAttendanceFixture(t, sessions)
	classes.enroll(1, models.Student{ID: 7, Name: "Dana"})

	actor := Actor{ID: 99, Role: "professor"}
	first, err := svc.Mark(context.Background(), 1, dto.AttendanceMarkRequest{StudentID: 7, Status: models.AttendanceStatusLate}, actor)
	require.NoError(t, err)

	second, err := svc.Mark(context.Background(), 1, dto.AttendanceMarkRequest{StudentID: 7, Status: models.AttendanceStatusPresent}, actor)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, models.AttendanceStatusPresent, second.Status)

	session, err := attendance.GetSessionByID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, session.Records, 1)
	require.Len(t, activity.entries, 2)
}

func TestMarkRejectsInvalidStatus(t *testing.T) {
	sessions := sessionsFor(1, map[uint]string{})
	sessions[0].Class = models.Class{ID: 1, ProfessorID: 99}
	svc, _, classes, _ := newAttendanceFixture(t, sessions)
	classes.enroll(1, models.Student{ID: 7})

	_, err := svc.Mark(context.Background(), 1, dto.AttendanceMarkRequest{StudentID: 7, Status: "vacation"}, Actor{ID: 99, Role: "professor"})
	require.ErrorIs(t, err, ErrInvalidAttendanceStatus)
}

func TestMarkRejectsUnenrolledStudent(t *testing.T) {
	sessions := sessionsFor(1, map[uint]string{})
	sessions[0].Class = models.Class{ID: 1, ProfessorID: 99}
	svc, _, _, _ := newAttendanceFixture(t, sessions)

	_, err := svc.Mark(context.Background(), 1, dto.AttendanceMarkRequest{StudentID: 7, Status: models.AttendanceStatusPresent}, Actor{ID: 99, Role: "professor"})
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestMarkRequiresClassOwnership(t *testing.T) {
	sessions := sessionsFor(1, map[uint]string{})
	sessions[0].Class = models.Class{ID: 1, ProfessorID: 99}
	svc, _, classes, _ := newAttendanceFixture(t, sessions)
	classes.enroll(1, models.Student{ID: 7})

	_, err := svc.Mark(context.Background(), 1, dto.AttendanceMarkRequest{StudentID: 7, Status: models.AttendanceStatusPresent}, Actor{ID: 5, Role: "professor"})
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestClassSummaryRanksStudents(t *testing.T) {
	sessions := sessionsFor(1,
		map[uint]string{2: models.AttendanceStatusPresent, 5: models.AttendanceStatusPresent, 9: models.AttendanceStatusAbsent},
		map[uint]string{2: models.AttendanceStatusPresent, 5: models.AttendanceStatusPresent, 9: models.AttendanceStatusLate},
	)
	svc, _, classes, _ := newAttendanceFixture(t, sessions)
	classes.enroll(1, models.Student{ID: 9, Name: "Ana"})
	classes.enroll(1, models.Student{ID: 5, Name: "Ben"})
	classes.enroll(1, models.Student{ID: 2, Name: "Cleo"})

	summary, err := svc.ClassSummary(context.Background(), 1, dto.AttendanceRateOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalSessions)
	require.Len(t, summary.Students, 3)

	// Perfect attendance ties break on ascending student id.
	require.Equal(t, uint(2), summary.Students[0].StudentID)
	require.Equal(t, uint(5), summary.Students[1].StudentID)
	require.Equal(t, uint(9), summary.Students[2].StudentID)
	require.Equal(t, 25.0, summary.Students[2].Rate)

	// Pooled: (4 present + 1 late*0.5) / 6 marks = 75%.
	require.Equal(t, 75.0, summary.PooledRate)
	// Mean of per-student rates: (100 + 100 + 25) / 3 = 75.
	require.Equal(t, 75.0, summary.MeanRate)
}

func TestCreateSessionRequiresOwnership(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t, nil)

	_, err := svc.CreateSession(context.Background(), dto.AttendanceSessionCreateRequest{ClassID: 1, Date: time.Now()}, Actor{ID: 5, Role: "professor"})
	require.ErrorIs(t, err, ErrAccessDenied)

	session, err := svc.CreateSession(context.Background(), dto.AttendanceSessionCreateRequest{ClassID: 1, Date: time.Now()}, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.NotZero(t, session.ID)
}
