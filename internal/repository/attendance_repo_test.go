package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classhub/scoring-api/internal/models"
)

func TestAttendanceRepositoryUpsertRecordUpdatesExistingMark(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	session := models.AttendanceSession{ClassID: 1, Date: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.CreateSession(ctx, &session))

	first := models.AttendanceRecord{SessionID: session.ID, StudentID: 7, Status: models.AttendanceStatusAbsent, MarkedBy: 99}
	require.NoError(t, repo.UpsertRecord(ctx, &first))

	second := models.AttendanceRecord{SessionID: session.ID, StudentID: 7, Status: models.AttendanceStatusPresent, MarkedBy: 99}
	require.NoError(t, repo.UpsertRecord(ctx, &second))

	stored, err := repo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored.Records, 1)
	require.Equal(t, models.AttendanceStatusPresent, stored.Records[0].Status)
}

func TestAttendanceRepositoryListSessionsFiltersByDateRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
	}
	for _, date := range dates {
		session := models.AttendanceSession{ClassID: 1, Date: date}
		require.NoError(t, repo.CreateSession(ctx, &session))
	}
	other := models.AttendanceSession{ClassID: 2, Date: dates[0]}
	require.NoError(t, repo.CreateSession(ctx, &other))

	from := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	sessions, err := repo.ListSessions(ctx, AttendanceSessionFilter{ClassID: 1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.True(t, sessions[0].Date.Equal(dates[1]))

	sessions, err = repo.ListSessions(ctx, AttendanceSessionFilter{ClassID: 1})
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	require.True(t, sessions[0].Date.Before(sessions[1].Date), "expected ascending date order")
}
