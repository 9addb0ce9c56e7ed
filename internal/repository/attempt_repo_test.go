package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/classhub/scoring-api/internal/models"
)

func TestAttemptRepositoryCountByAssessmentAndStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		attempt := models.Attempt{AssessmentID: 1, StudentID: 7, StartedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, &attempt))
	}
	other := models.Attempt{AssessmentID: 1, StudentID: 8, StartedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &other))

	count, err := repo.CountByAssessmentAndStudent(ctx, 1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountByAssessmentAndStudent(ctx, 2, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestAttemptRepositoryGetByIDPreloadsAnswers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	attempt := models.Attempt{AssessmentID: 1, StudentID: 7, StartedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &attempt))
	require.NoError(t, repo.CreateAnswers(ctx, []models.Answer{
		{AttemptID: attempt.ID, QuestionID: 10, SelectedOptions: datatypes.NewJSONSlice([]uint{101}), IsCorrect: true, Points: 2},
		{AttemptID: attempt.ID, QuestionID: 11, TextAnswer: "normal forms"},
	}))

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 2)
	require.Equal(t, []uint{101}, []uint(stored.Answers[0].SelectedOptions))
}

func TestAttemptRepositoryCreateAnswersAcceptsEmptySlice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	require.NoError(t, repo.CreateAnswers(context.Background(), nil))
}

func TestAttemptRepositoryListByStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	completed := time.Now()
	first := models.Attempt{AssessmentID: 1, StudentID: 7, Score: 4, TotalPoints: 10, StartedAt: time.Now().Add(-time.Hour), CompletedAt: &completed}
	second := models.Attempt{AssessmentID: 1, StudentID: 7, Score: 9, TotalPoints: 10, StartedAt: time.Now()}
	foreign := models.Attempt{AssessmentID: 1, StudentID: 8, StartedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.Create(ctx, &foreign))

	attempts, err := repo.ListByStudent(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, 4.0, attempts[0].Score)
	require.Equal(t, 9.0, attempts[1].Score)
}
