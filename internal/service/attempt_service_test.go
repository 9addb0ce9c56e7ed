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

func quizFixture() models.Assessment {
	return models.Assessment{
		ID:          1,
		ClassID:     1,
		ProfessorID: 99,
		Title:       "Unit 3 Quiz",
		Status:      models.AssessmentStatusPublished,
		MaxAttempts: 2,
		Questions: []models.Question{
			{
				ID: 10, AssessmentID: 1, Type: models.QuestionTypeMultipleChoice, Text: "Pick one", Points: 2,
				Options: []models.Option{
					{ID: 101, QuestionID: 10, Text: "right", IsCorrect: true},
					{ID: 102, QuestionID: 10, Text: "wrong"},
				},
			},
			{
				ID: 11, AssessmentID: 1, Type: models.QuestionTypeTrueFalse, Text: "True or false", Points: 1,
				Options: []models.Option{
					{ID: 111, QuestionID: 11, Text: "true", IsCorrect: true},
					{ID: 112, QuestionID: 11, Text: "false"},
				},
			},
			{
				ID: 12, AssessmentID: 1, Type: models.QuestionTypeMultipleSelection, Text: "Pick all that apply", Points: 3,
				Options: []models.Option{
					{ID: 121, QuestionID: 12, Text: "a", IsCorrect: true},
					{ID: 122, QuestionID: 12, Text: "b", IsCorrect: true},
					{ID: 123, QuestionID: 12, Text: "c"},
				},
			},
			{
				ID: 13, AssessmentID: 1, Type: models.QuestionTypeShortAnswer, Text: "Explain", Points: 4,
			},
		},
	}
}

func newAttemptFixtureService(t *testing.T) (AttemptService, *fakeAttemptRepo, *fakeNotifier) {
	t.Helper()
	attempts := newFakeAttemptRepo()
	assessments := newFakeAssessmentRepo(quizFixture())
	notifier := &fakeNotifier{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewAttemptService(attempts, assessments, validate, notifier, testLogger())
	return svc, attempts, notifier
}

func TestAttemptStartEnforcesLimit(t *testing.T) {
	svc, _, _ := newAttemptFixtureService(t)
	actor := Actor{ID: 7, Role: "student"}

	_, err := svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), 1, actor)
	require.ErrorIs(t, err, ErrAttemptLimitExceeded)
	require.Contains(t, err.Error(), "limit of 2 attempts")
}

func TestAttemptStartRejectsUnpublished(t *testing.T) {
	draft := quizFixture()
	draft.Status = models.AssessmentStatusDraft
	attempts := newFakeAttemptRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewAttemptService(attempts, newFakeAssessmentRepo(draft), validate, nil, testLogger())

	_, err := svc.Start(context.Background(), 1, Actor{ID: 7, Role: "student"})
	require.ErrorIs(t, err, ErrAssessmentNotOpen)
}

func TestAttemptSubmitScoresAllQuestionTypes(t *testing.T) {
	svc, attempts, notifier := newAttemptFixtureService(t)
	actor := Actor{ID: 7, Role: "student"}

	started, err := svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)

	startedAt := time.Now().Add(-90 * time.Second)
	result, err := svc.Submit(context.Background(), started.ID, dto.AttemptSubmitRequest{
		StartedAt: timePtr(startedAt),
		Answers: []dto.AnswerSubmission{
			{QuestionID: 10, SelectedOptions: []uint{101}},
			{QuestionID: 11, SelectedOptions: []uint{112}},
			{QuestionID: 12, SelectedOptions: []uint{121, 122}},
			{QuestionID: 13, TextAnswer: "short essay"},
		},
	}, actor)
	require.NoError(t, err)

	// multiple choice 2 + true/false 0 + multiple selection 3 + short answer 0
	require.Equal(t, 5.0, result.Score)
	require.Equal(t, 10.0, result.TotalPossible)
	require.InDelta(t, 50.0, result.Percentage, 0.001)
	require.NotNil(t, result.TimeSpent)
	require.GreaterOrEqual(t, *result.TimeSpent, 90)
	require.Len(t, attempts.answers, 4)
	require.Equal(t, []string{"attempt.completed"}, notifier.events)
}

func TestAttemptSubmitMultipleSelectionIsAllOrNothing(t *testing.T) {
	svc, _, _ := newAttemptFixtureService(t)
	actor := Actor{ID: 7, Role: "student"}

	started, err := svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)

	// A strict subset of the correct options earns zero.
	result, err := svc.Submit(context.Background(), started.ID, dto.AttemptSubmitRequest{
		Answers: []dto.AnswerSubmission{
			{QuestionID: 12, SelectedOptions: []uint{121}},
		},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Score)
}

func TestAttemptSubmitRejectsDoubleSubmit(t *testing.T) {
	svc, _, _ := newAttemptFixtureService(t)
	actor := Actor{ID: 7, Role: "student"}

	started, err := svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)

	payload := dto.AttemptSubmitRequest{
		Answers: []dto.AnswerSubmission{{QuestionID: 10, SelectedOptions: []uint{101}}},
	}
	first, err := svc.Submit(context.Background(), started.ID, payload, actor)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), started.ID, payload, actor)
	require.ErrorIs(t, err, ErrAttemptAlreadyCompleted)

	// The stored result is unchanged by the rejected submit.
	again, err := svc.Stats(context.Background(), 1, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.Equal(t, 1, again.CompletedAttempts)
	require.NotNil(t, again.HighestScore)
	require.Equal(t, first.Score, *again.HighestScore)
}

func TestAttemptSubmitIgnoresUnknownQuestions(t *testing.T) {
	svc, attempts, _ := newAttemptFixtureService(t)
	actor := Actor{ID: 7, Role: "student"}

	started, err := svc.Start(context.Background(), 1, actor)
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), started.ID, dto.AttemptSubmitRequest{
		Answers: []dto.AnswerSubmission{
			{QuestionID: 999, SelectedOptions: []uint{1}},
			{QuestionID: 10, SelectedOptions: []uint{101}},
		},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 2.0, result.Score)
	require.Len(t, attempts.answers, 1)
}

func TestAttemptSubmitDeniesForeignAttempt(t *testing.T) {
	svc, _, _ := newAttemptFixtureService(t)

	started, err := svc.Start(context.Background(), 1, Actor{ID: 7, Role: "student"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), started.ID, dto.AttemptSubmitRequest{
		Answers: []dto.AnswerSubmission{{QuestionID: 10, SelectedOptions: []uint{101}}},
	}, Actor{ID: 8, Role: "student"})
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestAttemptStatsAggregatesStoredScores(t *testing.T) {
	svc, attempts, _ := newAttemptFixtureService(t)

	now := time.Now()
	for i, score := range []float64{40, 60, 80, 100} {
		attempt := models.Attempt{
			AssessmentID: 1,
			StudentID:    uint(20 + i),
			Score:        score,
			TotalPoints:  100,
			StartedAt:    now.Add(-time.Hour),
			CompletedAt:  timePtr(now),
		}
		require.NoError(t, attempts.Create(context.Background(), &attempt))
	}
	// One abandoned attempt drags the completion rate, not the average.
	open := models.Attempt{AssessmentID: 1, StudentID: 30, StartedAt: now}
	require.NoError(t, attempts.Create(context.Background(), &open))

	stats, err := svc.Stats(context.Background(), 1, Actor{ID: 99, Role: "professor"})
	require.NoError(t, err)
	require.Equal(t, 5, stats.TotalAttempts)
	require.Equal(t, 4, stats.CompletedAttempts)
	require.InDelta(t, 80.0, stats.CompletionRate, 0.001)
	require.InDelta(t, 70.0, stats.AverageScore, 0.001)
	require.Equal(t, 100.0, *stats.HighestScore)
	require.Equal(t, 40.0, *stats.LowestScore)
}

func TestAttemptStatsRequiresOwnership(t *testing.T) {
	svc, _, _ := newAttemptFixtureService(t)

	_, err := svc.Stats(context.Background(), 1, Actor{ID: 1, Role: "professor"})
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Stats(context.Background(), 1, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
}
