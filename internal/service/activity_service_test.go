package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Professor",
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email": "student@example.com",
			"grade": 87.5,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, 87.5, entry.Metadata["grade"])
	require.Equal(t, "professor", entry.ActorRole)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "submission"})
	require.Error(t, err)
	require.Empty(t, repo.entries)
}

func ptrUint(v uint) *uint {
	return &v
}
