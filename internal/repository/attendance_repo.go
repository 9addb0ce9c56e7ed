package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classhub/scoring-api/internal/models"
)

// AttendanceSessionFilter narrows session queries to a class and optional date range.
type AttendanceSessionFilter struct {
	ClassID uint
	From    *time.Time
	To      *time.Time
}

// AttendanceRepository defines data operations for attendance sessions and records.
type AttendanceRepository interface {
	GetSessionByID(ctx context.Context, id uint) (models.AttendanceSession, error)
	ListSessions(ctx context.Context, filter AttendanceSessionFilter) ([]models.AttendanceSession, error)
	CreateSession(ctx context.Context, session *models.AttendanceSession) error
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) GetSessionByID(ctx context.Context, id uint) (models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := r.db.WithContext(ctx).
		Preload("Records").
		Preload("Class").
		First(&session, id).Error
	if err != nil {
		return models.AttendanceSession{}, err
	}
	return session, nil
}

func (r *attendanceRepository) ListSessions(ctx context.Context, filter AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	query := r.db.WithContext(ctx).
		Preload("Records").
		Where("class_id = ?", filter.ClassID)

	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}

	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var sessions []models.AttendanceSession
	if err := query.Order("date ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *attendanceRepository) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// UpsertRecord inserts the mark or, when the (session, student) row already
// exists, updates its status. The unique index makes the write atomic.
func (r *attendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "marked_by", "updated_at"}),
	}).Create(record).Error
}
