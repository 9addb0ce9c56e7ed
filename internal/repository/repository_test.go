package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.Enrollment{},
		&models.Assessment{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.Answer{},
		&models.Assignment{},
		&models.Submission{},
		&models.AttendanceSession{},
		&models.AttendanceRecord{},
	))
	return db
}

func uintPtr(v uint) *uint {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
