package dto

import (
	"time"

	"github.com/classhub/scoring-api/internal/models"
)

// AttendanceSessionCreateRequest opens an attendance session for a class date.
type AttendanceSessionCreateRequest struct {
	ClassID uint      `json:"class_id" validate:"required,gt=0"`
	Date    time.Time `json:"date" validate:"required"`
}

// AttendanceMarkRequest records one student's status for a session.
// Status values are checked in the service so an unknown status surfaces
// as ErrInvalidAttendanceStatus rather than a generic validation failure.
type AttendanceMarkRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required"`
}

// AttendanceRateOptions narrows the sessions considered when computing rates.
type AttendanceRateOptions struct {
	From            *time.Time `query:"from"`
	To              *time.Time `query:"to"`
	IncludeUnmarked bool       `query:"include_unmarked"`
}

// AttendanceRecordResponse mirrors a single stored attendance mark.
type AttendanceRecordResponse struct {
	ID        uint      `json:"id"`
	SessionID uint      `json:"session_id"`
	StudentID uint      `json:"student_id"`
	Status    string    `json:"status"`
	MarkedBy  uint      `json:"marked_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AttendanceSessionResponse mirrors an attendance session with its marks.
type AttendanceSessionResponse struct {
	ID      uint                       `json:"id"`
	ClassID uint                       `json:"class_id"`
	Date    time.Time                  `json:"date"`
	Records []AttendanceRecordResponse `json:"records"`
}

// AttendanceRateResponse aggregates one student's marks and weighted rate.
type AttendanceRateResponse struct {
	StudentID     uint    `json:"student_id"`
	StudentName   string  `json:"student_name,omitempty"`
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Late          int     `json:"late"`
	Excused       int     `json:"excused"`
	NotMarked     int     `json:"not_marked"`
	TotalSessions int     `json:"total_sessions"`
	Rate          float64 `json:"rate"`
}

// ClassAttendanceSummaryResponse ranks a class's students by participation.
type ClassAttendanceSummaryResponse struct {
	ClassID       uint                     `json:"class_id"`
	TotalSessions int                      `json:"total_sessions"`
	PooledRate    float64                  `json:"pooled_rate"`
	MeanRate      float64                  `json:"mean_rate"`
	Students      []AttendanceRateResponse `json:"students"`
}

// NewAttendanceRecordResponse converts an AttendanceRecord model into a DTO.
func NewAttendanceRecordResponse(model models.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		ID:        model.ID,
		SessionID: model.SessionID,
		StudentID: model.StudentID,
		Status:    model.Status,
		MarkedBy:  model.MarkedBy,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewAttendanceSessionResponse converts an AttendanceSession model into a DTO.
func NewAttendanceSessionResponse(model models.AttendanceSession) AttendanceSessionResponse {
	records := make([]AttendanceRecordResponse, 0, len(model.Records))
	for _, record := range model.Records {
		records = append(records, NewAttendanceRecordResponse(record))
	}

	return AttendanceSessionResponse{
		ID:      model.ID,
		ClassID: model.ClassID,
		Date:    model.Date,
		Records: records,
	}
}
