package models

import "time"

const (
	// AttendanceStatusPresent contributes full weight to the attendance rate.
	AttendanceStatusPresent = "present"
	// AttendanceStatusAbsent contributes no weight to the attendance rate.
	AttendanceStatusAbsent = "absent"
	// AttendanceStatusLate contributes half weight to the attendance rate.
	AttendanceStatusLate = "late"
	// AttendanceStatusExcused contributes three-quarter weight to the attendance rate.
	AttendanceStatusExcused = "excused"
)

// ValidAttendanceStatus reports whether the status is one of the known marks.
func ValidAttendanceStatus(status string) bool {
	switch status {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	}
	return false
}

// AttendanceSession is one dated roll call for a class.
type AttendanceSession struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	ClassID   uint               `gorm:"not null;index" json:"class_id"`
	Date      time.Time          `gorm:"not null" json:"date"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Records   []AttendanceRecord `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"records"`
	Class     Class              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
}

// RecordFor returns the record for the given student, if one exists.
// A student with no record is "not marked", which is distinct from absent.
func (s AttendanceSession) RecordFor(studentID uint) (AttendanceRecord, bool) {
	for _, record := range s.Records {
		if record.StudentID == studentID {
			return record, true
		}
	}
	return AttendanceRecord{}, false
}

// AttendanceRecord marks one student's status for one session. The unique
// index gives marking upsert semantics: marking twice updates, not duplicates.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_attendance_session_student" json:"session_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_attendance_session_student" json:"student_id"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	MarkedBy  uint      `gorm:"not null" json:"marked_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
