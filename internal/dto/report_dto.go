package dto

import "time"

// AssignmentSummary aggregates submission progress for one assignment.
type AssignmentSummary struct {
	AssignmentID uint    `json:"assignment_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Submissions  int     `json:"submissions"`
	Ungraded     int     `json:"ungraded"`
	AverageGrade float64 `json:"average_grade"`
}

// ClassReportResponse is the professor-facing dashboard projection of a class.
type ClassReportResponse struct {
	ClassID          uint                           `json:"class_id"`
	ClassName        string                         `json:"class_name"`
	EnrolledStudents int                            `json:"enrolled_students"`
	Assessments      []AssessmentStatsResponse      `json:"assessments"`
	Assignments      []AssignmentSummary            `json:"assignments"`
	Attendance       ClassAttendanceSummaryResponse `json:"attendance"`
	GeneratedAt      time.Time                      `json:"generated_at"`
	CacheHit         bool                           `json:"cache_hit"`
}

// StudentAssessmentDetail shows a student's best result on one assessment.
type StudentAssessmentDetail struct {
	AssessmentID   uint     `json:"assessment_id"`
	Title          string   `json:"title"`
	MaxAttempts    int      `json:"max_attempts"`
	AttemptsUsed   int      `json:"attempts_used"`
	BestScore      *float64 `json:"best_score"`
	BestPercentage *float64 `json:"best_percentage"`
}

// StudentReportResponse summarizes one student's standing in a class.
type StudentReportResponse struct {
	ClassID     uint                      `json:"class_id"`
	StudentID   uint                      `json:"student_id"`
	Assessments []StudentAssessmentDetail `json:"assessments"`
	Submissions []SubmissionResponse      `json:"submissions"`
	Attendance  AttendanceRateResponse    `json:"attendance"`
	GeneratedAt time.Time                 `json:"generated_at"`
}
