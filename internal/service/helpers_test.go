package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeAssessmentRepo struct {
	assessments map[uint]models.Assessment
}

func newFakeAssessmentRepo(assessments ...models.Assessment) *fakeAssessmentRepo {
	repo := &fakeAssessmentRepo{assessments: map[uint]models.Assessment{}}
	for _, assessment := range assessments {
		repo.assessments[assessment.ID] = assessment
	}
	return repo
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	assessment, ok := f.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) ListByClass(ctx context.Context, classID uint) ([]models.Assessment, error) {
	var result []models.Assessment
	for _, assessment := range f.assessments {
		if assessment.ClassID == classID {
			result = append(result, assessment)
		}
	}
	return result, nil
}

func (f *fakeAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == 0 {
		assessment.ID = uint(len(f.assessments) + 1)
	}
	f.assessments[assessment.ID] = *assessment
	return nil
}

func (f *fakeAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	f.assessments[assessment.ID] = *assessment
	return nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[uint]models.Attempt
	answers  []models.Answer
	nextID   uint
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: map[uint]models.Attempt{}, nextID: 1}
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, id uint) (models.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok {
		return models.Attempt{}, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (f *fakeAttemptRepo) CountByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := int64(0)
	for _, attempt := range f.attempts {
		if attempt.AssessmentID == assessmentID && attempt.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptRepo) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Attempt
	for _, attempt := range f.attempts {
		if attempt.AssessmentID == assessmentID {
			result = append(result, attempt)
		}
	}
	return result, nil
}

func (f *fakeAttemptRepo) ListByStudent(ctx context.Context, assessmentID, studentID uint) ([]models.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Attempt
	for _, attempt := range f.attempts {
		if attempt.AssessmentID == assessmentID && attempt.StudentID == studentID {
			result = append(result, attempt)
		}
	}
	return result, nil
}

func (f *fakeAttemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = f.nextID
	f.nextID++
	f.attempts[attempt.ID] = *attempt
	return nil
}

func (f *fakeAttemptRepo) Update(ctx context.Context, attempt *models.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[attempt.ID] = *attempt
	return nil
}

func (f *fakeAttemptRepo) CreateAnswers(ctx context.Context, answers []models.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answers...)
	return nil
}

type fakeClassRepo struct {
	classes     map[uint]models.Class
	enrollments map[uint][]uint
	students    map[uint]models.Student
}

func newFakeClassRepo(classes ...models.Class) *fakeClassRepo {
	repo := &fakeClassRepo{
		classes:     map[uint]models.Class{},
		enrollments: map[uint][]uint{},
		students:    map[uint]models.Student{},
	}
	for _, class := range classes {
		repo.classes[class.ID] = class
	}
	return repo
}

func (f *fakeClassRepo) enroll(classID uint, student models.Student) {
	f.students[student.ID] = student
	f.enrollments[classID] = append(f.enrollments[classID], student.ID)
}

func (f *fakeClassRepo) GetByID(ctx context.Context, id uint) (models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (f *fakeClassRepo) IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error) {
	for _, id := range f.enrollments[classID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClassRepo) ListEnrolledStudents(ctx context.Context, classID uint) ([]models.Student, error) {
	var result []models.Student
	for _, id := range f.enrollments[classID] {
		result = append(result, f.students[id])
	}
	return result, nil
}

func (f *fakeClassRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	f.enrollments[enrollment.ClassID] = append(f.enrollments[enrollment.ClassID], enrollment.StudentID)
	return nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uint]models.Submission
	assignments map[uint]models.Assignment
	nextID      uint
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		submissions: map[uint]models.Submission{},
		assignments: map[uint]models.Assignment{},
		nextID:      1,
	}
}

func (f *fakeSubmissionRepo) withAssignment(sub models.Submission) models.Submission {
	if assignment, ok := f.assignments[sub.AssignmentID]; ok {
		sub.Assignment = assignment
	}
	return sub
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Submission
	for _, sub := range f.submissions {
		if filter.AssignmentID != nil && sub.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && sub.StudentID != *filter.StudentID {
			continue
		}
		if filter.Ungraded && sub.Grade != nil {
			continue
		}
		result = append(result, f.withAssignment(sub))
	}
	return result, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return f.withAssignment(sub), nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return f.withAssignment(sub), nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) CountUngraded(ctx context.Context, assignmentID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := int64(0)
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID && sub.Grade == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	submission.ID = f.nextID
	f.nextID++
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[submission.ID] = *submission
	return nil
}

type fakeAttendanceRepo struct {
	sessions map[uint]models.AttendanceSession
	upserts  []models.AttendanceRecord
}

func newFakeAttendanceRepo(sessions ...models.AttendanceSession) *fakeAttendanceRepo {
	repo := &fakeAttendanceRepo{sessions: map[uint]models.AttendanceSession{}}
	for _, session := range sessions {
		repo.sessions[session.ID] = session
	}
	return repo
}

func (f *fakeAttendanceRepo) GetSessionByID(ctx context.Context, id uint) (models.AttendanceSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return models.AttendanceSession{}, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (f *fakeAttendanceRepo) ListSessions(ctx context.Context, filter repository.AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	var result []models.AttendanceSession
	for _, session := range f.sessions {
		if session.ClassID != filter.ClassID {
			continue
		}
		if filter.From != nil && session.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && session.Date.After(*filter.To) {
			continue
		}
		result = append(result, session)
	}
	return result, nil
}

func (f *fakeAttendanceRepo) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == 0 {
		session.ID = uint(len(f.sessions) + 1)
	}
	f.sessions[session.ID] = *session
	return nil
}

func (f *fakeAttendanceRepo) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	session, ok := f.sessions[record.SessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	replaced := false
	for i, existing := range session.Records {
		if existing.StudentID == record.StudentID {
			record.ID = existing.ID
			session.Records[i] = *record
			replaced = true
			break
		}
	}
	if !replaced {
		record.ID = uint(len(session.Records) + 1)
		session.Records = append(session.Records, *record)
	}
	f.sessions[record.SessionID] = session
	f.upserts = append(f.upserts, *record)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uint, eventType, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	f.uploads = append(f.uploads, name)
	return "https://cdn.example.com/" + strings.ReplaceAll(name, " ", "-"), nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
