package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
)

// StudentRepository is a mock for student.Repository.
type StudentRepository struct {
	mock.Mock
}

func (m *StudentRepository) Create(ctx context.Context, st *student.Student) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *StudentRepository) Get(ctx context.Context, id string) (*student.Student, error) {
	args := m.Called(ctx, id)
	if st, ok := args.Get(0).(*student.Student); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentRepository) GetByIndexNumber(ctx context.Context, indexNumber string) (*student.Student, error) {
	args := m.Called(ctx, indexNumber)
	if st, ok := args.Get(0).(*student.Student); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentRepository) List(ctx context.Context, limit, offset int) ([]student.Student, error) {
	args := m.Called(ctx, limit, offset)
	if list, ok := args.Get(0).([]student.Student); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentRepository) ListIndexNumbers(ctx context.Context) ([]student.Suggestion, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]student.Suggestion); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// BatchRepository is a mock for examsession.BatchRepository.
type BatchRepository struct {
	mock.Mock
}

func (m *BatchRepository) Create(ctx context.Context, b *examsession.Batch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *BatchRepository) Get(ctx context.Context, id string) (*examsession.Batch, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(*examsession.Batch); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BatchRepository) List(ctx context.Context) ([]examsession.Batch, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]examsession.Batch); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionRepository is a mock for examsession.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *examsession.ExamSession) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*examsession.ExamSession, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*examsession.ExamSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *examsession.ExamSession) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) ListByBatch(ctx context.Context, batchID string) ([]examsession.ExamSession, error) {
	args := m.Called(ctx, batchID)
	if list, ok := args.Get(0).([]examsession.ExamSession); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) List(ctx context.Context, statuses []examsession.Status) ([]examsession.ExamSession, error) {
	args := m.Called(ctx, statuses)
	if list, ok := args.Get(0).([]examsession.ExamSession); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) AddToRoster(ctx context.Context, sessionID, studentID string) error {
	args := m.Called(ctx, sessionID, studentID)
	return args.Error(0)
}

func (m *SessionRepository) Roster(ctx context.Context, sessionID string) ([]examsession.RosterEntry, error) {
	args := m.Called(ctx, sessionID)
	if list, ok := args.Get(0).([]examsession.RosterEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) IsOnRoster(ctx context.Context, sessionID, studentID string) (bool, error) {
	args := m.Called(ctx, sessionID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) FindOnRoster(ctx context.Context, sessionID, indexNumber string) (*student.Student, error) {
	args := m.Called(ctx, sessionID, indexNumber)
	if st, ok := args.Get(0).(*student.Student); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) MarkAttendance(ctx context.Context, rec *examsession.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *SessionRepository) BatchProgress(ctx context.Context, batchID string) (*examsession.BatchProgress, error) {
	args := m.Called(ctx, batchID)
	if p, ok := args.Get(0).(*examsession.BatchProgress); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// IncidentRepository is a mock for incident.Repository.
type IncidentRepository struct {
	mock.Mock
}

func (m *IncidentRepository) Create(ctx context.Context, inc *incident.Incident) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}

func (m *IncidentRepository) Get(ctx context.Context, id string) (*incident.Incident, error) {
	args := m.Called(ctx, id)
	if inc, ok := args.Get(0).(*incident.Incident); ok {
		return inc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IncidentRepository) UpdateStatus(ctx context.Context, id string, status incident.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *IncidentRepository) List(ctx context.Context, opts incident.ListOptions) ([]incident.Summary, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]incident.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IncidentRepository) AddAttachment(ctx context.Context, att *attachment.Stored) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *IncidentRepository) Search(ctx context.Context, query string, limit int) ([]incident.Summary, error) {
	args := m.Called(ctx, query, limit)
	if list, ok := args.Get(0).([]incident.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User, tokenHash string) error {
	args := m.Called(ctx, u, tokenHash)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*user.User, error) {
	args := m.Called(ctx, tokenHash)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
