package examsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/repository"
)

// Service handles exam batch, session, and attendance operations.
type Service struct {
	batches  BatchRepository
	sessions SessionRepository
	activity *activity.Service
	logger   *slog.Logger
}

// NewService creates a new exam session service.
func NewService(batches BatchRepository, sessions SessionRepository, activitySvc *activity.Service, logger *slog.Logger) *Service {
	return &Service{batches: batches, sessions: sessions, activity: activitySvc, logger: logger}
}

// CreateBatchRequest describes a new exam batch.
type CreateBatchRequest struct {
	Name     string
	StartsOn time.Time
	EndsOn   time.Time
}

// CreateBatch registers an exam period.
func (s *Service) CreateBatch(ctx context.Context, req CreateBatchRequest) (*Batch, error) {
	if req.Name == "" {
		return nil, ErrInvalidInput
	}
	b := &Batch{
		ID:        uuid.NewString(),
		Name:      req.Name,
		StartsOn:  req.StartsOn,
		EndsOn:    req.EndsOn,
		CreatedAt: time.Now(),
	}
	if err := s.batches.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("creating batch: %w", err)
	}
	return b, nil
}

// ListBatches returns all batches.
func (s *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	return s.batches.List(ctx)
}

// CreateSessionRequest describes a new exam session.
type CreateSessionRequest struct {
	BatchID    string
	CourseCode string
	Title      string
	Venue      string
	StartsAt   time.Time
	EndsAt     time.Time
}

// CreateSession schedules a session inside a batch.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*ExamSession, error) {
	if req.BatchID == "" || req.CourseCode == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.batches.Get(ctx, req.BatchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("loading batch: %w", err)
	}

	sess := &ExamSession{
		ID:         uuid.NewString(),
		BatchID:    req.BatchID,
		CourseCode: req.CourseCode,
		Title:      req.Title,
		Venue:      req.Venue,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Status:     StatusScheduled,
		CreatedAt:  time.Now(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*ExamSession, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// ListByBatch returns sessions inside a batch.
func (s *Service) ListByBatch(ctx context.Context, batchID string) ([]ExamSession, error) {
	return s.sessions.ListByBatch(ctx, batchID)
}

// List returns sessions filtered by status.
func (s *Service) List(ctx context.Context, statuses []Status) ([]ExamSession, error) {
	return s.sessions.List(ctx, statuses)
}

// OpenSession transitions a scheduled session to active.
func (s *Service) OpenSession(ctx context.Context, actorID, id string) (*ExamSession, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}
	sess.Status = StatusActive
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	s.logActivity(ctx, activity.KindSessionOpened, actorID, sess.ID,
		fmt.Sprintf("session %s opened at %s", sess.CourseCode, sess.Venue))
	return sess, nil
}

// CloseSession finalizes a session; further attendance marks are rejected.
func (s *Service) CloseSession(ctx context.Context, actorID, id string) (*ExamSession, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess.Status = StatusClosed
	sess.ClosedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	s.logActivity(ctx, activity.KindSessionClosed, actorID, sess.ID,
		fmt.Sprintf("session %s closed", sess.CourseCode))
	return sess, nil
}

// AddToRoster registers a student for a session.
func (s *Service) AddToRoster(ctx context.Context, sessionID, studentID string) error {
	if sessionID == "" || studentID == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.AddToRoster(ctx, sessionID, studentID); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("adding to roster: %w", err)
	}
	return nil
}

// Roster returns registered students with any attendance marks.
func (s *Service) Roster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.sessions.Roster(ctx, sessionID)
}

// MarkAttendanceRequest describes an attendance mark.
type MarkAttendanceRequest struct {
	SessionID string
	StudentID string
	Status    AttendanceStatus
	MarkedBy  string
}

// MarkAttendance upserts an attendance record; the latest mark wins.
// Marks against a closed session are rejected.
func (s *Service) MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (*AttendanceRecord, error) {
	switch req.Status {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
	default:
		return nil, ErrInvalidInput
	}

	sess, err := s.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}

	rec := &AttendanceRecord{
		SessionID: req.SessionID,
		StudentID: req.StudentID,
		Status:    req.Status,
		MarkedBy:  req.MarkedBy,
		MarkedAt:  time.Now(),
	}
	if err := s.sessions.MarkAttendance(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrNotOnRoster
		}
		return nil, fmt.Errorf("marking attendance: %w", err)
	}
	s.logActivity(ctx, activity.KindAttendanceMarked, req.MarkedBy, req.SessionID,
		fmt.Sprintf("attendance %s for student %s", req.Status, req.StudentID))
	return rec, nil
}

// BatchProgress summarizes session and attendance counts for a batch.
func (s *Service) BatchProgress(ctx context.Context, batchID string) (*BatchProgress, error) {
	if _, err := s.batches.Get(ctx, batchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	return s.sessions.BatchProgress(ctx, batchID)
}

func (s *Service) logActivity(ctx context.Context, kind activity.Kind, actorID, sessionID, summary string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Log(ctx, &activity.Entry{
		SessionID: &sessionID,
		ActorID:   actorID,
		Kind:      kind,
		Summary:   summary,
	})
	if err != nil {
		s.logger.Warn("activity log failed", "kind", kind, "error", err)
	}
}
