package examsession

import "context"

// BatchRepository provides persistence for exam batches.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	Get(ctx context.Context, id string) (*Batch, error)
	List(ctx context.Context) ([]Batch, error)
}

// SessionRepository provides persistence for exam sessions and rosters.
type SessionRepository interface {
	Create(ctx context.Context, sess *ExamSession) error
	Get(ctx context.Context, id string) (*ExamSession, error)
	Update(ctx context.Context, sess *ExamSession) error
	ListByBatch(ctx context.Context, batchID string) ([]ExamSession, error)
	List(ctx context.Context, statuses []Status) ([]ExamSession, error)
	AddToRoster(ctx context.Context, sessionID, studentID string) error
	Roster(ctx context.Context, sessionID string) ([]RosterEntry, error)
	MarkAttendance(ctx context.Context, rec *AttendanceRecord) error
	BatchProgress(ctx context.Context, batchID string) (*BatchProgress, error)
}
