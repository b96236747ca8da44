package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/repository"
)

// BatchRepository implements examsession.BatchRepository over SQLite
type BatchRepository struct {
	db *DB
}

var _ examsession.BatchRepository = (*BatchRepository)(nil)

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a batch
func (r *BatchRepository) Create(ctx context.Context, b *examsession.Batch) error {
	query := `INSERT INTO batches (id, name, starts_on, ends_on, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.StartsOn, b.EndsOn, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// Get retrieves a batch by ID
func (r *BatchRepository) Get(ctx context.Context, id string) (*examsession.Batch, error) {
	var b examsession.Batch
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, starts_on, ends_on, created_at FROM batches WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.StartsOn, &b.EndsOn, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &b, nil
}

// List returns all batches, newest first
func (r *BatchRepository) List(ctx context.Context) ([]examsession.Batch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, starts_on, ends_on, created_at FROM batches ORDER BY starts_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []examsession.Batch
	for rows.Next() {
		var b examsession.Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.StartsOn, &b.EndsOn, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// SessionRepository implements examsession.SessionRepository over SQLite
type SessionRepository struct {
	db *DB
}

var (
	_ examsession.SessionRepository = (*SessionRepository)(nil)
	_ student.RosterRepository      = (*SessionRepository)(nil)
)

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, batch_id, course_code, title, venue, starts_at, ends_at, status, created_at, closed_at`

// Create inserts an exam session
func (r *SessionRepository) Create(ctx context.Context, sess *examsession.ExamSession) error {
	query := `
		INSERT INTO exam_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		sess.ID, sess.BatchID, sess.CourseCode, sess.Title, sess.Venue,
		sess.StartsAt, sess.EndsAt, sess.Status, sess.CreatedAt, sess.ClosedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves an exam session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*examsession.ExamSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// Update rewrites the mutable fields of a session
func (r *SessionRepository) Update(ctx context.Context, sess *examsession.ExamSession) error {
	query := `
		UPDATE exam_sessions
		SET course_code = ?, title = ?, venue = ?, starts_at = ?, ends_at = ?,
		    status = ?, closed_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		sess.CourseCode, sess.Title, sess.Venue, sess.StartsAt, sess.EndsAt,
		sess.Status, sess.ClosedAt, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByBatch returns the sessions of a batch ordered by start time
func (r *SessionRepository) ListByBatch(ctx context.Context, batchID string) ([]examsession.ExamSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE batch_id = ? ORDER BY starts_at`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// List returns sessions filtered by status, ordered by start time
func (r *SessionRepository) List(ctx context.Context, statuses []examsession.Status) ([]examsession.ExamSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM exam_sessions`
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		query += fmt.Sprintf(" WHERE status IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY starts_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// AddToRoster registers a student for a session
func (r *SessionRepository) AddToRoster(ctx context.Context, sessionID, studentID string) error {
	query := `INSERT OR IGNORE INTO rosters (session_id, student_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, sessionID, studentID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add to roster: %w", err)
	}
	return nil
}

// Roster returns registered students with any attendance marks
func (r *SessionRepository) Roster(ctx context.Context, sessionID string) ([]examsession.RosterEntry, error) {
	query := `
		SELECT s.id, s.index_number, s.full_name, s.program, s.level, s.created_at,
		       a.status, a.marked_by, a.marked_at
		FROM rosters ro
		JOIN students s ON s.id = ro.student_id
		LEFT JOIN attendance a ON a.session_id = ro.session_id AND a.student_id = ro.student_id
		WHERE ro.session_id = ?
		ORDER BY s.index_number
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	var entries []examsession.RosterEntry
	for rows.Next() {
		var entry examsession.RosterEntry
		var status sql.NullString
		var markedBy sql.NullString
		var markedAt sql.NullTime
		err := rows.Scan(
			&entry.Student.ID, &entry.Student.IndexNumber, &entry.Student.FullName,
			&entry.Student.Program, &entry.Student.Level, &entry.Student.CreatedAt,
			&status, &markedBy, &markedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		if status.Valid {
			entry.Attendance = &examsession.AttendanceRecord{
				SessionID: sessionID,
				StudentID: entry.Student.ID,
				Status:    examsession.AttendanceStatus(status.String),
				MarkedBy:  markedBy.String,
				MarkedAt:  markedAt.Time,
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// IsOnRoster reports roster membership
func (r *SessionRepository) IsOnRoster(ctx context.Context, sessionID, studentID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rosters WHERE session_id = ? AND student_id = ?`,
		sessionID, studentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	return count > 0, nil
}

// FindOnRoster resolves an index number within a session's roster
func (r *SessionRepository) FindOnRoster(ctx context.Context, sessionID, indexNumber string) (*student.Student, error) {
	query := `
		SELECT s.id, s.index_number, s.full_name, s.program, s.level, s.created_at
		FROM rosters ro
		JOIN students s ON s.id = ro.student_id
		WHERE ro.session_id = ? AND s.index_number = ?
	`
	var st student.Student
	err := r.db.QueryRowContext(ctx, query, sessionID, indexNumber).Scan(
		&st.ID, &st.IndexNumber, &st.FullName, &st.Program, &st.Level, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search roster: %w", err)
	}
	return &st, nil
}

// MarkAttendance upserts an attendance record
func (r *SessionRepository) MarkAttendance(ctx context.Context, rec *examsession.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (session_id, student_id, status, marked_by, marked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, student_id) DO UPDATE SET
			status = excluded.status,
			marked_by = excluded.marked_by,
			marked_at = excluded.marked_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.SessionID, rec.StudentID, rec.Status, rec.MarkedBy, rec.MarkedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to mark attendance: %w", err)
	}
	return nil
}

// BatchProgress aggregates session and attendance counts across a batch
func (r *SessionRepository) BatchProgress(ctx context.Context, batchID string) (*examsession.BatchProgress, error) {
	progress := &examsession.BatchProgress{BatchID: batchID}

	query := `
		SELECT
			COUNT(CASE WHEN status = 'scheduled' THEN 1 END),
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN status = 'closed' THEN 1 END)
		FROM exam_sessions WHERE batch_id = ?
	`
	err := r.db.QueryRowContext(ctx, query, batchID).Scan(
		&progress.Scheduled, &progress.Active, &progress.Closed)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	query = `
		SELECT
			(SELECT COUNT(*) FROM rosters ro
			 JOIN exam_sessions es ON es.id = ro.session_id
			 WHERE es.batch_id = ?),
			(SELECT COUNT(*) FROM attendance a
			 JOIN exam_sessions es ON es.id = a.session_id
			 WHERE es.batch_id = ?),
			(SELECT COUNT(*) FROM attendance a
			 JOIN exam_sessions es ON es.id = a.session_id
			 WHERE es.batch_id = ? AND a.status = 'present')
	`
	err = r.db.QueryRowContext(ctx, query, batchID, batchID, batchID).Scan(
		&progress.Registered, &progress.MarkedTotal, &progress.PresentTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}

	return progress, nil
}

func scanSession(row *sql.Row) (*examsession.ExamSession, error) {
	var sess examsession.ExamSession
	var closedAt sql.NullTime
	err := row.Scan(
		&sess.ID, &sess.BatchID, &sess.CourseCode, &sess.Title, &sess.Venue,
		&sess.StartsAt, &sess.EndsAt, &sess.Status, &sess.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if closedAt.Valid {
		sess.ClosedAt = &closedAt.Time
	}
	return &sess, nil
}

func scanSessions(rows *sql.Rows) ([]examsession.ExamSession, error) {
	var sessions []examsession.ExamSession
	for rows.Next() {
		var sess examsession.ExamSession
		var closedAt sql.NullTime
		err := rows.Scan(
			&sess.ID, &sess.BatchID, &sess.CourseCode, &sess.Title, &sess.Venue,
			&sess.StartsAt, &sess.EndsAt, &sess.Status, &sess.CreatedAt, &closedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if closedAt.Valid {
			sess.ClosedAt = &closedAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
