package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/repository"
)

// StudentRepository implements student.Repository over SQLite
type StudentRepository struct {
	db *DB
}

var _ student.Repository = (*StudentRepository)(nil)

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a directory entry
func (r *StudentRepository) Create(ctx context.Context, st *student.Student) error {
	query := `
		INSERT INTO students (id, index_number, full_name, program, level, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		st.ID, st.IndexNumber, st.FullName, st.Program, st.Level, st.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// Get retrieves a student by ID
func (r *StudentRepository) Get(ctx context.Context, id string) (*student.Student, error) {
	return r.scanOne(ctx, `SELECT id, index_number, full_name, program, level, created_at
		FROM students WHERE id = ?`, id)
}

// GetByIndexNumber retrieves a student by index number
func (r *StudentRepository) GetByIndexNumber(ctx context.Context, indexNumber string) (*student.Student, error) {
	return r.scanOne(ctx, `SELECT id, index_number, full_name, program, level, created_at
		FROM students WHERE index_number = ?`, indexNumber)
}

// List pages through the directory ordered by index number
func (r *StudentRepository) List(ctx context.Context, limit, offset int) ([]student.Student, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, index_number, full_name, program, level, created_at
		FROM students ORDER BY index_number LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []student.Student
	for rows.Next() {
		var st student.Student
		if err := rows.Scan(&st.ID, &st.IndexNumber, &st.FullName, &st.Program, &st.Level, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// ListIndexNumbers returns every (index number, name) pair for suggestion ranking
func (r *StudentRepository) ListIndexNumbers(ctx context.Context) ([]student.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT index_number, full_name FROM students`)
	if err != nil {
		return nil, fmt.Errorf("failed to list index numbers: %w", err)
	}
	defer rows.Close()

	var suggestions []student.Suggestion
	for rows.Next() {
		var s student.Suggestion
		if err := rows.Scan(&s.IndexNumber, &s.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan index number: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

func (r *StudentRepository) scanOne(ctx context.Context, query string, arg any) (*student.Student, error) {
	var st student.Student
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&st.ID, &st.IndexNumber, &st.FullName, &st.Program, &st.Level, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &st, nil
}
