package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/repository"
)

// UserRepository implements user.Repository over SQLite
type UserRepository struct {
	db *DB
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an operator account together with its token hash
func (r *UserRepository) Create(ctx context.Context, u *user.User, tokenHash string) error {
	query := `
		INSERT INTO users (id, name, email, role, active, token_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Role, u.Active, tokenHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	return r.scanOne(ctx, `SELECT id, name, email, role, active, created_at
		FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.scanOne(ctx, `SELECT id, name, email, role, active, created_at
		FROM users WHERE email = ?`, email)
}

// GetByTokenHash retrieves a user by API token hash
func (r *UserRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*user.User, error) {
	return r.scanOne(ctx, `SELECT id, name, email, role, active, created_at
		FROM users WHERE token_hash = ?`, tokenHash)
}

// List returns all accounts ordered by name
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, role, active, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetActive toggles an account
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
