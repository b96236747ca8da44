package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invigil/invigil/internal/repository"
)

// Service handles operator account administration.
type Service struct {
	users  Repository
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(users Repository, logger *slog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// CreateRequest describes a new operator account.
type CreateRequest struct {
	Name  string
	Email string
	Role  Role
}

// Create registers an account and issues its API token. The plaintext
// token is returned once; only its hash is stored.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Credentials, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, ErrInvalidInput
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	u := &User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, u, HashToken(token)); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &Credentials{User: *u, Token: token}, nil
}

// List returns all operator accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}

// Deactivate revokes an account; its token stops resolving.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.users.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deactivating user: %w", err)
	}
	return nil
}

// ResolveToken maps a bearer token to an active user.
func (s *Service) ResolveToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if !u.Active {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// HashToken returns the hex SHA-256 digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
