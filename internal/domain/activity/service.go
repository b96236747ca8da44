package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity feed operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log appends a feed entry, stamping the current time if missing.
func (s *Service) Log(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Kind == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Recent lists feed entries with filtering, newest first.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}
