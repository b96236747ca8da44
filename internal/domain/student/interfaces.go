package student

import "context"

// Repository provides persistence for the student directory.
type Repository interface {
	Create(ctx context.Context, st *Student) error
	Get(ctx context.Context, id string) (*Student, error)
	GetByIndexNumber(ctx context.Context, indexNumber string) (*Student, error)
	List(ctx context.Context, limit, offset int) ([]Student, error)
	ListIndexNumbers(ctx context.Context) ([]Suggestion, error)
}

// RosterRepository answers roster membership for scoped lookups.
type RosterRepository interface {
	IsOnRoster(ctx context.Context, sessionID, studentID string) (bool, error)
	FindOnRoster(ctx context.Context, sessionID, indexNumber string) (*Student, error)
}
