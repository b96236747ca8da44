package user

import "context"

// Repository provides persistence for operator accounts and tokens.
type Repository interface {
	Create(ctx context.Context, u *User, tokenHash string) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
