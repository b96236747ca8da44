package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/repository"
)

func TestUserRepository_CreateAndResolve(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{
		ID:        "u1",
		Name:      "Ama Mensah",
		Email:     "ama@uni.edu",
		Role:      user.RoleInvigilator,
		Active:    true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, u, "hash1"))

	got, err := repo.GetByTokenHash(ctx, "hash1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
	require.True(t, got.Active)

	_, err = repo.GetByTokenHash(ctx, "bogus")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{ID: "u1", Name: "A", Email: "a@b.c", Role: user.RoleAdmin, Active: true, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, u, "h1"))

	dup := &user.User{ID: "u2", Name: "B", Email: "a@b.c", Role: user.RoleAdmin, Active: true, CreatedAt: time.Now()}
	require.ErrorIs(t, repo.Create(ctx, dup, "h2"), repository.ErrDuplicate)
}

func TestUserRepository_SetActive(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{ID: "u1", Name: "A", Email: "a@b.c", Role: user.RoleAdmin, Active: true, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, u, "h1"))
	require.NoError(t, repo.SetActive(ctx, "u1", false))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, got.Active)

	require.ErrorIs(t, repo.SetActive(ctx, "ghost", true), repository.ErrNotFound)
}
