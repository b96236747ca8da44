package user_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/repository"
	"github.com/invigil/invigil/internal/repository/mocks"
)

func newService(users *mocks.UserRepository) *user.Service {
	return user.NewService(users, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUserService_Create_IssuesToken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}

	users.On("GetByEmail", ctx, "ama@uni.edu").Return(nil, repository.ErrNotFound)
	users.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	svc := newService(users)
	creds, err := svc.Create(ctx, user.CreateRequest{
		Name:  "Ama Mensah",
		Email: "Ama@uni.edu",
		Role:  user.RoleInvigilator,
	})
	require.NoError(t, err)
	require.Len(t, creds.Token, 64)
	require.Equal(t, "ama@uni.edu", creds.User.Email)
	require.True(t, creds.User.Active)

	// Stored hash corresponds to the issued token.
	users.AssertCalled(t, "Create", ctx, mock.Anything, user.HashToken(creds.Token))
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}

	users.On("GetByEmail", ctx, "ama@uni.edu").Return(&user.User{ID: "u1"}, nil)

	svc := newService(users)
	_, err := svc.Create(ctx, user.CreateRequest{Name: "A", Email: "ama@uni.edu", Role: user.RoleAdmin})
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestUserService_Create_BadRole(t *testing.T) {
	ctx := context.Background()
	svc := newService(&mocks.UserRepository{})
	_, err := svc.Create(ctx, user.CreateRequest{Name: "A", Email: "a@b.c", Role: "janitor"})
	require.ErrorIs(t, err, user.ErrInvalidInput)
}

func TestUserService_ResolveToken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}

	users.On("GetByTokenHash", ctx, user.HashToken("tok")).Return(&user.User{ID: "u1", Active: true}, nil)

	svc := newService(users)
	u, err := svc.ResolveToken(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
}

func TestUserService_ResolveToken_Deactivated(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}

	users.On("GetByTokenHash", ctx, user.HashToken("tok")).Return(&user.User{ID: "u1", Active: false}, nil)

	svc := newService(users)
	_, err := svc.ResolveToken(ctx, "tok")
	require.ErrorIs(t, err, user.ErrUnauthorized)
}

func TestUserService_ResolveToken_Unknown(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}

	users.On("GetByTokenHash", ctx, mock.Anything).Return(nil, repository.ErrNotFound)

	svc := newService(users)
	_, err := svc.ResolveToken(ctx, "bogus")
	require.ErrorIs(t, err, user.ErrUnauthorized)
}
