package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/repository"
)

func seedStudent(t *testing.T, repo *StudentRepository, id, index, name string) *student.Student {
	t.Helper()
	st := &student.Student{
		ID:          id,
		IndexNumber: index,
		FullName:    name,
		Program:     "BSc Computer Science",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), st))
	return st
}

func TestStudentRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	seedStudent(t, repo, "s1", "STU123", "Ama Mensah")

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "STU123", got.IndexNumber)

	byIndex, err := repo.GetByIndexNumber(ctx, "STU123")
	require.NoError(t, err)
	require.Equal(t, "s1", byIndex.ID)
}

func TestStudentRepository_DuplicateIndex(t *testing.T) {
	db := NewTestDB(t)
	repo := NewStudentRepository(db)

	seedStudent(t, repo, "s1", "STU123", "Ama Mensah")
	err := repo.Create(context.Background(), &student.Student{
		ID:          "s2",
		IndexNumber: "STU123",
		FullName:    "Kofi Boateng",
		CreatedAt:   time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestStudentRepository_GetMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewStudentRepository(db)

	_, err := repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByIndexNumber(context.Background(), "NOPE")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudentRepository_ListIndexNumbers(t *testing.T) {
	db := NewTestDB(t)
	repo := NewStudentRepository(db)

	seedStudent(t, repo, "s1", "STU123", "Ama Mensah")
	seedStudent(t, repo, "s2", "STU124", "Kofi Boateng")

	got, err := repo.ListIndexNumbers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
}
