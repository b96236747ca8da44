package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/domain/activity"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	sess := "sess1"
	entries := []*activity.Entry{
		{SessionID: &sess, ActorID: "u1", Kind: activity.KindSessionOpened, Summary: "opened", CreatedAt: time.Now().Add(-time.Minute)},
		{SessionID: &sess, ActorID: "u1", Kind: activity.KindAttendanceMarked, Summary: "marked", CreatedAt: time.Now()},
		{ActorID: "u2", Kind: activity.KindUserCreated, Summary: "created", CreatedAt: time.Now()},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, e))
		require.NotZero(t, e.ID)
	}

	all, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	bySession, err := repo.List(ctx, activity.ListOptions{SessionID: &sess})
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	// Newest first.
	require.Equal(t, activity.KindAttendanceMarked, bySession[0].Kind)

	kind := activity.KindUserCreated
	byKind, err := repo.List(ctx, activity.ListOptions{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	require.Nil(t, byKind[0].SessionID)
}

func TestActivityRepository_Limit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, &activity.Entry{
			ActorID: "u1", Kind: activity.KindIncidentReported, Summary: "x", CreatedAt: time.Now(),
		}))
	}

	got, err := repo.List(ctx, activity.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
}
