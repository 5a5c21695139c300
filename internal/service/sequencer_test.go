package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedMissions(t *testing.T, repo *memMissionRepo, systemID uuid.UUID, ranks ...int) {
	t.Helper()
	for _, rank := range ranks {
		m := &model.Mission{
			ID:            uuid.New(),
			StarSystemID:  systemID,
			Name:          uuid.NewString(),
			OrderInSystem: rank,
		}
		require.NoError(t, repo.Create(context.Background(), m))
	}
}

func TestReserveShiftsOccupiedRank(t *testing.T) {
	repo := newMemMissionRepo()
	systemID := uuid.New()
	seedMissions(t, repo, systemID, 1, 2, 3)

	seq := NewOrderSequencer(repo)
	require.NoError(t, seq.Reserve(context.Background(), systemID, 2))

	// Ranks 2 and 3 moved up, rank 2 is free for the pending insert.
	require.Equal(t, []int{1, 3, 4}, repo.ranks(systemID))
}

func TestReserveLeavesFreeRankAlone(t *testing.T) {
	repo := newMemMissionRepo()
	systemID := uuid.New()
	seedMissions(t, repo, systemID, 1, 2, 3)

	seq := NewOrderSequencer(repo)
	require.NoError(t, seq.Reserve(context.Background(), systemID, 7))

	require.Equal(t, []int{1, 2, 3}, repo.ranks(systemID))
}

func TestReserveRejectsNonPositiveRank(t *testing.T) {
	seq := NewOrderSequencer(newMemMissionRepo())

	for _, rank := range []int{0, -1} {
		err := seq.Reserve(context.Background(), uuid.New(), rank)
		require.Error(t, err)
		require.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	}
}

func TestReserveDoesNotTouchOtherSystems(t *testing.T) {
	repo := newMemMissionRepo()
	systemA := uuid.New()
	systemB := uuid.New()
	seedMissions(t, repo, systemA, 1, 2)
	seedMissions(t, repo, systemB, 1, 2)

	seq := NewOrderSequencer(repo)
	require.NoError(t, seq.Reserve(context.Background(), systemA, 1))

	require.Equal(t, []int{2, 3}, repo.ranks(systemA))
	require.Equal(t, []int{1, 2}, repo.ranks(systemB))
}

func TestCompactClosesGap(t *testing.T) {
	repo := newMemMissionRepo()
	systemID := uuid.New()
	// Rank 4 was just deleted out of {1,2,3,4,5,7}.
	seedMissions(t, repo, systemID, 1, 2, 3, 5, 7)

	seq := NewOrderSequencer(repo)
	require.NoError(t, seq.Compact(context.Background(), systemID, 4))

	require.Equal(t, []int{1, 2, 3, 4, 6}, repo.ranks(systemID))
}

func TestNextOrder(t *testing.T) {
	repo := newMemMissionRepo()
	systemID := uuid.New()
	seq := NewOrderSequencer(repo)

	next, err := seq.NextOrder(context.Background(), systemID)
	require.NoError(t, err)
	require.Equal(t, 1, next, "empty system starts at rank 1")

	seedMissions(t, repo, systemID, 1, 2, 5)
	next, err = seq.NextOrder(context.Background(), systemID)
	require.NoError(t, err)
	require.Equal(t, 6, next, "next order follows the max, gaps included")
}
