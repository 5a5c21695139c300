package service

import (
	"context"
	"fmt"

	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
)

// OrderSequencer maintains the integer rank (order_in_system) of
// missions within a star system. Reserve and Compact issue batch rank
// shifts and must run inside the same transaction as the insert or
// delete that triggered them, so concurrent readers never observe a
// duplicate or missing rank.
type OrderSequencer struct {
	missions repository.MissionRepository
}

func NewOrderSequencer(missions repository.MissionRepository) *OrderSequencer {
	return &OrderSequencer{missions: missions}
}

// Reserve makes the requested rank free for the caller's pending insert
// or move. If the rank is already occupied, every mission at or above it
// shifts up by one; otherwise the rank is assigned directly.
func (s *OrderSequencer) Reserve(ctx context.Context, starSystemID uuid.UUID, rank int) error {
	if rank < 1 {
		return apperr.BadRequest(fmt.Sprintf("order_in_system must be positive, got %d", rank))
	}

	occupied, err := s.missions.ExistsByStarSystemAndOrder(ctx, starSystemID, rank)
	if err != nil {
		return fmt.Errorf("failed to check rank occupancy: %w", err)
	}
	if occupied {
		if err := s.missions.ShiftOrdersUp(ctx, starSystemID, rank); err != nil {
			return fmt.Errorf("failed to shift ranks up from %d: %w", rank, err)
		}
	}
	return nil
}

// Compact closes the gap a deletion left at vacatedRank: every mission
// ranked above it shifts down by one.
func (s *OrderSequencer) Compact(ctx context.Context, starSystemID uuid.UUID, vacatedRank int) error {
	if err := s.missions.ShiftOrdersDown(ctx, starSystemID, vacatedRank); err != nil {
		return fmt.Errorf("failed to compact ranks after %d: %w", vacatedRank, err)
	}
	return nil
}

// NextOrder returns 1 + max(order_in_system) for the star system, or 1
// when the system has no missions yet.
func (s *OrderSequencer) NextOrder(ctx context.Context, starSystemID uuid.UUID) (int, error) {
	max, err := s.missions.MaxOrderInSystem(ctx, starSystemID)
	if err != nil {
		return 0, fmt.Errorf("failed to read max rank: %w", err)
	}
	return max + 1, nil
}
