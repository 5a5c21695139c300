package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MissionRepository interface {
	Create(ctx context.Context, mission *model.Mission) error
	Update(ctx context.Context, mission *model.Mission) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Mission, error)
	ListAll(ctx context.Context) ([]model.Mission, error)
	ListByStarSystemOrdered(ctx context.Context, starSystemID uuid.UUID) ([]model.Mission, error)
	ExistsByStarSystemAndName(ctx context.Context, starSystemID uuid.UUID, name string) (bool, error)
	ExistsByStarSystemAndOrder(ctx context.Context, starSystemID uuid.UUID, order int) (bool, error)
	MaxOrderInSystem(ctx context.Context, starSystemID uuid.UUID) (int, error)
	ShiftOrdersUp(ctx context.Context, starSystemID uuid.UUID, fromOrder int) error
	ShiftOrdersDown(ctx context.Context, starSystemID uuid.UUID, afterOrder int) error
}

type missionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) Create(ctx context.Context, mission *model.Mission) error {
	return GetDB(ctx, r.db).Create(mission).Error
}

func (r *missionRepository) Update(ctx context.Context, mission *model.Mission) error {
	return GetDB(ctx, r.db).Save(mission).Error
}

func (r *missionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Mission{}).Error
}

func (r *missionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Mission, error) {
	var mission model.Mission
	if err := GetDB(ctx, r.db).First(&mission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mission, nil
}

func (r *missionRepository) ListAll(ctx context.Context) ([]model.Mission, error) {
	var missions []model.Mission
	if err := GetDB(ctx, r.db).Order("created_at asc").Find(&missions).Error; err != nil {
		return nil, err
	}
	return missions, nil
}

func (r *missionRepository) ListByStarSystemOrdered(ctx context.Context, starSystemID uuid.UUID) ([]model.Mission, error) {
	var missions []model.Mission
	err := GetDB(ctx, r.db).
		Where("star_system_id = ?", starSystemID).
		Order("order_in_system asc").
		Find(&missions).Error
	if err != nil {
		return nil, err
	}
	return missions, nil
}

func (r *missionRepository) ExistsByStarSystemAndName(ctx context.Context, starSystemID uuid.UUID, name string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Mission{}).
		Where("star_system_id = ? AND name = ?", starSystemID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *missionRepository) ExistsByStarSystemAndOrder(ctx context.Context, starSystemID uuid.UUID, order int) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Mission{}).
		Where("star_system_id = ? AND order_in_system = ?", starSystemID, order).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *missionRepository) MaxOrderInSystem(ctx context.Context, starSystemID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.Mission{}).
		Where("star_system_id = ?", starSystemID).
		Select("COALESCE(MAX(order_in_system), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// ShiftOrdersUp bumps every rank >= fromOrder by one. The unique
// (star_system_id, order_in_system) index is checked per row during the
// UPDATE, so a plain "+1" over a contiguous block collides with the
// neighbour that has not moved yet. The shift therefore detours through
// the negative range, which real ranks (>= 1) never occupy: flip the
// block to -(rank+1), then flip it back.
func (r *missionRepository) ShiftOrdersUp(ctx context.Context, starSystemID uuid.UUID, fromOrder int) error {
	db := GetDB(ctx, r.db)
	err := db.Model(&model.Mission{}).
		Where("star_system_id = ? AND order_in_system >= ?", starSystemID, fromOrder).
		UpdateColumn("order_in_system", gorm.Expr("-(order_in_system + 1)")).Error
	if err != nil {
		return err
	}
	return db.Model(&model.Mission{}).
		Where("star_system_id = ? AND order_in_system < 0", starSystemID).
		UpdateColumn("order_in_system", gorm.Expr("-order_in_system")).Error
}

// ShiftOrdersDown closes the gap left by a deleted rank: every rank
// strictly greater than afterOrder moves down by one. Same two-pass
// detour as ShiftOrdersUp, otherwise correctness would depend on the
// engine's row scan order.
func (r *missionRepository) ShiftOrdersDown(ctx context.Context, starSystemID uuid.UUID, afterOrder int) error {
	db := GetDB(ctx, r.db)
	err := db.Model(&model.Mission{}).
		Where("star_system_id = ? AND order_in_system > ?", starSystemID, afterOrder).
		UpdateColumn("order_in_system", gorm.Expr("-(order_in_system - 1)")).Error
	if err != nil {
		return err
	}
	return db.Model(&model.Mission{}).
		Where("star_system_id = ? AND order_in_system < 0", starSystemID).
		UpdateColumn("order_in_system", gorm.Expr("-order_in_system")).Error
}
