package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StarSystemRepository interface {
	Create(ctx context.Context, system *model.StarSystem) error
	Update(ctx context.Context, system *model.StarSystem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StarSystem, error)
	FindByName(ctx context.Context, name string) (*model.StarSystem, error)
	ListAll(ctx context.Context) ([]model.StarSystem, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.StarSystem, error)
}

type starSystemRepository struct {
	db *gorm.DB
}

func NewStarSystemRepository(db *gorm.DB) StarSystemRepository {
	return &starSystemRepository{db: db}
}

func (r *starSystemRepository) Create(ctx context.Context, system *model.StarSystem) error {
	return GetDB(ctx, r.db).Create(system).Error
}

func (r *starSystemRepository) Update(ctx context.Context, system *model.StarSystem) error {
	return GetDB(ctx, r.db).Save(system).Error
}

func (r *starSystemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StarSystem{}).Error
}

func (r *starSystemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StarSystem, error) {
	var system model.StarSystem
	if err := GetDB(ctx, r.db).First(&system, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &system, nil
}

func (r *starSystemRepository) FindByName(ctx context.Context, name string) (*model.StarSystem, error) {
	var system model.StarSystem
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&system).Error; err != nil {
		return nil, err
	}
	return &system, nil
}

func (r *starSystemRepository) ListAll(ctx context.Context) ([]model.StarSystem, error) {
	var systems []model.StarSystem
	if err := GetDB(ctx, r.db).Order("created_at asc").Find(&systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}

func (r *starSystemRepository) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.StarSystem, error) {
	var systems []model.StarSystem
	if err := GetDB(ctx, r.db).Where("owner_id = ?", ownerID).Order("created_at asc").Find(&systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}
