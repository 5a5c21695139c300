package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CadetMissionRepository interface {
	Create(ctx context.Context, cm *model.CadetMission) error
	Update(ctx context.Context, cm *model.CadetMission) error
	FindByCadetAndMission(ctx context.Context, cadetID, missionID uuid.UUID) (*model.CadetMission, error)
	ListByCadet(ctx context.Context, cadetID uuid.UUID) ([]model.CadetMission, error)
	DeleteAllByCadet(ctx context.Context, cadetID uuid.UUID) error
	DeleteAllByMission(ctx context.Context, missionID uuid.UUID) error
}

type cadetMissionRepository struct {
	db *gorm.DB
}

func NewCadetMissionRepository(db *gorm.DB) CadetMissionRepository {
	return &cadetMissionRepository{db: db}
}

func (r *cadetMissionRepository) Create(ctx context.Context, cm *model.CadetMission) error {
	return GetDB(ctx, r.db).Create(cm).Error
}

func (r *cadetMissionRepository) Update(ctx context.Context, cm *model.CadetMission) error {
	return GetDB(ctx, r.db).Save(cm).Error
}

func (r *cadetMissionRepository) FindByCadetAndMission(ctx context.Context, cadetID, missionID uuid.UUID) (*model.CadetMission, error) {
	var cm model.CadetMission
	err := GetDB(ctx, r.db).
		Where("cadet_id = ? AND mission_id = ?", cadetID, missionID).
		First(&cm).Error
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *cadetMissionRepository) ListByCadet(ctx context.Context, cadetID uuid.UUID) ([]model.CadetMission, error) {
	var cms []model.CadetMission
	if err := GetDB(ctx, r.db).Where("cadet_id = ?", cadetID).Find(&cms).Error; err != nil {
		return nil, err
	}
	return cms, nil
}

func (r *cadetMissionRepository) DeleteAllByCadet(ctx context.Context, cadetID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("cadet_id = ?", cadetID).Delete(&model.CadetMission{}).Error
}

func (r *cadetMissionRepository) DeleteAllByMission(ctx context.Context, missionID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("mission_id = ?", missionID).Delete(&model.CadetMission{}).Error
}
