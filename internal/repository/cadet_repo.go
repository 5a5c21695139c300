package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CadetRepository defines the interface for data access of Cadet entities
type CadetRepository interface {
	Create(ctx context.Context, cadet *model.Cadet) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cadet, error)
	GetByIDWithRoles(ctx context.Context, id uuid.UUID) (*model.Cadet, error)
	GetByUsername(ctx context.Context, username string) (*model.Cadet, error)
	GetByUsernameWithRoles(ctx context.Context, username string) (*model.Cadet, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, limit int) ([]model.Cadet, int64, error)
	ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]model.Cadet, error)
	Update(ctx context.Context, cadet *model.Cadet) error
	ReplaceRoles(ctx context.Context, cadet *model.Cadet, roles []model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cadetRepository struct {
	db *gorm.DB
}

// NewCadetRepository returns a new instance of CadetRepository
func NewCadetRepository(db *gorm.DB) CadetRepository {
	return &cadetRepository{db: db}
}

func (r *cadetRepository) Create(ctx context.Context, cadet *model.Cadet) error {
	return GetDB(ctx, r.db).Create(cadet).Error
}

func (r *cadetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cadet, error) {
	var cadet model.Cadet
	if err := GetDB(ctx, r.db).First(&cadet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cadet, nil
}

func (r *cadetRepository) GetByIDWithRoles(ctx context.Context, id uuid.UUID) (*model.Cadet, error) {
	var cadet model.Cadet
	if err := GetDB(ctx, r.db).Preload("Roles.Permissions").First(&cadet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cadet, nil
}

func (r *cadetRepository) GetByUsername(ctx context.Context, username string) (*model.Cadet, error) {
	var cadet model.Cadet
	if err := GetDB(ctx, r.db).First(&cadet, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &cadet, nil
}

func (r *cadetRepository) GetByUsernameWithRoles(ctx context.Context, username string) (*model.Cadet, error) {
	var cadet model.Cadet
	if err := GetDB(ctx, r.db).Preload("Roles.Permissions").First(&cadet, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &cadet, nil
}

func (r *cadetRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Cadet{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *cadetRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Cadet{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *cadetRepository) List(ctx context.Context, page, limit int) ([]model.Cadet, int64, error) {
	var cadets []model.Cadet
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Cadet{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Roles").Order("created_at asc").Offset(offset).Limit(limit).Find(&cadets).Error; err != nil {
		return nil, 0, err
	}

	return cadets, total, nil
}

func (r *cadetRepository) ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]model.Cadet, error) {
	var cadets []model.Cadet
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN cadet_roles cr ON cr.cadet_id = cadets.id").
		Where("cr.role_id = ?", roleID).
		Preload("Roles").
		Find(&cadets).Error
	if err != nil {
		return nil, err
	}
	return cadets, nil
}

func (r *cadetRepository) Update(ctx context.Context, cadet *model.Cadet) error {
	return GetDB(ctx, r.db).Save(cadet).Error
}

func (r *cadetRepository) ReplaceRoles(ctx context.Context, cadet *model.Cadet, roles []model.Role) error {
	return GetDB(ctx, r.db).Model(cadet).Association("Roles").Replace(roles)
}

func (r *cadetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Cadet{}).Error
}
