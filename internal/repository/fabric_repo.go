package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FabricRepository interface {
	Create(ctx context.Context, fabric *model.Fabric) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Fabric, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Fabric, error)
	UpdateMeterUsed(ctx context.Context, id uuid.UUID, meterUsed float64) error
	List(ctx context.Context, page, limit int) ([]model.Fabric, int64, error)
}

type fabricRepository struct {
	db *gorm.DB
}

func NewFabricRepository(db *gorm.DB) FabricRepository {
	return &fabricRepository{db: db}
}

func (r *fabricRepository) Create(ctx context.Context, fabric *model.Fabric) error {
	return GetDB(ctx, r.db).Create(fabric).Error
}

func (r *fabricRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Fabric, error) {
	var fabric model.Fabric
	if err := GetDB(ctx, r.db).First(&fabric, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func (r *fabricRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Fabric, error) {
	var fabric model.Fabric
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&fabric).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func (r *fabricRepository) UpdateMeterUsed(ctx context.Context, id uuid.UUID, meterUsed float64) error {
	return GetDB(ctx, r.db).Model(&model.Fabric{}).Where("id = ?", id).Update("meter_used", meterUsed).Error
}

func (r *fabricRepository) List(ctx context.Context, page, limit int) ([]model.Fabric, int64, error) {
	var fabrics []model.Fabric
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Fabric{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&fabrics).Error; err != nil {
		return nil, 0, err
	}

	return fabrics, total, nil
}
