package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *model.ProductionBatch) error
	CreateSizeItem(ctx context.Context, item *model.BatchSizeItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) error
	List(ctx context.Context, page, limit int) ([]model.ProductionBatch, int64, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *model.ProductionBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *batchRepository) CreateSizeItem(ctx context.Context, item *model.BatchSizeItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *batchRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error) {
	var batch model.ProductionBatch
	if err := GetDB(ctx, r.db).
		Preload("SizeItems").
		Preload("Fabric").
		First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindByIDForUpdate locks the batch row so concurrent stage transitions
// serialize; size items are loaded after the lock is held.
func (r *batchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error) {
	var batch model.ProductionBatch
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("batch_id = ?", id).Find(&batch.SizeItems).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	return GetDB(ctx, r.db).Model(&model.ProductionBatch{}).Where("id = ?", id).Update("stage", stage).Error
}

func (r *batchRepository) List(ctx context.Context, page, limit int) ([]model.ProductionBatch, int64, error) {
	var batches []model.ProductionBatch
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ProductionBatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("SizeItems").
		Preload("Fabric").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
