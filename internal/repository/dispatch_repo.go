package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DispatchRepository interface {
	Create(ctx context.Context, dispatch *model.Dispatch) error
	CreateItem(ctx context.Context, item *model.DispatchItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Dispatch, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Dispatch, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.Dispatch, int64, error)
	SumPendingByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type dispatchRepository struct {
	db *gorm.DB
}

func NewDispatchRepository(db *gorm.DB) DispatchRepository {
	return &dispatchRepository{db: db}
}

func (r *dispatchRepository) Create(ctx context.Context, dispatch *model.Dispatch) error {
	return GetDB(ctx, r.db).Create(dispatch).Error
}

func (r *dispatchRepository) CreateItem(ctx context.Context, item *model.DispatchItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *dispatchRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	var dispatch model.Dispatch
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Store").
		First(&dispatch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dispatch, nil
}

// FindByIDForUpdate locks the dispatch row so receive/delete transitions on
// the same dispatch serialize; items are loaded after the lock is held.
func (r *dispatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	var dispatch model.Dispatch
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&dispatch).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("dispatch_id = ?", id).Find(&dispatch.Items).Error; err != nil {
		return nil, err
	}
	return &dispatch, nil
}

func (r *dispatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Dispatch{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "received_at": receivedAt}).Error
}

// Delete removes the dispatch and its items. Counter reversal is the
// service's responsibility and must happen in the same transaction.
func (r *dispatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("dispatch_id = ?", id).Delete(&model.DispatchItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Dispatch{}).Error
}

func (r *dispatchRepository) List(ctx context.Context, page, limit int) ([]model.Dispatch, int64, error) {
	var dispatches []model.Dispatch
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Dispatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Store").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&dispatches).Error; err != nil {
		return nil, 0, err
	}

	return dispatches, total, nil
}

// SumPendingByProduct totals in-transit quantity: dispatch lines already
// debited from factory but not yet credited to a store.
func (r *dispatchRepository) SumPendingByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var result struct {
		Total int
	}
	err := GetDB(ctx, r.db).Table("dispatch_items").
		Select("COALESCE(SUM(dispatch_items.quantity), 0) as total").
		Joins("JOIN dispatches ON dispatches.id = dispatch_items.dispatch_id").
		Where("dispatch_items.product_id = ? AND dispatches.status = ?", productID, model.DispatchStatusPending).
		Scan(&result).Error
	return result.Total, err
}
