package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	List(ctx context.Context, page, limit int) ([]model.Store, int64, error)

	FindItem(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error)
	FindItemForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error)
	CreateItem(ctx context.Context, item *model.StoreInventoryItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ListItemsByStore(ctx context.Context, storeID uuid.UUID) ([]model.StoreInventoryItem, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Create(store).Error
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Save(store).Error
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) List(ctx context.Context, page, limit int) ([]model.Store, int64, error) {
	var stores []model.Store
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Store{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}

	return stores, total, nil
}

func (r *storeRepository) FindItem(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error) {
	var item model.StoreInventoryItem
	if err := GetDB(ctx, r.db).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate locks the (store, product) row so concurrent
// sale/return/receipt mutations on the same store quantity serialize.
func (r *storeRepository) FindItemForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error) {
	var item model.StoreInventoryItem
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *storeRepository) CreateItem(ctx context.Context, item *model.StoreInventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *storeRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.StoreInventoryItem{}).
		Where("id = ?", itemID).Update("quantity_available", quantity).Error
}

func (r *storeRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.StoreInventoryItem{}).Error
}

func (r *storeRepository) ListItemsByStore(ctx context.Context, storeID uuid.UUID) ([]model.StoreInventoryItem, error) {
	var items []model.StoreInventoryItem
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Where("store_id = ?", storeID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
