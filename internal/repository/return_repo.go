package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *model.Return) error
	SumCustomerReturns(ctx context.Context, saleID, productID uuid.UUID) (int, error)
	List(ctx context.Context, page, limit int, returnType string) ([]model.Return, int64, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *model.Return) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

// SumCustomerReturns totals prior CUSTOMER_RETURN quantity recorded against
// one sale line. Provenance is tracked strictly against the sale, never
// inferred from store-quantity deltas.
func (r *returnRepository) SumCustomerReturns(ctx context.Context, saleID, productID uuid.UUID) (int, error) {
	var result struct {
		Total int
	}
	err := GetDB(ctx, r.db).Model(&model.Return{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("type = ? AND reference_sale_id = ? AND product_id = ?",
			model.ReturnCustomer, saleID, productID).
		Scan(&result).Error
	return result.Total, err
}

func (r *returnRepository) List(ctx context.Context, page, limit int, returnType string) ([]model.Return, int64, error) {
	var returns []model.Return
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Return{})
	if returnType != "" {
		db = db.Where("type = ?", returnType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Store").
		Preload("Product").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}
