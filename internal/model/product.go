package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is one sellable SKU/size/barcode combination created by a
// production batch reaching READY. FactoryStock is only moved by dispatch
// creation/cancellation, STORE_TO_FACTORY returns and the initial
// production credit.
type Product struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"batch_id"`
	Batch         *ProductionBatch `gorm:"foreignKey:BatchID" json:"-"`
	SKU           string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Barcode       string           `gorm:"type:varchar(20);uniqueIndex;not null" json:"barcode"`
	Name          string           `gorm:"type:varchar(255);not null" json:"name"`
	Category      string           `gorm:"type:varchar(100);not null" json:"category"`
	Brand         string           `gorm:"type:varchar(100);not null" json:"brand"`
	Color         string           `gorm:"type:varchar(100)" json:"color"`
	Size          string           `gorm:"type:varchar(20);not null" json:"size"`
	SalePrice     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	FactoryStock  int              `gorm:"type:int;default:0;not null" json:"factory_stock"`
	TotalProduced int              `gorm:"type:int;not null" json:"total_produced"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}
