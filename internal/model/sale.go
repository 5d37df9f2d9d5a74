package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode enum constants
const (
	PaymentCash = "CASH"
	PaymentCard = "CARD"
	PaymentUPI  = "UPI"
)

// Sale is an immutable record of goods sold from a store to an end
// customer. Store stock is debited at creation; the record is never edited
// or deleted afterwards; reversals go through Return rows only.
type Sale struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleCode    string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sale_code"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Store       *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Items       []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	SubTotal    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sub_total"`
	Discount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount"`
	Tax         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"tax"`
	GrandTotal  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"grand_total"`
	PaymentMode string          `gorm:"type:varchar(20);not null" json:"payment_mode"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SaleItem is one product line of a sale with its price snapshot.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Barcode   string          `gorm:"type:varchar(20);not null" json:"barcode"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Total     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
}
