package model

import (
	"time"

	"github.com/google/uuid"
)

// ReturnType enum constants
const (
	ReturnCustomer       = "CUSTOMER_RETURN"
	ReturnStoreToFactory = "STORE_TO_FACTORY"
	ReturnDamaged        = "DAMAGED"
)

// IsValidReturnType reports whether t names a known return variant.
func IsValidReturnType(t string) bool {
	return t == ReturnCustomer || t == ReturnStoreToFactory || t == ReturnDamaged
}

// Return reverses or writes off previously sold or dispatched quantity.
// CUSTOMER_RETURN credits the store against a referenced sale line (bounded
// by the quantity not yet returned), STORE_TO_FACTORY transfers store stock
// back to factory stock, DAMAGED removes store stock from circulation.
// Rows are append-only once created.
type Return struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type            string     `gorm:"type:varchar(20);not null;index" json:"type"`
	StoreID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	Store           *Store     `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int        `gorm:"type:int;not null" json:"quantity"`
	ReferenceSaleID *uuid.UUID `gorm:"type:uuid;index" json:"reference_sale_id"`
	Reason          string     `gorm:"type:text" json:"reason"`
	CreatedAt       time.Time  `json:"created_at"`
}
