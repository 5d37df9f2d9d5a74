package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is one retail outlet receiving dispatched goods from the factory.
type Store struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Manager   string         `gorm:"type:varchar(255)" json:"manager"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StoreInventoryItem is the quantity of one product held at one store.
// Rows are created lazily on first receipt and removed when a dispatch
// reversal drains them back to zero.
type StoreInventoryItem struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"store_id"`
	Store             *Store    `gorm:"foreignKey:StoreID" json:"-"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"product_id"`
	Product           *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityAvailable int       `gorm:"type:int;default:0;not null" json:"quantity_available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
