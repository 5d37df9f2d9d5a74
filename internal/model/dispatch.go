package model

import (
	"time"

	"github.com/google/uuid"
)

// DispatchStatus enum constants
const (
	DispatchStatusPending  = "PENDING"
	DispatchStatusReceived = "RECEIVED"
)

// Dispatch moves committed quantity from the factory to one store in two
// phases: factory stock is debited at creation (PENDING), store stock is
// credited only on the RECEIVED transition. Deleting a dispatch reverses
// exactly what has happened so far, keyed on the current status.
type Dispatch struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DispatchCode string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"dispatch_code"`
	StoreID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"store_id"`
	Store        *Store         `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Status       string         `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Note         string         `gorm:"type:text" json:"note"`
	Items        []DispatchItem `gorm:"foreignKey:DispatchID" json:"items"`
	ReceivedAt   *time.Time     `json:"received_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DispatchItem is one product line within a dispatch.
type DispatchItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DispatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"dispatch_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int       `gorm:"type:int;not null" json:"quantity"`
}
