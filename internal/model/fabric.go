package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fabric represents a purchased raw-material lot, measured in meters.
// MeterUsed only ever grows: production batches consume fabric exactly once
// at creation and there is no unconsume path.
type Fabric struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string         `gorm:"type:varchar(255);not null" json:"name"`
	Color               string         `gorm:"type:varchar(100)" json:"color"`
	Supplier            string         `gorm:"type:varchar(255)" json:"supplier"`
	TotalMeterPurchased float64        `gorm:"type:decimal(12,2);not null" json:"total_meter_purchased"`
	MeterUsed           float64        `gorm:"type:decimal(12,2);default:0;not null" json:"meter_used"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// MeterAvailable is always derived from the committed columns, never cached.
func (f *Fabric) MeterAvailable() float64 {
	return f.TotalMeterPurchased - f.MeterUsed
}
