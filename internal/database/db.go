package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Fabric{},
		&model.ProductionBatch{},
		&model.BatchSizeItem{},
		&model.Product{},
		&model.Store{},
		&model.StoreInventoryItem{},
		&model.Dispatch{},
		&model.DispatchItem{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Return{},
		&model.StockMovement{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
