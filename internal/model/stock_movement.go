package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType enum constants. Every counter mutation in the ledger is one
// of these.
const (
	MovementProductionIn   = "PRODUCTION_IN"    // factory credited by a batch reaching READY
	MovementDispatchOut    = "DISPATCH_OUT"     // factory debited by dispatch creation
	MovementDispatchCancel = "DISPATCH_CANCEL"  // factory refunded by dispatch deletion
	MovementStoreReceiveIn = "STORE_RECEIVE_IN" // store credited by RECEIVED transition
	MovementStoreRecallOut = "STORE_RECALL_OUT" // store debited by deleting a RECEIVED dispatch
	MovementSaleOut        = "SALE_OUT"         // store debited by a sale
	MovementCustomerReturn = "CUSTOMER_RETURN"  // store credited by a customer return
	MovementTransferOut    = "TRANSFER_OUT"     // store debited by a store-to-factory return
	MovementTransferIn     = "TRANSFER_IN"      // factory credited by a store-to-factory return
	MovementDamageOut      = "DAMAGE_OUT"       // store write-off
)

// Reference type constants for stock movements
const (
	MovementRefBatch    = "BATCH"
	MovementRefDispatch = "DISPATCH"
	MovementRefSale     = "SALE"
	MovementRefReturn   = "RETURN"
)

// StockMovement records one counter mutation, written in the same
// transaction that applied it: which product, which pool (factory when
// StoreID is nil, otherwise that store), how much, the resulting level and
// the document that caused it.
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	StoreID         *uuid.UUID `gorm:"type:uuid;index" json:"store_id"`
	MovementType    string     `gorm:"type:varchar(30);not null;index" json:"movement_type"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	RefType         string     `gorm:"type:varchar(20);not null" json:"ref_type"`
	RefID           *uuid.UUID `gorm:"type:uuid;index" json:"ref_id"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}
