package model

import (
	"time"

	"github.com/google/uuid"
)

// BatchStage enum constants
const (
	StageCutting   = "CUTTING"
	StageFinishing = "FINISHING"
	StageReady     = "READY"
)

// stageTransitions is the only legal edge set: CUTTING -> FINISHING -> READY.
// Everything else (backward, skipping, repeating) is rejected.
var stageTransitions = map[string]string{
	StageCutting:   StageFinishing,
	StageFinishing: StageReady,
}

// CanTransitionStage reports whether moving from one batch stage to another
// is allowed by the workflow.
func CanTransitionStage(from, to string) bool {
	return stageTransitions[from] == to
}

// IsValidStage reports whether s names a known batch stage.
func IsValidStage(s string) bool {
	return s == StageCutting || s == StageFinishing || s == StageReady
}

// ProductionBatch converts meters of one fabric lot into finished pieces by
// size. It consumes fabric exactly once at creation and materializes Product
// rows when it reaches READY.
type ProductionBatch struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchCode   string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"batch_code"`
	FabricID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"fabric_id"`
	Fabric      *Fabric         `gorm:"foreignKey:FabricID" json:"fabric,omitempty"`
	MeterUsed   float64         `gorm:"type:decimal(12,2);not null" json:"meter_used"`
	Stage       string          `gorm:"type:varchar(20);not null;default:'CUTTING'" json:"stage"`
	TotalPieces int             `gorm:"type:int;not null" json:"total_pieces"`
	SizeItems   []BatchSizeItem `gorm:"foreignKey:BatchID" json:"size_items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BatchSizeItem is one line of a batch's size breakdown (size -> quantity).
type BatchSizeItem struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	Size     string    `gorm:"type:varchar(20);not null" json:"size"`
	Quantity int       `gorm:"type:int;not null" json:"quantity"`
}
