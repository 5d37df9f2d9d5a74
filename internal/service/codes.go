package service

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// generateCode builds a human-readable business code like BAT-20260830-3F2A9C1D.
func generateCode(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), suffix)
}

// generateSKU derives a product SKU from the batch and size, e.g.
// TSH-3F2A9C1D-M. The category prefix keeps SKUs scannable by humans.
func generateSKU(category, size string, batchID uuid.UUID) string {
	prefix := strings.ToUpper(strings.ReplaceAll(category, " ", ""))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "PRD"
	}
	short := strings.ToUpper(strings.ReplaceAll(batchID.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, short, strings.ToUpper(size))
}

// generateBarcode produces a 13-digit numeric barcode from uuid entropy.
// The unique index on products.barcode is the backstop against collisions.
func generateBarcode() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8]) % 1_000_000_000_000
	return fmt.Sprintf("2%012d", n)
}
