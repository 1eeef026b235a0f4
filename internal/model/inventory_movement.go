package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types.
const (
	MovementIn         = "IN"
	MovementOut        = "OUT"
	MovementAdjustment = "ADJUSTMENT"
)

// InventoryMovement is one row of the append-only stock ledger.
// IN and OUT carry a positive Quantity applied with their sign; ADJUSTMENT
// carries the signed delta. StockBefore/StockAfter snapshot the book row.
type InventoryMovement struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey"`
	BookID       uuid.UUID  `gorm:"type:char(36);not null;index"`
	MovementType string     `gorm:"type:varchar(20);not null;index"`
	Quantity     int        `gorm:"not null"`
	StockBefore  int        `gorm:"not null"`
	StockAfter   int        `gorm:"not null"`
	Reason       string     `gorm:"type:varchar(255)"`
	ReferenceID  *uuid.UUID `gorm:"type:char(36);index"` // sale id for OUT rows
	MovementDate time.Time  `gorm:"index;not null"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
}

// SignedQuantity is the effect of the movement on stock.
func (m *InventoryMovement) SignedQuantity() int {
	if m.MovementType == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
