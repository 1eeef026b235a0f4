package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceChange records one edit of a book's purchase or sale price.
// Rows are append-only.
type PriceChange struct {
	ID             uuid.UUID       `gorm:"type:char(36);primaryKey"`
	BookID         uuid.UUID       `gorm:"type:char(36);not null;index"`
	PurchaseBefore decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PurchaseAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SaleBefore     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SaleAfter      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ChangedAt      time.Time       `gorm:"index;not null"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// SaleChangePct is the relative change of the sale price in percent, or 0
// when the old price was 0.
func (p *PriceChange) SaleChangePct() decimal.Decimal {
	if p.SaleBefore.IsZero() {
		return decimal.Zero
	}
	return p.SaleAfter.Sub(p.SaleBefore).Div(p.SaleBefore).Mul(hundred).Round(2)
}
