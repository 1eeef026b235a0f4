package model

import (
	"time"

	"bookpos/internal/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted for Sale.PaymentMethod.
const (
	PaymentCash     = "Cash"
	PaymentCard     = "Card"
	PaymentTransfer = "Transfer"
	PaymentOther    = "Other"
)

var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer, PaymentOther}

func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Sale is a committed purchase. Discount and Tax hold the amounts actually
// applied, not percentages. Rows are written once by the checkout engine and
// never updated afterwards.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;default:'Cash'"`
	CustomerName  *string         `gorm:"type:varchar(160)"`
	CustomerPhone *string         `gorm:"type:varchar(40)"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// PricingMode records which policy produced Discount/Tax: percentage | fixed | override
	PricingMode string    `gorm:"type:varchar(20);not null;default:'percentage'"`
	SaleDate    time.Time `gorm:"index;not null"`
	Notes       *string   `gorm:"type:text"`

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleItem is one line of a Sale. Subtotal is fixed when the line is built
// and does not follow later catalog price changes.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:char(36);not null;index"`
	LineNo    int             `gorm:"not null;default:0"` // position in the cart, from 1
	BookID    uuid.UUID       `gorm:"type:char(36);not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
}

// NewSaleItem builds a line and fixes its subtotal.
func NewSaleItem(bookID uuid.UUID, quantity int, unitPrice decimal.Decimal) (SaleItem, error) {
	fields := make(map[string]string)
	if bookID == uuid.Nil {
		fields["book_id"] = "required"
	}
	if quantity <= 0 {
		fields["quantity"] = "must be > 0"
	}
	if unitPrice.IsNegative() {
		fields["unit_price"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return SaleItem{}, apperror.Validation(fields)
	}
	return SaleItem{
		BookID:    bookID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// Ref is the first block of the sale id, enough to find a sale by eye.
func (s *Sale) Ref() string {
	return s.ID.String()[:8]
}

// Subtotal is the sum of line subtotals.
func (s *Sale) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// TotalItems is the number of units sold.
func (s *Sale) TotalItems() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// FinalTotal is subtotal − discount + tax.
func (s *Sale) FinalTotal() decimal.Decimal {
	return s.Subtotal().Sub(s.Discount).Add(s.Tax)
}

// Validate checks the header invariants of a sale about to be committed.
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return apperror.New(apperror.KindEmptyCart, "a sale needs at least one item")
	}
	fields := make(map[string]string)
	if !ValidPaymentMethod(s.PaymentMethod) {
		fields["payment_method"] = "invalid payment method"
	}
	if s.Discount.IsNegative() {
		fields["discount"] = "must be >= 0"
	}
	if s.Tax.IsNegative() {
		fields["tax"] = "must be >= 0"
	}
	if s.TotalAmount.IsNegative() {
		fields["total_amount"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}
