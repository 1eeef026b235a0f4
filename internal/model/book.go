package model

import (
	"strings"
	"time"

	"bookpos/internal/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Condition values accepted for Book.Condition.
const (
	ConditionNew         = "New"
	ConditionUsedLikeNew = "Used - Like New"
	ConditionUsedGood    = "Used - Good"
	ConditionUsedFair    = "Used - Fair"
)

// Conditions lists every valid condition in display order.
var Conditions = []string{ConditionNew, ConditionUsedLikeNew, ConditionUsedGood, ConditionUsedFair}

// DefaultMinStock applies when neither the caller nor system_config provide one.
const DefaultMinStock = 5

var hundred = decimal.NewFromInt(100)

// Book is a sellable catalog entry. Stock only changes through the inventory
// ledger (catalog adjustments and checkout), never through a plain update.
type Book struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Title           string          `gorm:"type:varchar(255);index;not null"`
	Author          string          `gorm:"type:varchar(255);index;not null"`
	ISBN            *string         `gorm:"type:varchar(32);uniqueIndex;column:isbn"`
	Genre           *string         `gorm:"type:varchar(80);index"`
	Publisher       *string         `gorm:"type:varchar(160)"`
	PublicationYear *int            `gorm:"column:publication_year"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity   int             `gorm:"not null;default:0"`
	MinStock        int             `gorm:"not null;default:5"`
	Condition       string          `gorm:"type:varchar(40);not null;default:'New'"`
	Description     *string         `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfitMargin is (sale − purchase) / purchase × 100, or 0 when the purchase price is 0.
func (b *Book) ProfitMargin() decimal.Decimal {
	if b.PurchasePrice.IsZero() {
		return decimal.Zero
	}
	return b.SalePrice.Sub(b.PurchasePrice).Div(b.PurchasePrice).Mul(hundred)
}

// UnitProfit is the gross profit on one copy at current prices.
func (b *Book) UnitProfit() decimal.Decimal {
	return b.SalePrice.Sub(b.PurchasePrice)
}

// TotalValue is the stock valued at sale price.
func (b *Book) TotalValue() decimal.Decimal {
	return b.SalePrice.Mul(decimal.NewFromInt(int64(b.StockQuantity)))
}

func (b *Book) IsLowStock() bool { return b.StockQuantity <= b.MinStock }

func (b *Book) IsOutOfStock() bool { return b.StockQuantity == 0 }

// Normalize trims text fields and turns empty optionals into NULLs so that the
// unique ISBN index never sees two empty strings.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = trimOptional(b.ISBN)
	b.Genre = trimOptional(b.Genre)
	b.Publisher = trimOptional(b.Publisher)
	b.Description = trimOptional(b.Description)
	if b.Condition == "" {
		b.Condition = ConditionNew
	}
}

// Validate checks every invariant of a Book that can be checked without the store.
func (b *Book) Validate() error {
	fields := make(map[string]string)
	if b.Title == "" {
		fields["title"] = "required"
	}
	if b.Author == "" {
		fields["author"] = "required"
	}
	if b.PurchasePrice.IsNegative() {
		fields["purchase_price"] = "must be >= 0"
	}
	if b.SalePrice.IsNegative() {
		fields["sale_price"] = "must be >= 0"
	}
	if b.StockQuantity < 0 {
		fields["stock_quantity"] = "must be >= 0"
	}
	if b.MinStock < 0 {
		fields["min_stock"] = "must be >= 0"
	}
	if !ValidCondition(b.Condition) {
		fields["condition"] = "must be one of: " + strings.Join(Conditions, ", ")
	}
	if b.PublicationYear != nil && *b.PublicationYear < 0 {
		fields["publication_year"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func ValidCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
