package model

import (
	"testing"

	"bookpos/internal/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBook_ProfitMargin(t *testing.T) {
	b := &Book{PurchasePrice: d("80"), SalePrice: d("120"), StockQuantity: 3}
	assert.True(t, b.ProfitMargin().Equal(d("50")), b.ProfitMargin().String())
	assert.True(t, b.UnitProfit().Equal(d("40")))
	assert.True(t, b.TotalValue().Equal(d("360")))

	free := &Book{PurchasePrice: decimal.Zero, SalePrice: d("30")}
	assert.True(t, free.ProfitMargin().IsZero())
}

func TestBook_StockFlags(t *testing.T) {
	cases := []struct {
		stock, min int
		low, out   bool
	}{
		{stock: 6, min: 5, low: false, out: false},
		{stock: 5, min: 5, low: true, out: false},
		{stock: 0, min: 5, low: true, out: true},
		{stock: 0, min: 0, low: true, out: true},
	}
	for _, tc := range cases {
		b := &Book{StockQuantity: tc.stock, MinStock: tc.min}
		assert.Equal(t, tc.low, b.IsLowStock(), "stock=%d min=%d", tc.stock, tc.min)
		assert.Equal(t, tc.out, b.IsOutOfStock(), "stock=%d min=%d", tc.stock, tc.min)
	}
}

func TestBook_NormalizeAndValidate(t *testing.T) {
	blank := "   "
	isbn := " 978-607-07-0001 "
	b := &Book{Title: "  Aura ", Author: "Carlos Fuentes", ISBN: &isbn, Genre: &blank}
	b.Normalize()

	assert.Equal(t, "Aura", b.Title)
	require.NotNil(t, b.ISBN)
	assert.Equal(t, "978-607-07-0001", *b.ISBN)
	assert.Nil(t, b.Genre)
	assert.Equal(t, ConditionNew, b.Condition)
	assert.NoError(t, b.Validate())

	year := -1
	bad := &Book{
		PurchasePrice:   d("-1"),
		SalePrice:       d("-0.01"),
		StockQuantity:   -2,
		MinStock:        -1,
		Condition:       "Mint",
		PublicationYear: &year,
	}
	err := bad.Validate()
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	for _, f := range []string{"title", "author", "purchase_price", "sale_price", "stock_quantity", "min_stock", "condition", "publication_year"} {
		assert.Contains(t, ae.Fields, f)
	}
}

func TestNewSaleItem(t *testing.T) {
	it, err := NewSaleItem(uuid.New(), 3, d("19.99"))
	require.NoError(t, err)
	assert.True(t, it.Subtotal.Equal(d("59.97")))

	_, err = NewSaleItem(uuid.Nil, 0, d("-1"))
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Len(t, ae.Fields, 3)
}

func TestSale_Totals(t *testing.T) {
	a, _ := NewSaleItem(uuid.New(), 2, d("20"))
	b, _ := NewSaleItem(uuid.New(), 1, d("15.5"))
	s := &Sale{
		ID:            uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427"),
		Items:         []SaleItem{a, b},
		Discount:      d("5.5"),
		Tax:           d("8"),
		PaymentMethod: PaymentCash,
	}
	assert.Equal(t, "1b4e28ba", s.Ref())
	assert.True(t, s.Subtotal().Equal(d("55.5")))
	assert.Equal(t, 3, s.TotalItems())
	assert.True(t, s.FinalTotal().Equal(d("58")))

	s.TotalAmount = s.FinalTotal()
	assert.NoError(t, s.Validate())
}

func TestSale_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Sale{PaymentMethod: PaymentCash}).Validate(), apperror.ErrEmptyCart)

	it, _ := NewSaleItem(uuid.New(), 1, d("10"))
	s := &Sale{Items: []SaleItem{it}, PaymentMethod: "Barter", Discount: d("-1")}
	err := s.Validate()
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "payment_method")
	assert.Contains(t, ae.Fields, "discount")
}

func TestInventoryMovement_SignedQuantity(t *testing.T) {
	assert.Equal(t, 4, (&InventoryMovement{MovementType: MovementIn, Quantity: 4}).SignedQuantity())
	assert.Equal(t, -4, (&InventoryMovement{MovementType: MovementOut, Quantity: 4}).SignedQuantity())
	assert.Equal(t, -2, (&InventoryMovement{MovementType: MovementAdjustment, Quantity: -2}).SignedQuantity())
}

func TestPriceChange_SaleChangePct(t *testing.T) {
	p := &PriceChange{SaleBefore: d("120"), SaleAfter: d("150")}
	assert.True(t, p.SaleChangePct().Equal(d("25")))

	p = &PriceChange{SaleBefore: d("30"), SaleAfter: d("20")}
	assert.True(t, p.SaleChangePct().Equal(d("-33.33")), p.SaleChangePct().String())

	p = &PriceChange{SaleBefore: decimal.Zero, SaleAfter: d("20")}
	assert.True(t, p.SaleChangePct().IsZero())
}

func TestDefaultSettings(t *testing.T) {
	keys := map[string]bool{}
	for _, s := range DefaultSettings() {
		keys[s.Key] = true
	}
	for _, k := range []string{ConfigAppName, ConfigVersion, ConfigCurrency, ConfigTaxRate, ConfigMinStockAlert} {
		assert.True(t, keys[k], k)
	}
}
