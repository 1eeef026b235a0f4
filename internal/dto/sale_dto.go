package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	BookID   string `json:"book_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// PricingRequest selects the pricing policy. RealTotal means override mode;
// FixedDiscount means fixed mode; otherwise DiscountPercent applies.
type PricingRequest struct {
	DiscountPercent *decimal.Decimal `json:"discount_percent" validate:"omitempty,min=0,max=100"`
	FixedDiscount   *decimal.Decimal `json:"fixed_discount"   validate:"omitempty,min=0"`
	TaxPercent      *decimal.Decimal `json:"tax_percent"      validate:"omitempty,min=0,max=100"`
	RealTotal       *decimal.Decimal `json:"real_total"       validate:"omitempty,min=0"`
}

type QuoteRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PricingRequest
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=Cash Card Transfer Other"`
	CustomerName  *string           `json:"customer_name"  validate:"omitempty,max=160"`
	CustomerPhone *string           `json:"customer_phone" validate:"omitempty,max=40"`
	Notes         *string           `json:"notes"`
	// ReceiptEmail: optional; when present the receipt worker mails the PDF.
	ReceiptEmail *string `json:"receipt_email" validate:"omitempty,email"`
	PricingRequest
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	From          string `form:"from"` // YYYY-MM-DD, inclusive
	To            string `form:"to"`   // YYYY-MM-DD, inclusive
	PaymentMethod string `form:"payment_method"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	BookID    string          `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	SaleDate      string             `json:"sale_date"`
	PaymentMethod string             `json:"payment_method"`
	CustomerName  *string            `json:"customer_name"`
	CustomerPhone *string            `json:"customer_phone"`
	PricingMode   string             `json:"pricing_mode"`
	Items         []SaleItemResponse `json:"items"`
	TotalItems    int                `json:"total_items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	Notes         *string            `json:"notes"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type QuoteResponse struct {
	Items    []SaleItemResponse `json:"items"`
	Mode     string             `json:"mode"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Discount decimal.Decimal    `json:"discount"`
	Tax      decimal.Decimal    `json:"tax"`
	Total    decimal.Decimal    `json:"total"`
}
