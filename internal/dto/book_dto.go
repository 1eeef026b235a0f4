package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateBookRequest struct {
	Title           string          `json:"title"            validate:"required,max=255"`
	Author          string          `json:"author"           validate:"required,max=255"`
	ISBN            *string         `json:"isbn"             validate:"omitempty,max=32"`
	Genre           *string         `json:"genre"            validate:"omitempty,max=80"`
	Publisher       *string         `json:"publisher"        validate:"omitempty,max=160"`
	PublicationYear *int            `json:"publication_year" validate:"omitempty,min=0,max=9999"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"   validate:"min=0"`
	SalePrice       decimal.Decimal `json:"sale_price"       validate:"min=0"`
	StockQuantity   int             `json:"stock_quantity"   validate:"min=0"`
	// MinStock falls back to the min_stock_alert setting when omitted.
	MinStock    *int    `json:"min_stock"   validate:"omitempty,min=0"`
	Condition   string  `json:"condition"   validate:"omitempty,max=40"`
	Description *string `json:"description"`
}

// UpdateBookRequest edits catalog attributes. Stock is not editable here;
// use AdjustStockRequest so the change lands in the ledger.
type UpdateBookRequest struct {
	Title           *string          `json:"title"            validate:"omitempty,min=1,max=255"`
	Author          *string          `json:"author"           validate:"omitempty,min=1,max=255"`
	ISBN            *string          `json:"isbn"             validate:"omitempty,max=32"`
	Genre           *string          `json:"genre"            validate:"omitempty,max=80"`
	Publisher       *string          `json:"publisher"        validate:"omitempty,max=160"`
	PublicationYear *int             `json:"publication_year" validate:"omitempty,min=0,max=9999"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"   validate:"omitempty,min=0"`
	SalePrice       *decimal.Decimal `json:"sale_price"       validate:"omitempty,min=0"`
	MinStock        *int             `json:"min_stock"        validate:"omitempty,min=0"`
	Condition       *string          `json:"condition"        validate:"omitempty,max=40"`
	Description     *string          `json:"description"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3,max=255"`
	// Restock records a positive delta as IN instead of ADJUSTMENT.
	Restock bool `json:"restock"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type BookFilter struct {
	Query     string `form:"q"`
	Genre     string `form:"genre"`
	Condition string `form:"condition"`
	LowStock  bool   `form:"low_stock"`
	InStock   bool   `form:"in_stock"`
	Sort      string `form:"sort,default=title" validate:"oneof=title author stock price created"`
	Desc      bool   `form:"desc"`
	Page      int    `form:"page,default=1"     validate:"min=1"`
	Limit     int    `form:"limit,default=50"   validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BookResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            *string         `json:"isbn"`
	Genre           *string         `json:"genre"`
	Publisher       *string         `json:"publisher"`
	PublicationYear *int            `json:"publication_year"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	StockQuantity   int             `json:"stock_quantity"`
	MinStock        int             `json:"min_stock"`
	Condition       string          `json:"condition"`
	Description     *string         `json:"description"`
	ProfitMargin    decimal.Decimal `json:"profit_margin"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStock        bool            `json:"low_stock"`
	OutOfStock      bool            `json:"out_of_stock"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type BookListResponse struct {
	Data       []BookResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// PriceCheckResponse is returned by the public price check endpoint (no auth required).
type PriceCheckResponse struct {
	Title          string          `json:"title"`
	Author         string          `json:"author"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	StockAvailable int             `json:"stock_available"`
	Condition      string          `json:"condition"`
}

// PriceHistoryQuery pages GET /v1/books/:id/price-history.
type PriceHistoryQuery struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

type PriceChangeResponse struct {
	ID             string          `json:"id"`
	PurchaseBefore decimal.Decimal `json:"purchase_before"`
	PurchaseAfter  decimal.Decimal `json:"purchase_after"`
	SaleBefore     decimal.Decimal `json:"sale_before"`
	SaleAfter      decimal.Decimal `json:"sale_after"`
	SaleChangePct  decimal.Decimal `json:"sale_change_pct"`
	ChangedAt      string          `json:"changed_at"`
}

type PriceHistoryResponse struct {
	BookID string                `json:"book_id"`
	Data   []PriceChangeResponse `json:"data"`
	Total  int64                 `json:"total"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
}
