package dto

// MovementFilter is bound from the query string of GET /v1/inventory/movements.
type MovementFilter struct {
	BookID string `form:"book_id" validate:"omitempty,uuid"`
	Type   string `form:"type"    validate:"omitempty,oneof=IN OUT ADJUSTMENT"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page,default=1"    validate:"min=1"`
	Limit  int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type MovementResponse struct {
	ID           string  `json:"id"`
	BookID       string  `json:"book_id"`
	BookTitle    string  `json:"book_title,omitempty"`
	Type         string  `json:"type"`
	Quantity     int     `json:"quantity"`
	StockBefore  int     `json:"stock_before"`
	StockAfter   int     `json:"stock_after"`
	Reason       string  `json:"reason"`
	ReferenceID  *string `json:"reference_id"`
	MovementDate string  `json:"movement_date"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ReconcileResponse compares the stored stock with the ledger.
type ReconcileResponse struct {
	BookID        string `json:"book_id"`
	StockQuantity int    `json:"stock_quantity"`
	LedgerSum     int    `json:"ledger_sum"`
	Movements     int64  `json:"movements"`
	Consistent    bool   `json:"consistent"`
}
