package dto

import "github.com/shopspring/decimal"

// RangeQuery is the inclusive calendar-date range accepted by report endpoints.
// Empty values default to the last 30 days ending today.
type RangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type TopQuery struct {
	RangeQuery
	Limit int `form:"limit,default=10" validate:"min=1,max=100"`
}

type DistributionQuery struct {
	By string `form:"by,default=genre" validate:"oneof=genre condition"`
}

// ─── Report rows ────────────────────────────────────────────────────────────

type SalesSummary struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	SalesCount    int64           `json:"sales_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	AverageSale   decimal.Decimal `json:"average_sale"`
}

type TopSeller struct {
	BookID     string          `json:"book_id"`
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	UnitsSold  int64           `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	SalesCount int64           `json:"sales_count"`
}

type DistributionRow struct {
	Group  string          `json:"group"`
	Titles int64           `json:"titles"`
	Units  int64           `json:"units"`
	Value  decimal.Decimal `json:"value"`
}

type PeriodComparison struct {
	Current      SalesSummary    `json:"current"`
	Previous     SalesSummary    `json:"previous"`
	RevenueDelta decimal.Decimal `json:"revenue_delta"`
	CountDelta   int64           `json:"count_delta"`
	// Nil when the previous period had no revenue (or no sales).
	RevenueChangePct *decimal.Decimal `json:"revenue_change_pct"`
	CountChangePct   *decimal.Decimal `json:"count_change_pct"`
}

type InventorySummary struct {
	Titles          int64           `json:"titles"`
	Units           int64           `json:"units"`
	Value           decimal.Decimal `json:"value"`
	CostValue       decimal.Decimal `json:"cost_value"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
}

type PaymentBreakdownRow struct {
	PaymentMethod string          `json:"payment_method"`
	SalesCount    int64           `json:"sales_count"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type DailySalesRow struct {
	Day        string          `json:"day"`
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type ProfitRow struct {
	BookID    string          `json:"book_id"`
	Title     string          `json:"title"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

type ValuableBook struct {
	BookID        string          `json:"book_id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	StockQuantity int             `json:"stock_quantity"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	TotalValue    decimal.Decimal `json:"total_value"`
}
