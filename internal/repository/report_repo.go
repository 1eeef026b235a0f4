package repository

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesTotals is the raw aggregate behind a sales summary.
type SalesTotals struct {
	SalesCount    int64
	Revenue       decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
}

// SaleStamp is the minimum needed to bucket sales by calendar day.
type SaleStamp struct {
	SaleDate    time.Time
	TotalAmount decimal.Decimal
}

// ReportRepository runs read-only aggregates. Every range is half-open
// [from, to) and every ordered query ends in a unique tie-break.
type ReportRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error)
	TopSellers(ctx context.Context, from, to time.Time, limit int) ([]dto.TopSeller, error)
	Distribution(ctx context.Context, column string) ([]dto.DistributionRow, error)
	InventorySummary(ctx context.Context) (dto.InventorySummary, error)
	PaymentBreakdown(ctx context.Context, from, to time.Time) ([]dto.PaymentBreakdownRow, error)
	SaleStamps(ctx context.Context, from, to time.Time) ([]SaleStamp, error)
	ProfitByBook(ctx context.Context, from, to time.Time, limit int) ([]dto.ProfitRow, error)
	MostValuable(ctx context.Context, limit int) ([]dto.ValuableBook, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) SalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error) {
	var t SalesTotals
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select(`COUNT(*) AS sales_count,
			COALESCE(SUM(total_amount), 0) AS revenue,
			COALESCE(SUM(discount), 0) AS total_discount,
			COALESCE(SUM(tax), 0) AS total_tax`).
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Scan(&t).Error
	return t, apperror.Storage("sales totals", err)
}

func (r *reportRepo) TopSellers(ctx context.Context, from, to time.Time, limit int) ([]dto.TopSeller, error) {
	var rows []dto.TopSeller
	err := r.db.WithContext(ctx).Table("sale_items AS si").
		Select(`b.id AS book_id, b.title AS title, b.author AS author,
			SUM(si.quantity) AS units_sold,
			SUM(si.subtotal) AS revenue,
			COUNT(DISTINCT si.sale_id) AS sales_count`).
		Joins("JOIN sales s ON s.id = si.sale_id").
		Joins("JOIN books b ON b.id = si.book_id").
		Where("s.sale_date >= ? AND s.sale_date < ?", from, to).
		Group("b.id, b.title, b.author").
		Order("units_sold DESC").Order("b.title ASC").Order("b.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, apperror.Storage("top sellers", err)
}

// Distribution groups the catalog by column ("genre" or "condition").
// A NULL genre is reported as the empty group.
func (r *reportRepo) Distribution(ctx context.Context, column string) ([]dto.DistributionRow, error) {
	col := r.db.Statement.Quote(column)
	group := "COALESCE(" + col + ", '')"
	var rows []dto.DistributionRow
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Select(group + ` AS ` + r.db.Statement.Quote("group") + `,
			COUNT(*) AS titles,
			COALESCE(SUM(stock_quantity), 0) AS units,
			COALESCE(SUM(sale_price * stock_quantity), 0) AS value`).
		Group(group).
		Order("units DESC").Order(group + " ASC").
		Scan(&rows).Error
	return rows, apperror.Storage("stock distribution", err)
}

func (r *reportRepo) InventorySummary(ctx context.Context) (dto.InventorySummary, error) {
	var s dto.InventorySummary
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Select(`COUNT(*) AS titles,
			COALESCE(SUM(stock_quantity), 0) AS units,
			COALESCE(SUM(sale_price * stock_quantity), 0) AS value,
			COALESCE(SUM(purchase_price * stock_quantity), 0) AS cost_value,
			COALESCE(SUM(CASE WHEN stock_quantity <= min_stock THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN stock_quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count`).
		Scan(&s).Error
	return s, apperror.Storage("inventory summary", err)
}

func (r *reportRepo) PaymentBreakdown(ctx context.Context, from, to time.Time) ([]dto.PaymentBreakdownRow, error) {
	var rows []dto.PaymentBreakdownRow
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("payment_method, COUNT(*) AS sales_count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Group("payment_method").
		Order("revenue DESC").Order("payment_method ASC").
		Scan(&rows).Error
	return rows, apperror.Storage("payment breakdown", err)
}

// SaleStamps returns sale dates and totals in the range, oldest first.
// Day bucketing happens in the service so it does not depend on the SQL dialect.
func (r *reportRepo) SaleStamps(ctx context.Context, from, to time.Time) ([]SaleStamp, error) {
	var rows []SaleStamp
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("sale_date, total_amount").
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Order("sale_date ASC").Order("id ASC").
		Scan(&rows).Error
	return rows, apperror.Storage("sale stamps", err)
}

// ProfitByBook is units sold times the current catalog margin
// (sale_price - purchase_price). Line subtotals are ignored, so a later
// price change moves past profit too. Books without a purchase price are
// left out.
func (r *reportRepo) ProfitByBook(ctx context.Context, from, to time.Time, limit int) ([]dto.ProfitRow, error) {
	var rows []dto.ProfitRow
	err := r.db.WithContext(ctx).Table("sale_items AS si").
		Select(`b.id AS book_id, b.title AS title,
			SUM(si.quantity) AS units_sold,
			SUM(si.quantity * b.sale_price) AS revenue,
			SUM(si.quantity * b.purchase_price) AS cost,
			SUM(si.quantity * (b.sale_price - b.purchase_price)) AS profit`).
		Joins("JOIN sales s ON s.id = si.sale_id").
		Joins("JOIN books b ON b.id = si.book_id").
		Where("s.sale_date >= ? AND s.sale_date < ? AND b.purchase_price > 0", from, to).
		Group("b.id, b.title").
		Order("SUM(si.quantity * (b.sale_price - b.purchase_price)) DESC").
		Order("b.title ASC").Order("b.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, apperror.Storage("profit by book", err)
}

func (r *reportRepo) MostValuable(ctx context.Context, limit int) ([]dto.ValuableBook, error) {
	var rows []dto.ValuableBook
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Select("id AS book_id, title, author, stock_quantity, sale_price, sale_price * stock_quantity AS total_value").
		Where("stock_quantity > 0").
		Order("sale_price * stock_quantity DESC").Order("title ASC").Order("id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, apperror.Storage("most valuable", err)
}
