package service

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/repository"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// defaultRangeDays applies when a report is requested without dates.
const defaultRangeDays = 30

// maxRangeYears is the longest window ParseRange accepts.
const maxRangeYears = 5

// DateRange is an inclusive range of UTC calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseRange reads YYYY-MM-DD bounds. A missing To means today, a missing
// From means defaultRangeDays ending at To.
func ParseRange(from, to string, now time.Time) (DateRange, error) {
	var r DateRange
	fields := make(map[string]string)
	if to == "" {
		r.To = truncateDay(now)
	} else if t, err := time.Parse(dateLayout, to); err == nil {
		r.To = t
	} else {
		fields["to"] = "must be YYYY-MM-DD"
	}
	if from == "" {
		r.From = r.To.AddDate(0, 0, -(defaultRangeDays - 1))
	} else if t, err := time.Parse(dateLayout, from); err == nil {
		r.From = t
	} else {
		fields["from"] = "must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return DateRange{}, apperror.Validation(fields)
	}
	if r.From.After(r.To) {
		return DateRange{}, apperror.Validation(map[string]string{"from": "must not be after to"})
	}
	if r.From.AddDate(maxRangeYears, 0, 0).Before(r.To) {
		return DateRange{}, apperror.Validation(map[string]string{"to": "range must not exceed 5 years"})
	}
	return r, nil
}

// Bounds is the half-open timestamp interval [From 00:00, To+1 00:00).
func (r DateRange) Bounds() (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// Days is the number of calendar days covered. Both ends are UTC midnights.
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From)/(24*time.Hour)) + 1
}

// Previous is the window of equal length ending the day before From.
func (r DateRange) Previous() DateRange {
	n := r.Days()
	return DateRange{From: r.From.AddDate(0, 0, -n), To: r.From.AddDate(0, 0, -1)}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ReportService answers read-only questions about sales and stock.
// None of its operations mutate state.
type ReportService interface {
	LowStock(ctx context.Context) ([]dto.BookResponse, error)
	SalesSummary(ctx context.Context, r DateRange) (*dto.SalesSummary, error)
	TopSellers(ctx context.Context, r DateRange, n int) ([]dto.TopSeller, error)
	StockDistribution(ctx context.Context, by string) ([]dto.DistributionRow, error)
	ComparePeriods(ctx context.Context, r DateRange) (*dto.PeriodComparison, error)
	InventorySummary(ctx context.Context) (*dto.InventorySummary, error)
	PaymentBreakdown(ctx context.Context, r DateRange) ([]dto.PaymentBreakdownRow, error)
	DailySales(ctx context.Context, r DateRange) ([]dto.DailySalesRow, error)
	ProfitByBook(ctx context.Context, r DateRange, n int) ([]dto.ProfitRow, error)
	MostValuable(ctx context.Context, n int) ([]dto.ValuableBook, error)
}

type reportService struct {
	repo  repository.ReportRepository
	books repository.BookRepository
}

func NewReportService(repo repository.ReportRepository, books repository.BookRepository) ReportService {
	return &reportService{repo: repo, books: books}
}

func (s *reportService) LowStock(ctx context.Context) ([]dto.BookResponse, error) {
	books, err := s.books.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		out = append(out, *bookToResponse(&books[i]))
	}
	return out, nil
}

func (s *reportService) SalesSummary(ctx context.Context, r DateRange) (*dto.SalesSummary, error) {
	from, to := r.Bounds()
	t, err := s.repo.SalesTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	avg := decimal.Zero
	if t.SalesCount > 0 {
		avg = t.Revenue.Div(decimal.NewFromInt(t.SalesCount)).Round(2)
	}
	return &dto.SalesSummary{
		From:          r.From.Format(dateLayout),
		To:            r.To.Format(dateLayout),
		SalesCount:    t.SalesCount,
		Revenue:       t.Revenue,
		TotalDiscount: t.TotalDiscount,
		TotalTax:      t.TotalTax,
		AverageSale:   avg,
	}, nil
}

func (s *reportService) TopSellers(ctx context.Context, r DateRange, n int) ([]dto.TopSeller, error) {
	if n < 1 {
		return nil, apperror.Validation(map[string]string{"limit": "must be > 0"})
	}
	from, to := r.Bounds()
	return s.repo.TopSellers(ctx, from, to, n)
}

func (s *reportService) StockDistribution(ctx context.Context, by string) ([]dto.DistributionRow, error) {
	switch by {
	case "", "genre":
		return s.repo.Distribution(ctx, "genre")
	case "condition":
		return s.repo.Distribution(ctx, "condition")
	default:
		return nil, apperror.Validation(map[string]string{"by": "must be genre or condition"})
	}
}

func (s *reportService) ComparePeriods(ctx context.Context, r DateRange) (*dto.PeriodComparison, error) {
	cur, err := s.SalesSummary(ctx, r)
	if err != nil {
		return nil, err
	}
	prev, err := s.SalesSummary(ctx, r.Previous())
	if err != nil {
		return nil, err
	}
	return &dto.PeriodComparison{
		Current:          *cur,
		Previous:         *prev,
		RevenueDelta:     cur.Revenue.Sub(prev.Revenue),
		CountDelta:       cur.SalesCount - prev.SalesCount,
		RevenueChangePct: percentChange(cur.Revenue, prev.Revenue),
		CountChangePct:   percentChange(decimal.NewFromInt(cur.SalesCount), decimal.NewFromInt(prev.SalesCount)),
	}, nil
}

// percentChange is (cur − prev) / prev × 100, or nil when prev is zero.
func percentChange(cur, prev decimal.Decimal) *decimal.Decimal {
	if prev.IsZero() {
		return nil
	}
	v := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	return &v
}

func (s *reportService) InventorySummary(ctx context.Context) (*dto.InventorySummary, error) {
	sum, err := s.repo.InventorySummary(ctx)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *reportService) PaymentBreakdown(ctx context.Context, r DateRange) ([]dto.PaymentBreakdownRow, error) {
	from, to := r.Bounds()
	return s.repo.PaymentBreakdown(ctx, from, to)
}

// DailySales returns one row per calendar day in the range, zero-filled.
func (s *reportService) DailySales(ctx context.Context, r DateRange) ([]dto.DailySalesRow, error) {
	from, to := r.Bounds()
	stamps, err := s.repo.SaleStamps(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rows := make([]dto.DailySalesRow, 0, r.Days())
	index := make(map[string]int, r.Days())
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(rows)
		rows = append(rows, dto.DailySalesRow{Day: key, Revenue: decimal.Zero})
	}
	for _, st := range stamps {
		i, ok := index[st.SaleDate.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		rows[i].SalesCount++
		rows[i].Revenue = rows[i].Revenue.Add(st.TotalAmount)
	}
	return rows, nil
}

func (s *reportService) ProfitByBook(ctx context.Context, r DateRange, n int) ([]dto.ProfitRow, error) {
	if n < 1 {
		return nil, apperror.Validation(map[string]string{"limit": "must be > 0"})
	}
	from, to := r.Bounds()
	return s.repo.ProfitByBook(ctx, from, to, n)
}

func (s *reportService) MostValuable(ctx context.Context, n int) ([]dto.ValuableBook, error) {
	if n < 1 {
		return nil, apperror.Validation(map[string]string{"limit": "must be > 0"})
	}
	return s.repo.MostValuable(ctx, n)
}
