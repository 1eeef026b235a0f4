package worker

// report_cron.go
// Background goroutine that, once a day at REPORT_HOUR (UTC), renders a day's
// summary PDF and queues it as an e-mail to the shop owner.

import (
	"context"
	"fmt"
	"time"

	"bookpos/internal/dto"
	"bookpos/internal/infra"
	"bookpos/internal/service"

	"github.com/rs/zerolog/log"
)

const reportTopSellers = 5

// Runs before this UTC hour report the previous day, which has just closed.
const reportSameDayFromHour = 12

// ReportSource is the read side the daily summary needs. service.ReportService satisfies it.
type ReportSource interface {
	SalesSummary(ctx context.Context, r service.DateRange) (*dto.SalesSummary, error)
	PaymentBreakdown(ctx context.Context, r service.DateRange) ([]dto.PaymentBreakdownRow, error)
	TopSellers(ctx context.Context, r service.DateRange, n int) ([]dto.TopSeller, error)
	LowStock(ctx context.Context) ([]dto.BookResponse, error)
	InventorySummary(ctx context.Context) (*dto.InventorySummary, error)
}

// DailyReportConfig holds all dependencies for the daily report goroutine.
type DailyReportConfig struct {
	Reports     ReportSource
	Emails      EmailEnqueuer
	ShopName    string
	StoragePath string
	To          string
	Hour        int              // UTC hour, 0-23
	Now         func() time.Time // defaults to time.Now in UTC
}

// StartDailyReport launches the scheduler. It is a no-op when no recipient is
// configured or Hour is outside 0-23, and respects ctx for graceful shutdown.
func StartDailyReport(ctx context.Context, cfg DailyReportConfig) {
	if cfg.To == "" || cfg.Hour < 0 || cfg.Hour > 23 {
		log.Info().Msg("daily_report: scheduler disabled")
		return
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	go func() {
		log.Info().Int("hour", cfg.Hour).Str("to", cfg.To).Msg("daily_report: started")
		for {
			now := cfg.Now()
			next := nextRun(now, cfg.Hour)
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info().Msg("daily_report: shutting down")
				return
			case <-timer.C:
				if err := RunDailyReport(ctx, cfg, next); err != nil {
					log.Error().Err(err).Msg("daily_report: run failed")
				}
			}
		}
	}()
}

// nextRun is the first hour:00 strictly after now, in now's location.
func nextRun(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// reportDay is the UTC calendar day a run at `at` summarises: the current day
// for evening runs, the previous one for runs before reportSameDayFromHour.
func reportDay(at time.Time) time.Time {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	if at.Hour() < reportSameDayFromHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// RunDailyReport builds the summary for reportDay(at) and queues the e-mail.
func RunDailyReport(ctx context.Context, cfg DailyReportConfig, at time.Time) error {
	day := reportDay(at)
	r := service.DateRange{From: day, To: day}

	summary, err := cfg.Reports.SalesSummary(ctx, r)
	if err != nil {
		return fmt.Errorf("sales summary: %w", err)
	}
	payments, err := cfg.Reports.PaymentBreakdown(ctx, r)
	if err != nil {
		return fmt.Errorf("payment breakdown: %w", err)
	}
	top, err := cfg.Reports.TopSellers(ctx, r, reportTopSellers)
	if err != nil {
		return fmt.Errorf("top sellers: %w", err)
	}
	low, err := cfg.Reports.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock: %w", err)
	}
	inv, err := cfg.Reports.InventorySummary(ctx)
	if err != nil {
		return fmt.Errorf("inventory summary: %w", err)
	}

	pdfPath, err := infra.GenerateDailyReportPDF(infra.DailyReport{
		ShopName:  cfg.ShopName,
		Day:       day,
		Summary:   *summary,
		Payments:  payments,
		Top:       top,
		LowStock:  low,
		Inventory: *inv,
	}, cfg.StoragePath)
	if err != nil {
		return err
	}

	job := EmailJobPayload{
		ToEmail: cfg.To,
		Subject: fmt.Sprintf("%s - daily summary %s", cfg.ShopName, day.Format("2006-01-02")),
		Body: fmt.Sprintf("Sales: %d\nRevenue: $%s\nLow stock titles: %d\n",
			summary.SalesCount, summary.Revenue.StringFixed(2), len(low)),
		PDFPath: pdfPath,
	}
	if err := cfg.Emails.EnqueueEmail(ctx, job); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	log.Info().Str("day", day.Format("2006-01-02")).Int64("sales", summary.SalesCount).
		Msg("daily_report: summary queued")
	return nil
}
