package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF receipt of a
// committed sale and, when the customer left an address, queues the e-mail.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bookpos/internal/apperror"
	"bookpos/internal/infra"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	SaleID string `json:"sale_id"`
	Email  string `json:"email,omitempty"`
}

// SaleLoader loads a sale with its items and books.
type SaleLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

// EmailEnqueuer queues an e-mail job.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReceiptWorker struct {
	sales       SaleLoader
	emails      EmailEnqueuer
	shopName    string
	storagePath string
}

func NewReceiptWorker(sales SaleLoader, emails EmailEnqueuer, shopName, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, emails: emails, shopName: shopName, storagePath: storagePath}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload
//  2. Load the sale (items + books)
//  3. Render the PDF receipt
//  4. Enqueue an e-mail job when an address was given
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return nil
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
			return nil
		}
		return fmt.Errorf("load sale: %w", err)
	}

	var pdfPath string
	err = withRetry(ctx, MaxJobAttempts, func(attempt int) error {
		p, err := infra.GenerateReceiptPDF(sale, w.shopName, w.storagePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("sale_id", payload.SaleID).
				Msg("receipt_worker: PDF generation failed")
			return err
		}
		pdfPath = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	log.Info().Str("pdf", pdfPath).Str("sale_id", payload.SaleID).Msg("receipt_worker: receipt generated")

	if payload.Email == "" || w.emails == nil {
		return nil
	}
	job := EmailJobPayload{
		ToEmail: payload.Email,
		Subject: fmt.Sprintf("%s - receipt %s", w.shopName, sale.Ref()),
		Body: fmt.Sprintf("Thank you for shopping at %s.\nTotal: $%s\nYour receipt is attached.\n",
			w.shopName, sale.TotalAmount.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: failed to enqueue email")
		return nil
	}
	log.Info().Str("sale_id", payload.SaleID).Msg("receipt_worker: email job enqueued")
	return nil
}
