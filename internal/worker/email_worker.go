package worker

// email_worker.go
// Processes email jobs from QueueEmail: receipts to customers and the daily
// summary to the shop owner, both through the SMTP mailer.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bookpos/internal/infra"

	"github.com/rs/zerolog/log"
)

// MaxJobAttempts bounds in-process retries before a job goes to the DLQ.
const MaxJobAttempts = 3

// retryBaseDelay is the first backoff step; it doubles on each retry.
var retryBaseDelay = time.Second

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// Sender delivers one e-mail. *infra.Mailer satisfies it.
type Sender interface {
	Send(to, subject, body, attachPath string) error
}

type EmailWorker struct {
	mailer Sender
}

func NewEmailWorker(mailer Sender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends the e-mail, retrying with backoff.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	err := withRetry(ctx, MaxJobAttempts, func(attempt int) error {
		err := w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
		if err != nil && !errors.Is(err, infra.ErrMailerDisabled) {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).
				Msg("email_worker: send failed")
		}
		return err
	})
	if errors.Is(err, infra.ErrMailerDisabled) {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: smtp not configured, dropping email")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: email sent")
	return nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (retryBaseDelay, then doubling). infra.ErrMailerDisabled is not retried.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := retryBaseDelay * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		if errors.Is(err, infra.ErrMailerDisabled) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
