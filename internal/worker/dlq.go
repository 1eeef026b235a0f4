package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the dead letter list of each queue: dlq:jobs:receipt.
const DLQPrefix = "dlq:"

// DLQEntry is a job that exhausted its attempts, kept for manual replay.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// SendToDLQ parks job on the dead letter list of queue. Failures to park are
// logged only: the job is lost, but the worker keeps running.
func SendToDLQ(ctx context.Context, rdb ListClient, queue string, job Job, cause error) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        cause.Error(),
		FailedAt:      time.Now().UTC(),
		Attempts:      MaxJobAttempts,
	}
	logger := log.With().Str("queue", queue).Str("job_type", job.Type).Logger()

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Error().Err(err).Msg("dlq: marshal entry")
		return
	}
	// The job may have failed because ctx was cancelled mid-shutdown.
	if err := rdb.LPush(context.WithoutCancel(ctx), DLQPrefix+queue, data).Err(); err != nil {
		logger.Error().Err(err).Msg("dlq: push failed, job dropped")
		return
	}
	logger.Warn().Err(cause).Msg("dlq: job parked")
}

// DLQLength is the number of parked jobs for queue.
func DLQLength(ctx context.Context, rdb ListClient, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
