package handler

import (
	"context"
	"net/http"
	"time"

	"bookpos/internal/infra"
	"bookpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

type queueHealth struct {
	Pending int64 `json:"pending"`
	Dead    int64 `json:"dead"`
}

type healthResponse struct {
	OK       bool                   `json:"ok"`
	Database string                 `json:"database"`
	Driver   string                 `json:"driver"`
	Redis    string                 `json:"redis"`
	Tables   map[string]int64       `json:"tables,omitempty"`
	Queues   map[string]queueHealth `json:"queues,omitempty"`
}

// Health godoc
// @Summary Liveness of the store, redis and the job queues, with row counts per table
// @Description Redis reports "disabled" when cache and jobs are off; that does not fail the check.
// @Tags system
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Database: "connected", Driver: db.Dialector.Name(), Redis: "disabled"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Database = "error"
		} else if counts, err := infra.TableCounts(ctx, db); err != nil {
			resp.Database = "error"
		} else {
			resp.Tables = counts
		}
		if rdb != nil {
			resp.Redis = "connected"
			if rdb.Ping(ctx).Err() != nil {
				resp.Redis = "error"
			} else {
				resp.Queues = queueStats(ctx, rdb)
			}
		}

		resp.OK = resp.Database == "connected" && resp.Redis != "error"
		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// queueStats reads backlog and dead letters per job queue; unreadable
// counters are left at zero.
func queueStats(ctx context.Context, rdb worker.ListClient) map[string]queueHealth {
	out := make(map[string]queueHealth, 2)
	for _, q := range []string{worker.QueueReceipt, worker.QueueEmail} {
		var h queueHealth
		h.Pending, _ = rdb.LLen(ctx, q).Result()
		h.Dead, _ = worker.DLQLength(ctx, rdb, q)
		out[q] = h
	}
	return out
}
