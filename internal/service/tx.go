package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

// stockMu serializes every stock check-and-write in the process: checkout and
// manual adjustments. Row locks inside the transaction back it up.
var stockMu sync.Mutex

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Clock returns the current time. Services store UTC timestamps.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return utcNow
	}
	return func() time.Time { return c().UTC() }
}
