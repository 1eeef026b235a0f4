// backup dumps every table to a timestamped JSON file under BACKUP_PATH.
// Usage: go run ./cmd/backup
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookpos/internal/config"
	"bookpos/internal/infra"
	"bookpos/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// snapshot is the file layout. Sales carry their items.
type snapshot struct {
	CreatedAt time.Time                 `json:"created_at"`
	Driver    string                    `json:"driver"`
	Tables    map[string]int64          `json:"table_counts"`
	Books     []model.Book              `json:"books"`
	Sales     []model.Sale              `json:"sales"`
	Movements []model.InventoryMovement `json:"inventory_movements"`
	Prices    []model.PriceChange       `json:"price_changes"`
	Settings  []model.SystemConfig      `json:"system_config"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	snap, err := dump(context.Background(), db)
	if err != nil {
		log.Fatal().Err(err).Msg("dump failed")
	}
	snap.Driver = cfg.DBDriver

	path, err := write(snap, cfg.BackupPath)
	if err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}
	log.Info().
		Str("file", path).
		Interface("tables", snap.Tables).
		Msg("backup written")
}

// snapshotTx is one read-only snapshot: every SELECT in dump sees the same
// committed state on both postgres and mysql (InnoDB consistent reads).
var snapshotTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// dump reads all tables inside one snapshot transaction.
func dump(ctx context.Context, db *gorm.DB) (*snapshot, error) {
	snap := &snapshot{CreatedAt: time.Now().UTC()}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counts, err := infra.TableCounts(ctx, tx)
		if err != nil {
			return err
		}
		snap.Tables = counts
		if err := tx.Order("id").Find(&snap.Books).Error; err != nil {
			return fmt.Errorf("books: %w", err)
		}
		if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).Order("sale_date ASC, id ASC").Find(&snap.Sales).Error; err != nil {
			return fmt.Errorf("sales: %w", err)
		}
		if err := tx.Order("movement_date ASC, id ASC").Find(&snap.Movements).Error; err != nil {
			return fmt.Errorf("inventory_movements: %w", err)
		}
		if err := tx.Order("changed_at ASC, id ASC").Find(&snap.Prices).Error; err != nil {
			return fmt.Errorf("price_changes: %w", err)
		}
		if err := tx.Order(clauseKey(tx)).Find(&snap.Settings).Error; err != nil {
			return fmt.Errorf("system_config: %w", err)
		}
		return nil
	}, snapshotTx)
	return snap, err
}

// clauseKey quotes the "key" column, a reserved word on mysql.
func clauseKey(tx *gorm.DB) string {
	return tx.Statement.Quote("key")
}

func write(snap *snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("bookpos_backup_%s.json", snap.CreatedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
