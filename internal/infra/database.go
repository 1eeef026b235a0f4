package infra

import (
	"context"
	"fmt"
	"strings"

	"bookpos/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for driver ("postgres" or "mysql"),
// runs AutoMigrate for every model, then applies idempotent SQL patches that
// GORM cannot express (CHECK constraints on postgres).
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Surface duplicate keys and FK violations as gorm.ErrDuplicatedKey /
		// gorm.ErrForeignKeyViolated on both dialects.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(withParseTime(dsn)), nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// withParseTime makes the mysql driver return DATETIME columns as time.Time.
func withParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// Models lists every table in creation order (parents first).
func Models() []any {
	return []any{
		&model.Book{},
		&model.Sale{},
		&model.SaleItem{},
		&model.InventoryMovement{},
		&model.PriceChange{},
		&model.SystemConfig{},
	}
}

// TableCounts returns the row count of every table in Models, keyed by
// table name.
func TableCounts(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	out := make(map[string]int64, len(Models()))
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse %T: %w", m, err)
		}
		var n int64
		if err := db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", stmt.Schema.Table, err)
		}
		out[stmt.Schema.Table] = n
	}
	return out, nil
}

// RunMigrations creates or updates the schema. Safe to call on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		if err := applySchemaPatches(db); err != nil {
			return fmt.Errorf("schema patches: %w", err)
		}
	}
	return nil
}

// applySchemaPatches adds the CHECK constraints that back the model
// invariants. Each block is guarded by an existence check so re-running on an
// already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	checks := []struct{ table, name, expr string }{
		{"books", "chk_books_purchase_price", "purchase_price >= 0"},
		{"books", "chk_books_sale_price", "sale_price >= 0"},
		{"books", "chk_books_stock_quantity", "stock_quantity >= 0"},
		{"books", "chk_books_min_stock", "min_stock >= 0"},
		{"books", "chk_books_condition", `"condition" IN ('New', 'Used - Like New', 'Used - Good', 'Used - Fair')`},
		{"sales", "chk_sales_total_amount", "total_amount >= 0"},
		{"sales", "chk_sales_discount", "discount >= 0"},
		{"sales", "chk_sales_tax", "tax >= 0"},
		{"sales", "chk_sales_payment_method", "payment_method IN ('Cash', 'Card', 'Transfer', 'Other')"},
		{"sale_items", "chk_sale_items_quantity", "quantity > 0"},
		{"sale_items", "chk_sale_items_unit_price", "unit_price >= 0"},
		{"inventory_movements", "chk_inventory_movements_type", "movement_type IN ('IN', 'OUT', 'ADJUSTMENT')"},
		{"inventory_movements", "chk_inventory_movements_stock_after", "stock_after >= 0"},
		{"price_changes", "chk_price_changes_prices", "purchase_after >= 0 AND sale_after >= 0"},
	}
	for _, c := range checks {
		sql := fmt.Sprintf(`
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
    ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
  END IF;
END $$`, c.name, c.table, c.name, c.expr)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", c.name, err)
		}
	}
	return nil
}
