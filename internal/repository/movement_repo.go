package repository

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing ledger rows.
type MovementFilter struct {
	BookID *uuid.UUID
	Type   string
	From   *time.Time // inclusive
	To     *time.Time // exclusive
	Page   int
	Limit  int
}

// LedgerTotals is the signed sum of a book's movements.
type LedgerTotals struct {
	Sum   int   `gorm:"column:ledger_sum"`
	Count int64 `gorm:"column:movement_count"`
}

// MovementRepository is append-only: there is no update or delete.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.InventoryMovement) error
	History(ctx context.Context, bookID uuid.UUID) ([]model.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error)
	Totals(ctx context.Context, bookID uuid.UUID) (LedgerTotals, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.InventoryMovement) error {
	return apperror.Storage("record movement", tx.Create(m).Error)
}

func (r *movementRepo) History(ctx context.Context, bookID uuid.UUID) ([]model.InventoryMovement, error) {
	var rows []model.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("movement_date ASC").Order("id ASC").
		Find(&rows).Error
	return rows, apperror.Storage("movement history", err)
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryMovement{})
	if filter.BookID != nil {
		q = q.Where("book_id = ?", *filter.BookID)
	}
	if filter.Type != "" {
		q = q.Where("movement_type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("movement_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("movement_date < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Storage("count movements", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 100, 500)

	var rows []model.InventoryMovement
	err := q.Preload("Book").
		Order("movement_date DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error
	return rows, total, apperror.Storage("list movements", err)
}

func (r *movementRepo) Totals(ctx context.Context, bookID uuid.UUID) (LedgerTotals, error) {
	var t LedgerTotals
	err := r.db.WithContext(ctx).Model(&model.InventoryMovement{}).
		Select("COALESCE(SUM(CASE WHEN movement_type = ? THEN -quantity ELSE quantity END), 0) AS ledger_sum, COUNT(*) AS movement_count", model.MovementOut).
		Where("book_id = ?", bookID).
		Scan(&t).Error
	return t, apperror.Storage("ledger totals", err)
}
