package repository

import (
	"context"

	"bookpos/internal/apperror"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceHistoryRepository stores the price changes made through catalog updates.
type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, p *model.PriceChange) error
	ListByBook(ctx context.Context, bookID uuid.UUID, page, limit int) ([]model.PriceChange, int64, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, p *model.PriceChange) error {
	return apperror.Storage("create price change", tx.Create(p).Error)
}

// ListByBook returns one page of a book's price changes, newest first.
func (r *priceHistoryRepo) ListByBook(ctx context.Context, bookID uuid.UUID, page, limit int) ([]model.PriceChange, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.PriceChange{}).
		Where("book_id = ?", bookID).
		Count(&total).Error; err != nil {
		return nil, 0, apperror.Storage("count price changes", err)
	}

	var rows []model.PriceChange
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("changed_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, apperror.Storage("list price changes", err)
}
