package repository

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows List. From is inclusive, To exclusive.
type SaleFilter struct {
	From          *time.Time
	To            *time.Time
	PaymentMethod string
	Page          int
	Limit         int
}

type SaleRepository interface {
	// CreateTx inserts the sale header and its items.
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)
	CountItemsForBook(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return apperror.Storage("create sale", tx.Create(s).Error)
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	}).Preload("Items.Book")
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	if err := preloadItems(r.db.WithContext(ctx)).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound("sale", err)
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.From != nil {
		q = q.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sale_date < ?", *filter.To)
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", filter.PaymentMethod)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Storage("count sales", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 50, 200)

	var sales []model.Sale
	err := preloadItems(q).
		Order("sale_date DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error
	return sales, total, apperror.Storage("list sales", err)
}

func (r *saleRepo) CountItemsForBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SaleItem{}).Where("book_id = ?", bookID).Count(&n).Error
	return n, apperror.Storage("count sale items", err)
}
