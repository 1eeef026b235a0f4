package repository

import (
	"context"
	"errors"
	"strings"

	"bookpos/internal/apperror"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockGuard is returned by UpdateStockTx when the conditional update
// matched no row: the book is gone or the delta would take stock below zero.
var ErrStockGuard = errors.New("stock guard rejected update")

// BookFilter narrows List. Sort is one of title, author, stock, price, created.
type BookFilter struct {
	Query     string
	Genre     string
	Condition string
	LowStock  bool
	InStock   bool
	Sort      string
	Desc      bool
	Page      int
	Limit     int
}

// BookRepository defines the data access contract for catalog entries.
// Services depend on this interface, not on the concrete GORM implementation.
type BookRepository interface {
	CreateTx(tx *gorm.DB, b *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error)
	ListLowStock(ctx context.Context) ([]model.Book, error)
	// UpdateTx writes catalog attributes. Stock is never touched here.
	UpdateTx(tx *gorm.DB, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions; callers pass the tx instance
	FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Book, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type bookRepo struct{ db *gorm.DB }

func NewBookRepository(db *gorm.DB) BookRepository { return &bookRepo{db: db} }

func (r *bookRepo) DB() *gorm.DB { return r.db }

func (r *bookRepo) CreateTx(tx *gorm.DB, b *model.Book) error {
	if err := tx.Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.New(apperror.KindConflict, "a book with this ISBN already exists")
		}
		return apperror.Storage("create book", err)
	}
	return nil
}

func (r *bookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var b model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, notFound("book", err)
	}
	return &b, nil
}

func (r *bookRepo) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	var b model.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&b).Error; err != nil {
		return nil, notFound("book", err)
	}
	return &b, nil
}

var bookSortColumns = map[string]string{
	"title":   "title",
	"author":  "author",
	"stock":   "stock_quantity",
	"price":   "sale_price",
	"created": "created_at",
}

func (r *bookRepo) List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Book{})

	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", like, like, like)
	}
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
	}
	if filter.Condition != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: "condition"}, Value: filter.Condition})
	}
	if filter.LowStock {
		q = q.Where("stock_quantity <= min_stock")
	}
	if filter.InStock {
		q = q.Where("stock_quantity > 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Storage("count books", err)
	}

	col, ok := bookSortColumns[filter.Sort]
	if !ok {
		col = "title"
	}
	page, limit := normalizePage(filter.Page, filter.Limit, 50, 200)

	var books []model.Book
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: filter.Desc}).
		Order("id ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&books).Error
	return books, total, apperror.Storage("list books", err)
}

func (r *bookRepo) ListLowStock(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	err := r.db.WithContext(ctx).
		Where("stock_quantity <= min_stock").
		Order("stock_quantity ASC").Order("title ASC").Order("id ASC").
		Find(&books).Error
	return books, apperror.Storage("list low stock", err)
}

func (r *bookRepo) UpdateTx(tx *gorm.DB, b *model.Book) error {
	err := tx.Model(&model.Book{ID: b.ID}).
		Select("title", "author", "isbn", "genre", "publisher", "publication_year",
			"purchase_price", "sale_price", "min_stock", "condition", "description", "updated_at").
		Updates(b).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.New(apperror.KindConflict, "a book with this ISBN already exists")
	}
	return apperror.Storage("update book", err)
}

func (r *bookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Book{})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return apperror.New(apperror.KindConflict, "book is referenced by sales or the ledger")
		}
		return apperror.Storage("delete book", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("book")
	}
	return nil
}

// FindByIDsForUpdateTx locks the rows in id order so concurrent checkouts
// over overlapping carts cannot deadlock.
func (r *bookRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Book, error) {
	var books []model.Book
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&books).Error
	return books, apperror.Storage("lock books", err)
}

func (r *bookRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.Book{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return apperror.Storage("update stock", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrStockGuard
	}
	return nil
}

// notFound maps gorm.ErrRecordNotFound to a domain NotFound and anything else
// to a storage error.
func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what)
	}
	return apperror.Storage("find "+what, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
