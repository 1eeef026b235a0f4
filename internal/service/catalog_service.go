package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const reasonInitialStock = "Initial stock"

// PriceCache fronts the public price check. Implementations must tolerate
// being unavailable: a miss is always safe.
type PriceCache interface {
	Get(ctx context.Context, isbn string) (*dto.PriceCheckResponse, bool)
	Set(ctx context.Context, isbn string, v *dto.PriceCheckResponse)
	Invalidate(ctx context.Context, isbns ...string)
}

// CatalogService defines the business logic contract for books.
type CatalogService interface {
	Create(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error)
	Search(ctx context.Context, filter dto.BookFilter) (*dto.BookListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest) (*dto.BookResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.BookResponse, error)
	PriceCheck(ctx context.Context, isbn string) (*dto.PriceCheckResponse, error)
	PriceHistory(ctx context.Context, id uuid.UUID, q dto.PriceHistoryQuery) (*dto.PriceHistoryResponse, error)
}

type catalogService struct {
	repo      repository.BookRepository
	sales     repository.SaleRepository
	movements repository.MovementRepository
	history   repository.PriceHistoryRepository // optional
	ledger    Ledger
	settings  SettingsService // optional
	cache     PriceCache      // optional
	now       Clock
}

func NewCatalogService(
	repo repository.BookRepository,
	sales repository.SaleRepository,
	movements repository.MovementRepository,
	history repository.PriceHistoryRepository,
	ledger Ledger,
	settings SettingsService,
	cache PriceCache,
	clock Clock,
) CatalogService {
	return &catalogService{
		repo:      repo,
		sales:     sales,
		movements: movements,
		history:   history,
		ledger:    ledger,
		settings:  settings,
		cache:     cache,
		now:       clockOrDefault(clock),
	}
}

// ── Create ───────────────────────────────────────────────────────────────────
// The book row and its initial IN movement commit together.

func (s *catalogService) Create(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error) {
	now := s.now()
	b := &model.Book{
		ID:              uuid.New(),
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		PurchasePrice:   req.PurchasePrice,
		SalePrice:       req.SalePrice,
		StockQuantity:   req.StockQuantity,
		Condition:       req.Condition,
		Description:     req.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.MinStock != nil {
		b.MinStock = *req.MinStock
	} else {
		b.MinStock = s.defaultMinStock(ctx)
	}
	b.Normalize()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureISBNFree(ctx, b.ISBN, uuid.Nil); err != nil {
		return nil, err
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, b); err != nil {
			return err
		}
		if b.StockQuantity == 0 {
			return nil
		}
		_, err := s.ledger.Record(tx, Entry{
			BookID:      b.ID,
			Type:        model.MovementIn,
			Quantity:    b.StockQuantity,
			StockBefore: 0,
			StockAfter:  b.StockQuantity,
			Reason:      reasonInitialStock,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("book_id", b.ID.String()).Str("title", b.Title).Int("stock", b.StockQuantity).Msg("book created")
	return bookToResponse(b), nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return bookToResponse(b), nil
}

func (s *catalogService) Search(ctx context.Context, filter dto.BookFilter) (*dto.BookListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	books, total, err := s.repo.List(ctx, repository.BookFilter{
		Query:     filter.Query,
		Genre:     filter.Genre,
		Condition: filter.Condition,
		LowStock:  filter.LowStock,
		InStock:   filter.InStock,
		Sort:      filter.Sort,
		Desc:      filter.Desc,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		data = append(data, *bookToResponse(&books[i]))
	}
	return &dto.BookListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// ── Update ───────────────────────────────────────────────────────────────────
// A price edit writes a price_changes row in the same transaction.

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest) (*dto.BookResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var oldISBN string
	if b.ISBN != nil {
		oldISBN = *b.ISBN
	}
	oldPurchase, oldSale := b.PurchasePrice, b.SalePrice

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.ISBN != nil {
		b.ISBN = req.ISBN
	}
	if req.Genre != nil {
		b.Genre = req.Genre
	}
	if req.Publisher != nil {
		b.Publisher = req.Publisher
	}
	if req.PublicationYear != nil {
		b.PublicationYear = req.PublicationYear
	}
	if req.PurchasePrice != nil {
		b.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		b.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		b.MinStock = *req.MinStock
	}
	if req.Condition != nil {
		b.Condition = *req.Condition
	}
	if req.Description != nil {
		b.Description = req.Description
	}
	b.Normalize()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureISBNFree(ctx, b.ISBN, b.ID); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now()

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, b); err != nil {
			return err
		}
		if s.history == nil || (b.PurchasePrice.Equal(oldPurchase) && b.SalePrice.Equal(oldSale)) {
			return nil
		}
		return s.history.CreateTx(tx, &model.PriceChange{
			ID:             uuid.New(),
			BookID:         b.ID,
			PurchaseBefore: oldPurchase,
			PurchaseAfter:  b.PurchasePrice,
			SaleBefore:     oldSale,
			SaleAfter:      b.SalePrice,
			ChangedAt:      b.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, oldISBN, b.ISBN)
	return bookToResponse(b), nil
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Only never-stocked, never-sold books can be removed. Anything with sale
// lines or ledger rows stays so history is never orphaned.

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	lines, err := s.sales.CountItemsForBook(ctx, id)
	if err != nil {
		return err
	}
	if lines > 0 {
		return apperror.Newf(apperror.KindConflict, "book %q has %d sale lines and cannot be deleted", b.Title, lines)
	}
	t, err := s.movements.Totals(ctx, id)
	if err != nil {
		return err
	}
	if t.Count > 0 {
		return apperror.Newf(apperror.KindConflict, "book %q has %d ledger movements and cannot be deleted", b.Title, t.Count)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, "", b.ISBN)
	log.Info().Str("book_id", id.String()).Msg("book deleted")
	return nil
}

// ── AdjustStock ──────────────────────────────────────────────────────────────
// Shares stockMu with checkout so a manual correction cannot interleave with
// a sale touching the same book.

func (s *catalogService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.BookResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if req.Delta == 0 {
		return nil, apperror.Validation(map[string]string{"delta": "must not be 0"})
	}
	if reason == "" {
		return nil, apperror.Validation(map[string]string{"reason": "required"})
	}

	stockMu.Lock()
	defer stockMu.Unlock()

	var book model.Book
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDsForUpdateTx(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperror.NotFound("book")
		}
		book = locked[0]

		before := book.StockQuantity
		after := before + req.Delta
		if after < 0 {
			return apperror.Newf(apperror.KindInvalidResult,
				"adjustment of %d would leave %q with %d copies", req.Delta, book.Title, after)
		}
		if err := s.repo.UpdateStockTx(tx, id, req.Delta); err != nil {
			if errors.Is(err, repository.ErrStockGuard) {
				return apperror.Newf(apperror.KindInvalidResult, "stock of %q changed during the adjustment", book.Title)
			}
			return err
		}

		entry := Entry{
			BookID:      id,
			Type:        model.MovementAdjustment,
			Quantity:    req.Delta,
			StockBefore: before,
			StockAfter:  after,
			Reason:      reason,
		}
		if req.Restock && req.Delta > 0 {
			entry.Type = model.MovementIn
		}
		if _, err := s.ledger.Record(tx, entry); err != nil {
			return err
		}
		book.StockQuantity = after
		return nil
	})
	if err != nil {
		return nil, err
	}

	book.UpdatedAt = s.now()
	s.invalidate(ctx, "", book.ISBN)
	log.Info().
		Str("book_id", id.String()).
		Int("delta", req.Delta).
		Int("stock", book.StockQuantity).
		Str("reason", reason).
		Msg("stock adjusted")
	return bookToResponse(&book), nil
}

// ── PriceCheck ───────────────────────────────────────────────────────────────

func (s *catalogService) PriceCheck(ctx context.Context, isbn string) (*dto.PriceCheckResponse, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, apperror.Validation(map[string]string{"isbn": "required"})
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, isbn); ok {
			return v, nil
		}
	}
	b, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	resp := &dto.PriceCheckResponse{
		Title:          b.Title,
		Author:         b.Author,
		SalePrice:      b.SalePrice,
		StockAvailable: b.StockQuantity,
		Condition:      b.Condition,
	}
	if s.cache != nil {
		s.cache.Set(ctx, isbn, resp)
	}
	return resp, nil
}

func (s *catalogService) PriceHistory(ctx context.Context, id uuid.UUID, q dto.PriceHistoryQuery) (*dto.PriceHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	resp := &dto.PriceHistoryResponse{BookID: id.String(), Data: []dto.PriceChangeResponse{}, Page: q.Page, Limit: q.Limit}
	if s.history == nil {
		return resp, nil
	}
	rows, total, err := s.history.ListByBook(ctx, id, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	resp.Total = total
	for i := range rows {
		p := &rows[i]
		resp.Data = append(resp.Data, dto.PriceChangeResponse{
			ID:             p.ID.String(),
			PurchaseBefore: p.PurchaseBefore,
			PurchaseAfter:  p.PurchaseAfter,
			SaleBefore:     p.SaleBefore,
			SaleAfter:      p.SaleAfter,
			SaleChangePct:  p.SaleChangePct(),
			ChangedAt:      p.ChangedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (s *catalogService) defaultMinStock(ctx context.Context) int {
	if s.settings == nil {
		return model.DefaultMinStock
	}
	return s.settings.MinStockAlert(ctx)
}

func (s *catalogService) ensureISBNFree(ctx context.Context, isbn *string, self uuid.UUID) error {
	if isbn == nil {
		return nil
	}
	existing, err := s.repo.FindByISBN(ctx, *isbn)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return apperror.New(apperror.KindConflict, fmt.Sprintf("ISBN %s is already used by %q", *isbn, existing.Title))
	}
	return nil
}

func (s *catalogService) invalidate(ctx context.Context, old string, current *string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, 2)
	if old != "" {
		keys = append(keys, old)
	}
	if current != nil && *current != old {
		keys = append(keys, *current)
	}
	if len(keys) > 0 {
		s.cache.Invalidate(ctx, keys...)
	}
}

func bookToResponse(b *model.Book) *dto.BookResponse {
	return &dto.BookResponse{
		ID:              b.ID.String(),
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		PurchasePrice:   b.PurchasePrice,
		SalePrice:       b.SalePrice,
		StockQuantity:   b.StockQuantity,
		MinStock:        b.MinStock,
		Condition:       b.Condition,
		Description:     b.Description,
		ProfitMargin:    b.ProfitMargin().Round(2),
		TotalValue:      b.TotalValue(),
		LowStock:        b.IsLowStock(),
		OutOfStock:      b.IsOutOfStock(),
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}
