package service

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one stock change about to be written to the ledger.
// IN and OUT take a positive Quantity; ADJUSTMENT takes the signed delta.
type Entry struct {
	BookID      uuid.UUID
	Type        string
	Quantity    int
	StockBefore int
	StockAfter  int
	Reason      string
	ReferenceID *uuid.UUID
}

// Ledger is the append-only audit trail of stock changes. Record is only
// called from inside the catalog and checkout transactions.
type Ledger interface {
	Record(tx *gorm.DB, e Entry) (*model.InventoryMovement, error)
	History(ctx context.Context, bookID uuid.UUID) ([]dto.MovementResponse, error)
	List(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	Reconcile(ctx context.Context, bookID uuid.UUID) (*dto.ReconcileResponse, error)
}

type ledger struct {
	repo  repository.MovementRepository
	books repository.BookRepository
	now   Clock
}

func NewLedger(repo repository.MovementRepository, books repository.BookRepository, clock Clock) Ledger {
	return &ledger{repo: repo, books: books, now: clockOrDefault(clock)}
}

func (l *ledger) Record(tx *gorm.DB, e Entry) (*model.InventoryMovement, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	m := &model.InventoryMovement{
		ID:           uuid.New(),
		BookID:       e.BookID,
		MovementType: e.Type,
		Quantity:     e.Quantity,
		StockBefore:  e.StockBefore,
		StockAfter:   e.StockAfter,
		Reason:       e.Reason,
		ReferenceID:  e.ReferenceID,
		MovementDate: l.now(),
	}
	if err := l.repo.CreateTx(tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (e Entry) validate() error {
	fields := make(map[string]string)
	if e.BookID == uuid.Nil {
		fields["book_id"] = "required"
	}
	signed := e.Quantity
	switch e.Type {
	case model.MovementIn:
		if e.Quantity <= 0 {
			fields["quantity"] = "must be > 0 for IN"
		}
	case model.MovementOut:
		if e.Quantity <= 0 {
			fields["quantity"] = "must be > 0 for OUT"
		}
		signed = -e.Quantity
	case model.MovementAdjustment:
		if e.Quantity == 0 {
			fields["quantity"] = "must not be 0 for ADJUSTMENT"
		}
	default:
		fields["movement_type"] = "must be IN, OUT or ADJUSTMENT"
	}
	if e.StockAfter < 0 {
		fields["stock_after"] = "must be >= 0"
	}
	if len(fields) == 0 && e.StockBefore+signed != e.StockAfter {
		fields["stock_after"] = "does not match stock_before and quantity"
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func (l *ledger) History(ctx context.Context, bookID uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := l.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}
	rows, err := l.repo.History(ctx, bookID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(rows))
	for i := range rows {
		out = append(out, movementToResponse(&rows[i]))
	}
	return out, nil
}

func (l *ledger) List(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	f := repository.MovementFilter{Type: filter.Type, Page: filter.Page, Limit: filter.Limit}
	if filter.BookID != "" {
		id, err := uuid.Parse(filter.BookID)
		if err != nil {
			return nil, apperror.Validation(map[string]string{"book_id": "invalid uuid"})
		}
		f.BookID = &id
	}
	if filter.From != "" || filter.To != "" {
		r, err := ParseRange(filter.From, filter.To, l.now())
		if err != nil {
			return nil, err
		}
		from, to := r.Bounds()
		f.From, f.To = &from, &to
	}

	rows, total, err := l.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovementResponse, 0, len(rows))
	for i := range rows {
		data = append(data, movementToResponse(&rows[i]))
	}
	return &dto.MovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Reconcile checks that the signed sum of a book's movements equals its stock.
func (l *ledger) Reconcile(ctx context.Context, bookID uuid.UUID) (*dto.ReconcileResponse, error) {
	b, err := l.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	t, err := l.repo.Totals(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &dto.ReconcileResponse{
		BookID:        bookID.String(),
		StockQuantity: b.StockQuantity,
		LedgerSum:     t.Sum,
		Movements:     t.Count,
		Consistent:    t.Sum == b.StockQuantity,
	}, nil
}

func movementToResponse(m *model.InventoryMovement) dto.MovementResponse {
	r := dto.MovementResponse{
		ID:           m.ID.String(),
		BookID:       m.BookID.String(),
		Type:         m.MovementType,
		Quantity:     m.Quantity,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		Reason:       m.Reason,
		MovementDate: m.MovementDate.Format(time.RFC3339),
	}
	if m.Book != nil {
		r.BookTitle = m.Book.Title
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		r.ReferenceID = &ref
	}
	return r
}
