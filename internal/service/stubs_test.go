package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/repository"
	"bookpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. Services call them with a nil *gorm.DB because
// DB() returns nil, which makes runTx call the closure directly.

// stubBookRepo is an in-memory BookRepository.
type stubBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]*model.Book
}

func newStubBookRepo() *stubBookRepo {
	return &stubBookRepo{books: make(map[uuid.UUID]*model.Book)}
}

func (r *stubBookRepo) CreateTx(_ *gorm.DB, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ISBN != nil {
		for _, other := range r.books {
			if other.ISBN != nil && *other.ISBN == *b.ISBN {
				return apperror.New(apperror.KindConflict, "a book with this ISBN already exists")
			}
		}
	}
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *stubBookRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, apperror.NotFound("book")
	}
	cp := *b
	return &cp, nil
}

func (r *stubBookRepo) FindByISBN(_ context.Context, isbn string) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN != nil && *b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("book")
}

func (r *stubBookRepo) List(_ context.Context, _ repository.BookFilter) ([]model.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (r *stubBookRepo) ListLowStock(_ context.Context) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Book
	for _, b := range r.books {
		if b.IsLowStock() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (r *stubBookRepo) UpdateTx(_ *gorm.DB, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.books[b.ID]
	if !ok {
		return apperror.NotFound("book")
	}
	stock := cur.StockQuantity
	cp := *b
	cp.StockQuantity = stock
	r.books[b.ID] = &cp
	return nil
}

func (r *stubBookRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return apperror.NotFound("book")
	}
	delete(r.books, id)
	return nil
}

func (r *stubBookRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Book
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBookRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok || b.StockQuantity+delta < 0 {
		return repository.ErrStockGuard
	}
	b.StockQuantity += delta
	return nil
}

func (r *stubBookRepo) DB() *gorm.DB { return nil }

func (r *stubBookRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[id].StockQuantity
}

var _ repository.BookRepository = (*stubBookRepo)(nil)

// stubMovementRepo keeps the ledger in insertion order.
type stubMovementRepo struct {
	mu   sync.Mutex
	rows []model.InventoryMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *m)
	return nil
}

func (r *stubMovementRepo) History(_ context.Context, bookID uuid.UUID) ([]model.InventoryMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range r.rows {
		if m.BookID == bookID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]model.InventoryMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for i := len(r.rows) - 1; i >= 0; i-- {
		m := r.rows[i]
		if f.BookID != nil && m.BookID != *f.BookID {
			continue
		}
		if f.Type != "" && m.MovementType != f.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) Totals(_ context.Context, bookID uuid.UUID) (repository.LedgerTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t repository.LedgerTotals
	for _, m := range r.rows {
		if m.BookID == bookID {
			t.Sum += m.SignedQuantity()
			t.Count++
		}
	}
	return t, nil
}

func (r *stubMovementRepo) all() []model.InventoryMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.InventoryMovement(nil), r.rows...)
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// stubSaleRepo stores committed sales by id.
type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	order []uuid.UUID
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	r.sales[s.ID] = &cp
	r.order = append(r.order, s.ID)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, apperror.NotFound("sale")
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) List(_ context.Context, f repository.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for i := len(r.order) - 1; i >= 0; i-- {
		s := r.sales[r.order[i]]
		if f.PaymentMethod != "" && s.PaymentMethod != f.PaymentMethod {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) CountItemsForBook(_ context.Context, bookID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sales {
		for _, it := range s.Items {
			if it.BookID == bookID {
				n++
			}
		}
	}
	return n, nil
}

func (r *stubSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubPriceHistoryRepo appends price changes in memory.
type stubPriceHistoryRepo struct {
	mu   sync.Mutex
	rows []model.PriceChange
}

func (r *stubPriceHistoryRepo) CreateTx(_ *gorm.DB, p *model.PriceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *p)
	return nil
}

func (r *stubPriceHistoryRepo) ListByBook(_ context.Context, bookID uuid.UUID, _, _ int) ([]model.PriceChange, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PriceChange
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].BookID == bookID {
			out = append(out, r.rows[i])
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.PriceHistoryRepository = (*stubPriceHistoryRepo)(nil)

// stubSettingsRepo is a map-backed system_config.
type stubSettingsRepo struct {
	values map[string]string
}

func newStubSettingsRepo(kv ...string) *stubSettingsRepo {
	r := &stubSettingsRepo{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.values[kv[i]] = kv[i+1]
	}
	return r
}

func (r *stubSettingsRepo) Get(_ context.Context, key string) (*model.SystemConfig, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, apperror.NotFound("setting")
	}
	return &model.SystemConfig{Key: key, Value: v}, nil
}

func (r *stubSettingsRepo) List(_ context.Context) ([]model.SystemConfig, error) {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.SystemConfig, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.SystemConfig{Key: k, Value: r.values[k]})
	}
	return out, nil
}

func (r *stubSettingsRepo) Set(_ context.Context, key, value string) (*model.SystemConfig, error) {
	r.values[key] = value
	return &model.SystemConfig{Key: key, Value: value}, nil
}

func (r *stubSettingsRepo) SeedDefaults(_ context.Context, defaults []model.SystemConfig) error {
	for _, d := range defaults {
		if _, ok := r.values[d.Key]; !ok {
			r.values[d.Key] = d.Value
		}
	}
	return nil
}

var _ repository.SettingsRepository = (*stubSettingsRepo)(nil)

// stubCache records invalidations.
type stubCache struct {
	mu          sync.Mutex
	entries     map[string]*dto.PriceCheckResponse
	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*dto.PriceCheckResponse)}
}

func (c *stubCache) Get(_ context.Context, isbn string) (*dto.PriceCheckResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[isbn]
	return v, ok
}

func (c *stubCache) Set(_ context.Context, isbn string, v *dto.PriceCheckResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[isbn] = v
}

func (c *stubCache) Invalidate(_ context.Context, isbns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range isbns {
		delete(c.entries, k)
	}
	c.invalidated = append(c.invalidated, isbns...)
}

var _ service.PriceCache = (*stubCache)(nil)

// stubDispatcher records receipt jobs.
type stubDispatcher struct {
	mu    sync.Mutex
	err   error
	calls []receiptCall
}

type receiptCall struct {
	saleID uuid.UUID
	email  string
}

func (d *stubDispatcher) EnqueueReceipt(_ context.Context, saleID uuid.UUID, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, receiptCall{saleID: saleID, email: email})
	return d.err
}

var _ service.ReceiptDispatcher = (*stubDispatcher)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func fixedClock() service.Clock { return func() time.Time { return testNow } }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

// seedBook inserts a book directly into the stub, bypassing the ledger.
func seedBook(r *stubBookRepo, title, price string, stock int) *model.Book {
	b := &model.Book{
		ID:            uuid.New(),
		Title:         title,
		Author:        "Author of " + title,
		PurchasePrice: dec(price).Div(decimal.NewFromInt(2)),
		SalePrice:     dec(price),
		StockQuantity: stock,
		MinStock:      2,
		Condition:     model.ConditionNew,
	}
	r.mu.Lock()
	r.books[b.ID] = b
	r.mu.Unlock()
	return b
}

// env bundles every stub and service for one test.
type env struct {
	books      *stubBookRepo
	movements  *stubMovementRepo
	sales      *stubSaleRepo
	prices     *stubPriceHistoryRepo
	settings   *stubSettingsRepo
	cache      *stubCache
	dispatcher *stubDispatcher
	ledger     service.Ledger
	catalog    service.CatalogService
	checkout   service.SaleService
}

func newEnv() *env {
	e := &env{
		books:      newStubBookRepo(),
		movements:  &stubMovementRepo{},
		sales:      newStubSaleRepo(),
		prices:     &stubPriceHistoryRepo{},
		settings:   newStubSettingsRepo(model.ConfigMinStockAlert, "3"),
		cache:      newStubCache(),
		dispatcher: &stubDispatcher{},
	}
	settingsSvc := service.NewSettingsService(e.settings)
	e.ledger = service.NewLedger(e.movements, e.books, fixedClock())
	e.catalog = service.NewCatalogService(e.books, e.sales, e.movements, e.prices, e.ledger, settingsSvc, e.cache, fixedClock())
	e.checkout = service.NewSaleService(e.sales, e.books, e.ledger, e.cache, e.dispatcher, fixedClock())
	return e
}

var errBoom = errors.New("boom")
