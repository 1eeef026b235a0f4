package service_test

import (
	"context"
	"sync"
	"testing"

	"bookpos/internal/apperror"
	"bookpos/internal/cart"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/pricing"
	"bookpos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func item(b *model.Book, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{BookID: b.ID.String(), Quantity: qty}
}

func TestCreateSale_PercentagePolicy(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Pedro Páramo", "15", 5)
	b := seedBook(e.books, "Aura", "10", 3)
	ctx := context.Background()

	resp, err := e.checkout.Create(ctx, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{item(a, 2), item(b, 1)},
		PaymentMethod: model.PaymentCard,
		ReceiptEmail:  strPtr("reader@example.com"),
		PricingRequest: dto.PricingRequest{
			DiscountPercent: decPtr("10"),
			TaxPercent:      decPtr("16"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, pricing.ModePercentage, resp.PricingMode)
	assert.True(t, resp.Subtotal.Equal(dec("40")), resp.Subtotal.String())
	assert.True(t, resp.Discount.Equal(dec("4")), resp.Discount.String())
	assert.True(t, resp.Tax.Equal(dec("5.76")), resp.Tax.String())
	assert.True(t, resp.Total.Equal(dec("41.76")), resp.Total.String())
	assert.Equal(t, 3, resp.TotalItems)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Pedro Páramo", resp.Items[0].Title)
	assert.Equal(t, "Aura", resp.Items[1].Title)

	assert.Equal(t, 3, e.books.stock(a.ID))
	assert.Equal(t, 2, e.books.stock(b.ID))

	saleID := uuid.MustParse(resp.ID)
	rows := e.movements.all()
	require.Len(t, rows, 2)
	for _, m := range rows {
		assert.Equal(t, model.MovementOut, m.MovementType)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, saleID, *m.ReferenceID)
		assert.Contains(t, m.Reason, saleID.String()[:8])
	}

	stored, err := e.sales.FindByID(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].LineNo)
	assert.Equal(t, 2, stored.Items[1].LineNo)
	assert.True(t, stored.TotalAmount.Equal(stored.FinalTotal()))

	require.Len(t, e.dispatcher.calls, 1)
	assert.Equal(t, saleID, e.dispatcher.calls[0].saleID)
	assert.Equal(t, "reader@example.com", e.dispatcher.calls[0].email)
}

func TestCreateSale_InsufficientStockChangesNothing(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Pedro Páramo", "15", 5)
	b := seedBook(e.books, "Aura", "10", 1)

	_, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{item(a, 2), item(b, 2)},
	})
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Aura")

	assert.Equal(t, 5, e.books.stock(a.ID))
	assert.Equal(t, 1, e.books.stock(b.ID))
	assert.Empty(t, e.movements.all())
	assert.Zero(t, e.sales.count())
	assert.Empty(t, e.dispatcher.calls)
}

func TestCreateSale_DuplicateLinesMergeBeforeStockCheck(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "10", 3)

	_, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{item(a, 2), item(a, 2)},
	})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	resp, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{item(a, 1), item(a, 2)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, 0, e.books.stock(a.ID))
}

func TestCreateSale_FixedDiscountAboveSubtotal(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "10", 3)

	_, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{item(a, 1)},
		PricingRequest: dto.PricingRequest{FixedDiscount: decPtr("10.01")},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidPricing)
	assert.Equal(t, 3, e.books.stock(a.ID))
	assert.Zero(t, e.sales.count())
}

func TestCreateSale_OverrideAddsNote(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 3)

	resp, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{item(a, 2)},
		PricingRequest: dto.PricingRequest{RealTotal: decPtr("35")},
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.ModeOverride, resp.PricingMode)
	assert.True(t, resp.Total.Equal(dec("35")))
	assert.True(t, resp.Discount.Equal(dec("5")))
	assert.True(t, resp.Tax.IsZero())
	require.NotNil(t, resp.Notes)
	assert.Contains(t, *resp.Notes, "35.00")

	withNote, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{item(a, 1)},
		Notes:          strPtr("regular customer"),
		PricingRequest: dto.PricingRequest{RealTotal: decPtr("15")},
	})
	require.NoError(t, err)
	assert.Equal(t, "regular customer", *withNote.Notes)
}

func TestCreateSale_UnknownBookAndBadInput(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 3)
	ctx := context.Background()

	_, err := e.checkout.Create(ctx, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{BookID: uuid.NewString(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = e.checkout.Create(ctx, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{BookID: "nope", Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.checkout.Create(ctx, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{item(a, 1)},
		PaymentMethod: "Barter",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.checkout.Create(ctx, dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)

	assert.Equal(t, 3, e.books.stock(a.ID))
	assert.Zero(t, e.sales.count())
}

func TestCheckout_DefaultsToCash(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 3)
	c := cart.New()
	require.NoError(t, c.Add(a.ID, a.Title, 1, a.SalePrice))

	resp, err := e.checkout.Checkout(context.Background(), c, service.CheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCash, resp.PaymentMethod)
	assert.Equal(t, testNow.Format("2006-01-02T15:04:05Z07:00"), resp.SaleDate)
	assert.Len(t, c.Lines(), 1, "checkout leaves the cart alone")

	_, err = e.checkout.Checkout(context.Background(), cart.New(), service.CheckoutInput{})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
}

func TestCreateSale_DispatcherFailureDoesNotFailSale(t *testing.T) {
	e := newEnv()
	e.dispatcher.err = errBoom
	a := seedBook(e.books, "Aura", "20", 3)

	resp, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{item(a, 1)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, e.sales.count())
	assert.Equal(t, 2, e.books.stock(a.ID))
}

func TestCreateSale_InvalidatesPriceCache(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 3)
	a.ISBN = strPtr("42")
	_, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{item(a, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, e.cache.invalidated)
}

func TestQuote_WritesNothing(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 1)

	q, err := e.checkout.Quote(context.Background(), dto.QuoteRequest{
		Items:          []dto.SaleItemRequest{item(a, 5)},
		PricingRequest: dto.PricingRequest{FixedDiscount: decPtr("10"), TaxPercent: decPtr("16")},
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.ModeFixed, q.Mode)
	assert.True(t, q.Subtotal.Equal(dec("100")))
	assert.True(t, q.Tax.Equal(dec("14.4")))
	assert.True(t, q.Total.Equal(dec("104.4")))
	require.Len(t, q.Items, 1)
	assert.Equal(t, "Aura", q.Items[0].Title)

	assert.Equal(t, 1, e.books.stock(a.ID))
	assert.Empty(t, e.movements.all())
	assert.Zero(t, e.sales.count())

	_, err = e.checkout.Quote(context.Background(), dto.QuoteRequest{
		Items: []dto.SaleItemRequest{item(a, 1)},
		PricingRequest: dto.PricingRequest{
			DiscountPercent: decPtr("5"),
			FixedDiscount:   decPtr("5"),
		},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidPricing)
}

func TestGetAndListSales(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Aura", "20", 5)
	ctx := context.Background()

	first, err := e.checkout.Create(ctx, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{item(a, 1)}})
	require.NoError(t, err)
	_, err = e.checkout.Create(ctx, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{item(a, 1)},
		PaymentMethod: model.PaymentTransfer,
	})
	require.NoError(t, err)

	got, err := e.checkout.Get(ctx, uuid.MustParse(first.ID))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = e.checkout.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	list, err := e.checkout.List(ctx, dto.SaleFilter{PaymentMethod: model.PaymentTransfer})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 50, list.Limit)

	_, err = e.checkout.List(ctx, dto.SaleFilter{From: "2026-13-01"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCheckout_ConcurrentLastCopy(t *testing.T) {
	e := newEnv()
	a := seedBook(e.books, "Última copia", "20", 1)

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.checkout.Create(context.Background(), dto.CreateSaleRequest{
				Items: []dto.SaleItemRequest{item(a, 1)},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if assert.ErrorIs(t, err, apperror.ErrInsufficientStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, fail)
	assert.Equal(t, 0, e.books.stock(a.ID))
	assert.Len(t, e.movements.all(), 1)
}

// Any mix of sales and adjustments keeps stock non-negative and equal to the
// ledger once the initial stock went through it.
func TestStockMatchesLedger_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEnv()
		ctx := context.Background()
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			b, err := e.catalog.Create(ctx, createReq("Libro", rapid.IntRange(0, 5).Draw(rt, "stock")))
			if err != nil {
				rt.Fatalf("create: %v", err)
			}
			ids = append(ids, uuid.MustParse(b.ID))
		}

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "book")]
			if rapid.Bool().Draw(rt, "sale") {
				_, _ = e.checkout.Create(ctx, dto.CreateSaleRequest{
					Items: []dto.SaleItemRequest{{BookID: id.String(), Quantity: rapid.IntRange(1, 4).Draw(rt, "qty")}},
				})
				continue
			}
			delta := rapid.IntRange(-4, 4).Filter(func(d int) bool { return d != 0 }).Draw(rt, "delta")
			_, _ = e.catalog.AdjustStock(ctx, id, dto.AdjustStockRequest{Delta: delta, Reason: "count"})
		}

		for _, id := range ids {
			if s := e.books.stock(id); s < 0 {
				rt.Fatalf("negative stock %d", s)
			}
			rec, err := e.ledger.Reconcile(ctx, id)
			if err != nil {
				rt.Fatalf("reconcile: %v", err)
			}
			if !rec.Consistent {
				rt.Fatalf("stock %d != ledger %d", rec.StockQuantity, rec.LedgerSum)
			}
		}
	})
}
