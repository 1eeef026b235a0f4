package service_test

import (
	"context"
	"testing"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReq(title string, stock int) dto.CreateBookRequest {
	return dto.CreateBookRequest{
		Title:         title,
		Author:        "Juan Rulfo",
		PurchasePrice: dec("60"),
		SalePrice:     dec("120"),
		StockQuantity: stock,
	}
}

func TestCreate_WithStockRecordsInitialMovement(t *testing.T) {
	e := newEnv()
	req := createReq("Pedro Páramo", 4)
	req.ISBN = strPtr(" 9786071600000 ")

	b, err := e.catalog.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, b.StockQuantity)
	assert.Equal(t, model.ConditionNew, b.Condition)
	require.NotNil(t, b.ISBN)
	assert.Equal(t, "9786071600000", *b.ISBN)
	assert.True(t, b.ProfitMargin.Equal(dec("100")))

	rows := e.movements.all()
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementIn, rows[0].MovementType)
	assert.Equal(t, 4, rows[0].Quantity)
	assert.Equal(t, 0, rows[0].StockBefore)
	assert.Equal(t, 4, rows[0].StockAfter)
	assert.Equal(t, "Initial stock", rows[0].Reason)
	assert.Equal(t, testNow, rows[0].MovementDate)
}

func TestCreate_ZeroStockWritesNoMovement(t *testing.T) {
	e := newEnv()
	_, err := e.catalog.Create(context.Background(), createReq("El llano en llamas", 0))
	require.NoError(t, err)
	assert.Empty(t, e.movements.all())
}

func TestCreate_MinStockFallsBackToSetting(t *testing.T) {
	e := newEnv()
	b, err := e.catalog.Create(context.Background(), createReq("Aura", 1))
	require.NoError(t, err)
	assert.Equal(t, 3, b.MinStock)
	assert.True(t, b.LowStock)

	explicit := createReq("Ficciones", 1)
	zero := 0
	explicit.MinStock = &zero
	b, err = e.catalog.Create(context.Background(), explicit)
	require.NoError(t, err)
	assert.Equal(t, 0, b.MinStock)
	assert.False(t, b.LowStock)
}

func TestCreate_DuplicateISBNConflict(t *testing.T) {
	e := newEnv()
	req := createReq("Rayuela", 1)
	req.ISBN = strPtr("978-84-376-0494-7")
	_, err := e.catalog.Create(context.Background(), req)
	require.NoError(t, err)

	req.Title = "Rayuela (otra edición)"
	_, err = e.catalog.Create(context.Background(), req)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Len(t, e.movements.all(), 1)
}

func TestCreate_EmptyISBNStoredAsNull(t *testing.T) {
	e := newEnv()
	for _, title := range []string{"Uno", "Dos"} {
		req := createReq(title, 0)
		req.ISBN = strPtr("   ")
		b, err := e.catalog.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, b.ISBN)
	}
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv()

	bad := createReq("Pedro Páramo", 1)
	bad.Condition = "Mint"
	_, err := e.catalog.Create(context.Background(), bad)
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "condition")

	bad = createReq("  ", 1)
	_, err = e.catalog.Create(context.Background(), bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	bad = createReq("Pedro Páramo", -1)
	_, err = e.catalog.Create(context.Background(), bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, e.movements.all())
}

func TestAdjustStock(t *testing.T) {
	e := newEnv()
	b := seedBook(e.books, "Pedro Páramo", "120", 5)

	t.Run("negative correction is an ADJUSTMENT", func(t *testing.T) {
		resp, err := e.catalog.AdjustStock(context.Background(), b.ID, dto.AdjustStockRequest{Delta: -3, Reason: "damaged"})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.StockQuantity)
		assert.Equal(t, 2, e.books.stock(b.ID))

		rows := e.movements.all()
		require.Len(t, rows, 1)
		assert.Equal(t, model.MovementAdjustment, rows[0].MovementType)
		assert.Equal(t, -3, rows[0].Quantity)
		assert.Equal(t, 5, rows[0].StockBefore)
		assert.Equal(t, 2, rows[0].StockAfter)
		assert.Equal(t, "damaged", rows[0].Reason)
	})

	t.Run("below zero is rejected and nothing changes", func(t *testing.T) {
		_, err := e.catalog.AdjustStock(context.Background(), b.ID, dto.AdjustStockRequest{Delta: -6, Reason: "lost"})
		assert.ErrorIs(t, err, apperror.ErrInvalidResult)
		assert.Equal(t, 2, e.books.stock(b.ID))
		assert.Len(t, e.movements.all(), 1)
	})

	t.Run("restock is recorded as IN", func(t *testing.T) {
		resp, err := e.catalog.AdjustStock(context.Background(), b.ID, dto.AdjustStockRequest{Delta: 10, Reason: "new box", Restock: true})
		require.NoError(t, err)
		assert.Equal(t, 12, resp.StockQuantity)
		rows := e.movements.all()
		require.Len(t, rows, 2)
		assert.Equal(t, model.MovementIn, rows[1].MovementType)
		assert.Equal(t, 10, rows[1].Quantity)
	})

	t.Run("zero delta and empty reason", func(t *testing.T) {
		_, err := e.catalog.AdjustStock(context.Background(), b.ID, dto.AdjustStockRequest{Delta: 0, Reason: "x"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		_, err = e.catalog.AdjustStock(context.Background(), b.ID, dto.AdjustStockRequest{Delta: 1, Reason: "  "})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := e.catalog.AdjustStock(context.Background(), uuid.New(), dto.AdjustStockRequest{Delta: 1, Reason: "found"})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	rec, err := e.ledger.Reconcile(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, rec.StockQuantity)
	// The seeded 5 copies never went through the ledger.
	assert.Equal(t, 7, rec.LedgerSum)
	assert.False(t, rec.Consistent)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("never stocked book is removed", func(t *testing.T) {
		e := newEnv()
		req := createReq("Borrador", 0)
		req.ISBN = strPtr("111")
		b, err := e.catalog.Create(ctx, req)
		require.NoError(t, err)

		id := uuid.MustParse(b.ID)
		require.NoError(t, e.catalog.Delete(ctx, id))
		_, err = e.catalog.Get(ctx, id)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Contains(t, e.cache.invalidated, "111")
	})

	t.Run("book with ledger rows is kept", func(t *testing.T) {
		e := newEnv()
		b, err := e.catalog.Create(ctx, createReq("Con stock", 2))
		require.NoError(t, err)
		err = e.catalog.Delete(ctx, uuid.MustParse(b.ID))
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("sold book is kept", func(t *testing.T) {
		e := newEnv()
		b := seedBook(e.books, "Vendido", "50", 0)
		require.NoError(t, e.sales.CreateTx(nil, &model.Sale{
			ID:    uuid.New(),
			Items: []model.SaleItem{{ID: uuid.New(), BookID: b.ID, Quantity: 1}},
		}))
		err := e.catalog.Delete(ctx, b.ID)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("unknown book", func(t *testing.T) {
		e := newEnv()
		assert.ErrorIs(t, e.catalog.Delete(ctx, uuid.New()), apperror.ErrNotFound)
	})
}

func TestUpdate_ChangesAttributesButNotStock(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	req := createReq("Pedro Paramo", 3)
	req.ISBN = strPtr("OLD")
	b, err := e.catalog.Create(ctx, req)
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)

	price := dec("150")
	resp, err := e.catalog.Update(ctx, id, dto.UpdateBookRequest{
		Title:     strPtr("Pedro Páramo"),
		ISBN:      strPtr("NEW"),
		SalePrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pedro Páramo", resp.Title)
	assert.True(t, resp.SalePrice.Equal(price))
	assert.Equal(t, 3, resp.StockQuantity)
	assert.ElementsMatch(t, []string{"OLD", "NEW"}, e.cache.invalidated)

	_, err = e.catalog.Update(ctx, id, dto.UpdateBookRequest{Condition: strPtr("Mint")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdate_ISBNTakenByAnotherBook(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	first := createReq("Uno", 0)
	first.ISBN = strPtr("AAA")
	_, err := e.catalog.Create(ctx, first)
	require.NoError(t, err)
	second, err := e.catalog.Create(ctx, createReq("Dos", 0))
	require.NoError(t, err)

	_, err = e.catalog.Update(ctx, uuid.MustParse(second.ID), dto.UpdateBookRequest{ISBN: strPtr("AAA")})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestPriceCheck_ReadsThroughCache(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	req := createReq("Pedro Páramo", 2)
	req.ISBN = strPtr("9786071600000")
	_, err := e.catalog.Create(ctx, req)
	require.NoError(t, err)

	got, err := e.catalog.PriceCheck(ctx, " 9786071600000 ")
	require.NoError(t, err)
	assert.Equal(t, "Pedro Páramo", got.Title)
	assert.Equal(t, 2, got.StockAvailable)

	cached, ok := e.cache.Get(ctx, "9786071600000")
	require.True(t, ok)
	assert.Equal(t, got, cached)

	_, err = e.catalog.PriceCheck(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = e.catalog.PriceCheck(ctx, "000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPriceCheck_StaleEntryDroppedOnAdjust(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	req := createReq("Aura", 2)
	req.ISBN = strPtr("42")
	b, err := e.catalog.Create(ctx, req)
	require.NoError(t, err)

	_, err = e.catalog.PriceCheck(ctx, "42")
	require.NoError(t, err)
	_, err = e.catalog.AdjustStock(ctx, uuid.MustParse(b.ID), dto.AdjustStockRequest{Delta: -1, Reason: "shelf copy"})
	require.NoError(t, err)

	got, err := e.catalog.PriceCheck(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockAvailable)
}

func TestSearch_DefaultsPaging(t *testing.T) {
	e := newEnv()
	seedBook(e.books, "B", "10", 1)
	seedBook(e.books, "A", "10", 1)

	res, err := e.catalog.Search(context.Background(), dto.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 50, res.Limit)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, 1, res.TotalPages)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "A", res.Data[0].Title)
}

func TestUpdate_PriceChangeIsRecorded(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	b, err := e.catalog.Create(ctx, createReq("Aura", 1))
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)

	_, err = e.catalog.Update(ctx, id, dto.UpdateBookRequest{Title: strPtr("Aura (bolsillo)")})
	require.NoError(t, err)
	assert.Empty(t, e.prices.rows, "title edits leave no price trail")

	sale := dec("150")
	_, err = e.catalog.Update(ctx, id, dto.UpdateBookRequest{SalePrice: &sale})
	require.NoError(t, err)

	hist, err := e.catalog.PriceHistory(ctx, id, dto.PriceHistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), hist.Total)
	assert.Equal(t, 50, hist.Limit)
	require.Len(t, hist.Data, 1)
	assert.True(t, hist.Data[0].SaleBefore.Equal(dec("120")))
	assert.True(t, hist.Data[0].SaleAfter.Equal(dec("150")))
	assert.True(t, hist.Data[0].SaleChangePct.Equal(dec("25")))
	assert.True(t, hist.Data[0].PurchaseAfter.Equal(dec("60")))

	_, err = e.catalog.PriceHistory(ctx, uuid.New(), dto.PriceHistoryQuery{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
