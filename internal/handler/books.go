package handler

import (
	"net/http"

	"bookpos/internal/dto"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

type BooksHandler struct {
	svc    service.CatalogService
	ledger service.Ledger
}

func NewBooksHandler(svc service.CatalogService, ledger service.Ledger) *BooksHandler {
	return &BooksHandler{svc: svc, ledger: ledger}
}

// Create godoc
// @Summary      Add a book to the catalog
// @Description  Initial stock above zero is recorded as an IN movement in the same transaction.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateBookRequest true "Book"
// @Success      201  {object} dto.BookResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/books [post]
func (h *BooksHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Search the catalog
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        q         query string false "Substring of title, author or ISBN"
// @Param        genre     query string false "Genre"
// @Param        condition query string false "Condition"
// @Param        low_stock query bool   false "Only books at or below min stock"
// @Param        in_stock  query bool   false "Only books with stock"
// @Param        sort      query string false "title|author|stock|price|created"
// @Param        desc      query bool   false "Descending order"
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size"
// @Success      200  {object} dto.BookListResponse
// @Router       /v1/books [get]
func (h *BooksHandler) List(c *gin.Context) {
	var filter dto.BookFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Book UUID"
// @Success      200  {object} dto.BookResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/books/{id} [get]
func (h *BooksHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Edit book attributes
// @Description  Stock cannot be changed here; use PATCH /v1/books/{id}/stock.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                true "Book UUID"
// @Param        body body     dto.UpdateBookRequest true "Changed fields"
// @Success      200  {object} dto.BookResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/books/{id} [put]
func (h *BooksHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a book that was never stocked or sold
// @Tags         books
// @Security     BearerAuth
// @Param        id   path     string true "Book UUID"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/books/{id} [delete]
func (h *BooksHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary      Adjust stock
// @Description  Applies a signed delta and records it in the inventory ledger. The result may not go below zero.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "Book UUID"
// @Param        body body     dto.AdjustStockRequest true "Delta and reason"
// @Success      200  {object} dto.BookResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/books/{id}/stock [patch]
func (h *BooksHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      Ledger history of a book, oldest first
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Book UUID"
// @Success      200  {array}  dto.MovementResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/books/{id}/movements [get]
func (h *BooksHandler) Movements(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.ledger.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile godoc
// @Summary      Compare stored stock with the sum of ledger movements
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Book UUID"
// @Success      200  {object} dto.ReconcileResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/books/{id}/reconcile [get]
func (h *BooksHandler) Reconcile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.ledger.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PriceHistory godoc
// @Summary      List the price changes of a book, newest first
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Book UUID"
// @Param        page  query int    false "Page"
// @Param        limit query int    false "Page size"
// @Success      200  {object} dto.PriceHistoryResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/books/{id}/price-history [get]
func (h *BooksHandler) PriceHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var q dto.PriceHistoryQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.PriceHistory(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
