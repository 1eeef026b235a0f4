package handler

import (
	"net/http"

	"bookpos/internal/dto"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Quote godoc
// @Summary      Price a prospective sale
// @Description  Computes subtotal, discount, tax and total at current catalog prices. Writes nothing and does not check stock.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.QuoteRequest true "Cart and pricing"
// @Success      200  {object} dto.QuoteResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/sales/quote [post]
func (h *SalesHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Check out a sale
// @Description  Commits the sale, decrements stock and writes one OUT movement per line, all in one transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Cart, pricing and customer"
// @Success      201  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError "insufficient stock"
// @Failure      422  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
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
// @Summary      Sale history, newest first
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        from           query string false "YYYY-MM-DD"
// @Param        to             query string false "YYYY-MM-DD"
// @Param        payment_method query string false "Cash|Card|Transfer|Other"
// @Param        page           query int    false "Page"
// @Param        limit          query int    false "Page size"
// @Success      200  {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a sale with its items
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Sale UUID"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
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
