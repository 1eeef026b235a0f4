package handler

import (
	"net/http"

	"bookpos/internal/dto"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	ledger  service.Ledger
	reports service.ReportService
}

func NewInventoryHandler(ledger service.Ledger, reports service.ReportService) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, reports: reports}
}

// Movements godoc
// @Summary      Inventory ledger, newest first
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        book_id query string false "Book UUID"
// @Param        type    query string false "IN|OUT|ADJUSTMENT"
// @Param        from    query string false "YYYY-MM-DD"
// @Param        to      query string false "YYYY-MM-DD"
// @Param        page    query int    false "Page"
// @Param        limit   query int    false "Page size"
// @Success      200  {object} dto.MovementListResponse
// @Router       /v1/inventory/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary      Books at or below their minimum stock
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.BookResponse
// @Router       /v1/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *gin.Context) {
	resp, err := h.reports.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
