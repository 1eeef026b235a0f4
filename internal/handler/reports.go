package handler

import (
	"net/http"
	"time"

	"bookpos/internal/dto"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportsHandler exposes the read-only aggregation endpoints. Every range
// endpoint takes inclusive from/to dates (YYYY-MM-DD) and defaults to the
// last 30 days.
type ReportsHandler struct {
	svc service.ReportService
	now func() time.Time
}

func NewReportsHandler(svc service.ReportService, clock service.Clock) *ReportsHandler {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &ReportsHandler{svc: svc, now: clock}
}

func (h *ReportsHandler) dateRange(c *gin.Context, q dto.RangeQuery) (service.DateRange, bool) {
	r, err := service.ParseRange(q.From, q.To, h.now())
	if err != nil {
		respondError(c, err)
		return service.DateRange{}, false
	}
	return r, true
}

// Summary godoc
// @Summary      Sales count, revenue, discounts, tax and average sale
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "YYYY-MM-DD"
// @Param        to   query string false "YYYY-MM-DD"
// @Success      200  {object} dto.SalesSummary
// @Router       /v1/reports/summary [get]
func (h *ReportsHandler) Summary(c *gin.Context) {
	var q dto.RangeQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q)
	if !ok {
		return
	}
	resp, err := h.svc.SalesSummary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TopSellers godoc
// @Summary      Best selling books by units
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query string false "YYYY-MM-DD"
// @Param        to    query string false "YYYY-MM-DD"
// @Param        limit query int    false "Rows (default 10)"
// @Success      200  {array} dto.TopSeller
// @Router       /v1/reports/top-sellers [get]
func (h *ReportsHandler) TopSellers(c *gin.Context) {
	var q dto.TopQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q.RangeQuery)
	if !ok {
		return
	}
	resp, err := h.svc.TopSellers(c.Request.Context(), r, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Distribution godoc
// @Summary      Stock grouped by genre or condition
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        by query string false "genre|condition"
// @Success      200  {array} dto.DistributionRow
// @Router       /v1/reports/distribution [get]
func (h *ReportsHandler) Distribution(c *gin.Context) {
	var q dto.DistributionQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.StockDistribution(c.Request.Context(), q.By)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Compare godoc
// @Summary      Compare a period with the equally long period right before it
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "YYYY-MM-DD"
// @Param        to   query string false "YYYY-MM-DD"
// @Success      200  {object} dto.PeriodComparison
// @Router       /v1/reports/compare [get]
func (h *ReportsHandler) Compare(c *gin.Context) {
	var q dto.RangeQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q)
	if !ok {
		return
	}
	resp, err := h.svc.ComparePeriods(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Inventory godoc
// @Summary      Catalog totals: titles, units, value, low stock count
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.InventorySummary
// @Router       /v1/reports/inventory [get]
func (h *ReportsHandler) Inventory(c *gin.Context) {
	resp, err := h.svc.InventorySummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Payments godoc
// @Summary      Sales and revenue per payment method
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "YYYY-MM-DD"
// @Param        to   query string false "YYYY-MM-DD"
// @Success      200  {array} dto.PaymentBreakdownRow
// @Router       /v1/reports/payments [get]
func (h *ReportsHandler) Payments(c *gin.Context) {
	var q dto.RangeQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q)
	if !ok {
		return
	}
	resp, err := h.svc.PaymentBreakdown(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Daily godoc
// @Summary      Sales per calendar day, days without sales included
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "YYYY-MM-DD"
// @Param        to   query string false "YYYY-MM-DD"
// @Success      200  {array} dto.DailySalesRow
// @Router       /v1/reports/daily [get]
func (h *ReportsHandler) Daily(c *gin.Context) {
	var q dto.RangeQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q)
	if !ok {
		return
	}
	resp, err := h.svc.DailySales(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profit godoc
// @Summary      Gross profit per book at current purchase price
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query string false "YYYY-MM-DD"
// @Param        to    query string false "YYYY-MM-DD"
// @Param        limit query int    false "Rows (default 10)"
// @Success      200  {array} dto.ProfitRow
// @Router       /v1/reports/profit [get]
func (h *ReportsHandler) Profit(c *gin.Context) {
	var q dto.TopQuery
	if !bindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q.RangeQuery)
	if !ok {
		return
	}
	resp, err := h.svc.ProfitByBook(c.Request.Context(), r, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MostValuable godoc
// @Summary      Books holding the most stock value
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Rows (default 10)"
// @Success      200  {array} dto.ValuableBook
// @Router       /v1/reports/most-valuable [get]
func (h *ReportsHandler) MostValuable(c *gin.Context) {
	var q dto.TopQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.MostValuable(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
