package handler

import (
	"net/http"

	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

// PriceHandler serves the public price check endpoint.
// No authentication required and no side effects beyond the cache.
type PriceHandler struct{ svc service.CatalogService }

func NewPriceHandler(svc service.CatalogService) *PriceHandler { return &PriceHandler{svc: svc} }

// Check godoc
// @Summary Price check by ISBN (no authentication)
// @Tags price
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} dto.PriceCheckResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/price/{isbn} [get]
func (h *PriceHandler) Check(c *gin.Context) {
	resp, err := h.svc.PriceCheck(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
