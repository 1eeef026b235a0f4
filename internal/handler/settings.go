package handler

import (
	"net/http"

	"bookpos/internal/dto"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct{ svc service.SettingsService }

func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// List godoc
// @Summary      All system settings
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.SettingResponse
// @Router       /v1/settings [get]
func (h *SettingsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      One setting
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        key  path     string true "Setting key"
// @Success      200  {object} dto.SettingResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/settings/{key} [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Set godoc
// @Summary      Create or replace a setting
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key  path     string                   true "Setting key"
// @Param        body body     dto.UpdateSettingRequest true "New value"
// @Success      200  {object} dto.SettingResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/settings/{key} [put]
func (h *SettingsHandler) Set(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Set(c.Request.Context(), c.Param("key"), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
