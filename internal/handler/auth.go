package handler

import (
	"net/http"
	"time"

	"bookpos/internal/dto"
	"bookpos/internal/middleware"
	"bookpos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc service.AuthService
	now func() time.Time
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc, now: time.Now}
}

// Login godoc
// @Summary Exchange the shop PIN for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "PIN"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Session godoc
// @Summary Remaining lifetime of the caller's token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp := dto.SessionResponse{}
	if claims != nil {
		resp.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time.UTC()
			resp.ExpiresAt = exp.Format(time.RFC3339)
			resp.ExpiresIn = int(exp.Sub(h.now()).Seconds())
		}
	}
	c.JSON(http.StatusOK, resp)
}
