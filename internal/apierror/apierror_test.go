package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bookpos/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_Status(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.New(apperror.KindValidation, "bad"), http.StatusUnprocessableEntity, "validation"},
		{apperror.New(apperror.KindInvalidPricing, "discount too big"), http.StatusUnprocessableEntity, "invalid_pricing"},
		{apperror.New(apperror.KindEmptyCart, "empty"), http.StatusUnprocessableEntity, "empty_cart"},
		{apperror.NotFound("book"), http.StatusNotFound, "not_found"},
		{apperror.New(apperror.KindConflict, "dup"), http.StatusConflict, "conflict"},
		{apperror.New(apperror.KindInsufficientStock, "short"), http.StatusConflict, "insufficient_stock"},
		{apperror.New(apperror.KindInvalidResult, "negative"), http.StatusConflict, "invalid_result"},
		{apperror.New(apperror.KindUnauthorized, "no"), http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("checkout: %w", apperror.NotFound("sale")), http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		status, body := FromError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		e, ok := body.(*APIError)
		require.True(t, ok, tc.err.Error())
		assert.Equal(t, tc.code, e.Code)
	}
}

func TestFromError_ValidationFields(t *testing.T) {
	status, body := FromError(apperror.Validation(map[string]string{"title": "required"}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	v, ok := body.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "required", v.Fields["title"])
	assert.Equal(t, "validation", v.Code)
}

func TestFromError_HidesInternals(t *testing.T) {
	for _, err := range []error{
		apperror.Storage("insert sale", errors.New("pq: connection reset")),
		errors.New("something unexpected"),
	} {
		status, body := FromError(err)
		assert.Equal(t, http.StatusInternalServerError, status)
		e := body.(*APIError)
		assert.Equal(t, "internal server error", e.Detail)
	}
}
