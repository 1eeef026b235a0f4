package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("adjust: %w", Newf(KindInvalidResult, "stock of %q would be %d", "Aura", -2))

	assert.ErrorIs(t, err, ErrInvalidResult)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindInvalidResult, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestStorage(t *testing.T) {
	assert.NoError(t, Storage("noop", nil))

	cause := errors.New("connection reset")
	err := Storage("insert book", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert book")

	// Domain errors pass through untouched.
	nf := NotFound("book")
	assert.Same(t, nf, Storage("find book", nf))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "insufficient_stock", KindInsufficientStock.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.Equal(t, "not_found: book not found", NotFound("book").Error())
}
