// Package cart holds the transient selection of books a sale is built from.
// A Cart is owned by its caller; nothing here touches the store.
package cart

import (
	"bookpos/internal/apperror"
	"bookpos/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one book in the cart. UnitPrice is captured when the line is first
// added and is what the sale will charge.
type Line struct {
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order with at most one line per book.
type Cart struct {
	lines []Line
}

func New() *Cart { return &Cart{} }

// Add puts qty copies of a book in the cart. Adding a book already present
// increases its quantity and keeps the price captured first.
func (c *Cart) Add(bookID uuid.UUID, title string, qty int, unitPrice decimal.Decimal) error {
	if bookID == uuid.Nil {
		return apperror.Validation(map[string]string{"book_id": "required"})
	}
	if qty <= 0 {
		return apperror.Validation(map[string]string{"quantity": "must be > 0"})
	}
	if unitPrice.IsNegative() {
		return apperror.Validation(map[string]string{"unit_price": "must be >= 0"})
	}
	if i := c.index(bookID); i >= 0 {
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{BookID: bookID, Title: title, Quantity: qty, UnitPrice: unitPrice})
	return nil
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (c *Cart) SetQuantity(bookID uuid.UUID, qty int) error {
	if qty < 0 {
		return apperror.Validation(map[string]string{"quantity": "must be >= 0"})
	}
	i := c.index(bookID)
	if i < 0 {
		return apperror.NotFound("cart line")
	}
	if qty == 0 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity = qty
	return nil
}

// Remove drops a book from the cart. Removing an absent book is a no-op.
func (c *Cart) Remove(bookID uuid.UUID) {
	if i := c.index(bookID); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) Clear() { c.lines = nil }

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Quantities sums requested units per book.
func (c *Cart) Quantities() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(c.lines))
	for _, l := range c.lines {
		out[l.BookID] += l.Quantity
	}
	return out
}

// Quote prices the cart under policy without committing anything.
func (c *Cart) Quote(policy pricing.Policy) (pricing.Breakdown, error) {
	if c.IsEmpty() {
		return pricing.Breakdown{}, apperror.New(apperror.KindEmptyCart, "cart is empty")
	}
	return pricing.Compute(c.Subtotal(), policy)
}

func (c *Cart) index(bookID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].BookID == bookID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
