// Package pricing turns a sale subtotal and a pricing policy into the applied
// discount, tax and total. It is pure: no clock, no store, no logging.
package pricing

import (
	"bookpos/internal/apperror"

	"github.com/shopspring/decimal"
)

// Mode names, stored on the sale row.
const (
	ModePercentage = "percentage"
	ModeFixed      = "fixed"
	ModeOverride   = "override"
)

var hundred = decimal.NewFromInt(100)

// Policy is one of Percentage, Fixed or Override.
type Policy interface {
	Mode() string
	isPolicy()
}

// Percentage applies Discount percent to the subtotal, then Tax percent to
// what remains.
type Percentage struct {
	Discount decimal.Decimal
	Tax      decimal.Decimal
}

// Fixed subtracts a flat Amount, then applies Tax percent to what remains.
// An Amount above the subtotal is rejected, not clamped.
type Fixed struct {
	Amount decimal.Decimal
	Tax    decimal.Decimal
}

// Override charges RealTotal as negotiated. No tax is applied.
type Override struct {
	RealTotal decimal.Decimal
}

func (Percentage) Mode() string { return ModePercentage }
func (Fixed) Mode() string      { return ModeFixed }
func (Override) Mode() string   { return ModeOverride }

func (Percentage) isPolicy() {}
func (Fixed) isPolicy()      {}
func (Override) isPolicy()   {}

// Breakdown is the result of Compute. Total == Subtotal − Discount + Tax
// except in override mode, where Total == RealTotal.
type Breakdown struct {
	Mode     string          `json:"mode"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Compute applies policy to subtotal. Amounts are rounded half-up to cents;
// the total is derived from the rounded parts so the invariant holds exactly.
func Compute(subtotal decimal.Decimal, policy Policy) (Breakdown, error) {
	if subtotal.IsNegative() {
		return Breakdown{}, invalid("subtotal must be >= 0")
	}
	if policy == nil {
		policy = Percentage{}
	}

	b := Breakdown{Mode: policy.Mode(), Subtotal: subtotal}

	switch p := policy.(type) {
	case Override:
		if p.RealTotal.IsNegative() {
			return Breakdown{}, invalid("real total must be >= 0")
		}
		b.Total = p.RealTotal.Round(2)
		b.Discount = decimal.Max(decimal.Zero, subtotal.Sub(b.Total)).Round(2)
		b.Tax = decimal.Zero
		return b, nil

	case Percentage:
		if err := checkPercent("discount", p.Discount); err != nil {
			return Breakdown{}, err
		}
		if err := checkPercent("tax", p.Tax); err != nil {
			return Breakdown{}, err
		}
		b.Discount = subtotal.Mul(p.Discount).Div(hundred).Round(2)
		b.Tax = subtotal.Sub(b.Discount).Mul(p.Tax).Div(hundred).Round(2)

	case Fixed:
		if p.Amount.IsNegative() {
			return Breakdown{}, invalid("fixed discount must be >= 0")
		}
		if p.Amount.GreaterThan(subtotal) {
			return Breakdown{}, invalid("fixed discount exceeds the subtotal")
		}
		if err := checkPercent("tax", p.Tax); err != nil {
			return Breakdown{}, err
		}
		b.Discount = p.Amount.Round(2)
		b.Tax = subtotal.Sub(b.Discount).Mul(p.Tax).Div(hundred).Round(2)

	default:
		return Breakdown{}, invalid("unknown pricing policy")
	}

	b.Total = subtotal.Sub(b.Discount).Add(b.Tax)
	if b.Total.IsNegative() {
		return Breakdown{}, invalid("total would be negative")
	}
	return b, nil
}

// FromRequest selects a policy from loosely-typed request fields. A non-nil
// realTotal wins; otherwise a non-nil fixedDiscount selects Fixed.
func FromRequest(discountPct, fixedDiscount, taxPct, realTotal *decimal.Decimal) (Policy, error) {
	if realTotal != nil {
		if discountPct != nil || fixedDiscount != nil || taxPct != nil {
			return nil, invalid("real total cannot be combined with discount or tax")
		}
		return Override{RealTotal: *realTotal}, nil
	}
	if discountPct != nil && fixedDiscount != nil {
		return nil, invalid("choose either a percentage or a fixed discount")
	}
	tax := decimal.Zero
	if taxPct != nil {
		tax = *taxPct
	}
	if fixedDiscount != nil {
		return Fixed{Amount: *fixedDiscount, Tax: tax}, nil
	}
	d := decimal.Zero
	if discountPct != nil {
		d = *discountPct
	}
	return Percentage{Discount: d, Tax: tax}, nil
}

func checkPercent(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return invalid(name + " percent must be within [0, 100]")
	}
	return nil
}

func invalid(msg string) error {
	return apperror.New(apperror.KindInvalidPricing, msg)
}
