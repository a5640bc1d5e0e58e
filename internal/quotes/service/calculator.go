package service

import (
	"errors"
	"fmt"

	"linkos_backend/internal/quotes/domain"

	"github.com/shopspring/decimal"
)

// ErrMalformedPromotion reports a stored promotion snapshot that cannot be
// priced. A recompute that meets one fails as a whole.
var ErrMalformedPromotion = errors.New("malformed quote promotion")

var hundred = decimal.NewFromInt(100)

// CalculateTotals derives subtotal, discount, tax and total from the current
// items and applied promotions. Percent discounts are taken from the same
// subtotal and added together, never compounded. Tax is always zero and the
// total is not floored, so discounts larger than the subtotal yield a
// negative total.
func CalculateTotals(items []domain.QuoteItem, promos []domain.QuotePromotion) (domain.Totals, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}

	discount := decimal.Zero
	for _, p := range promos {
		contribution, err := discountContribution(subtotal, p)
		if err != nil {
			return domain.Totals{}, err
		}
		discount = discount.Add(contribution)
	}

	tax := decimal.Zero

	return domain.Totals{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		TaxTotal:      tax,
		Total:         subtotal.Sub(discount).Add(tax),
	}, nil
}

func discountContribution(subtotal decimal.Decimal, p domain.QuotePromotion) (decimal.Decimal, error) {
	if p.DiscountAmount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s has negative amount %s", ErrMalformedPromotion, p.ID, p.DiscountAmount)
	}

	switch p.DiscountType {
	case domain.DiscountTypeDollar:
		return p.DiscountAmount, nil
	case domain.DiscountTypePercent:
		return subtotal.Mul(p.DiscountAmount).Div(hundred), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s has unknown discount type %q", ErrMalformedPromotion, p.ID, p.DiscountType)
	}
}
