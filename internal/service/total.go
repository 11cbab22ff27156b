package service

import (
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/enum"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotal prices an order: per line, unit price times quantity, the
// line discount, then toppings at full price; the order discount applies to
// the sum of all lines. Intermediate values keep full precision, only the
// final amount is rounded to two decimal places.
func ComputeTotal(lines []Line, discount decimal.Decimal, discountKind string) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(lineTotal(line))
	}
	total = applyDiscount(total, discount, discountKind)
	return total.Round(2)
}

// lineTotal is the discounted goods amount plus undiscounted toppings.
func lineTotal(line Line) decimal.Decimal {
	amount := line.UnitPrice.Mul(line.Quantity)
	amount = applyDiscount(amount, line.Discount, line.DiscountKind)
	for _, t := range line.Toppings {
		amount = amount.Add(t.UnitPrice.Mul(t.Quantity))
	}
	return amount
}

func applyDiscount(amount, discount decimal.Decimal, kind string) decimal.Decimal {
	if discount.IsZero() {
		return amount
	}
	if kind == enum.DiscountKindAmount {
		return amount.Sub(discount)
	}
	return amount.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
}
