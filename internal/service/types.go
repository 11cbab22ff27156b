package service

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Line is the canonical stored form of one order entry. Exactly one of
// ProductID (sale) or IngredientID (purchase) is set, depending on the
// order kind.
type Line struct {
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	IngredientID *uuid.UUID      `json:"ingredient_id,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountKind string          `json:"discount_kind,omitempty"`
	Note         string          `json:"note,omitempty"`
	Toppings     []Topping       `json:"toppings,omitempty"`
}

// Topping is an add-on product sold with a sale line. Toppings carry no
// discount of their own.
type Topping struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Payment is one settled amount against an order.
type Payment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// --- pgtype.Numeric <-> decimal.Decimal helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
