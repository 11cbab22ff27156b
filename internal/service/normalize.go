package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// CatalogStore resolves prices and display fields for order lines.
type CatalogStore interface {
	GetProductForOrder(ctx context.Context, arg database.TenantScopedIDParams) (database.GetProductForOrderRow, error)
	GetIngredientForOrder(ctx context.Context, arg database.GetIngredientParams) (database.GetIngredientForOrderRow, error)
}

// LineRequest is the client-facing shape of one order line. UnitPrice is
// optional; when absent or not positive the current catalog price is used.
type LineRequest struct {
	ProductID    *uuid.UUID       `json:"product_id"`
	IngredientID *uuid.UUID       `json:"ingredient_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal  `json:"discount"`
	DiscountKind string           `json:"discount_kind"`
	Note         string           `json:"note"`
	Toppings     []ToppingRequest `json:"toppings"`
}

type ToppingRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type PaymentRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// normalizeLines validates line requests against the order kind and converts
// them to the canonical stored form, backfilling missing or non-positive
// unit prices from the catalog. Sale lines reference products, purchase
// lines reference ingredients; a line referencing the wrong side is
// rejected.
func normalizeLines(ctx context.Context, catalog CatalogStore, tenantID uuid.UUID, kind string, reqs []LineRequest) ([]Line, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyLines
	}

	lines := make([]Line, 0, len(reqs))
	for _, req := range reqs {
		if !req.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		if req.Discount.IsNegative() {
			return nil, ErrInvalidDiscountVal
		}
		discountKind := req.DiscountKind
		if discountKind == "" {
			discountKind = enum.DiscountKindPercent
		}
		if discountKind != enum.DiscountKindPercent && discountKind != enum.DiscountKindAmount {
			return nil, ErrInvalidDiscount
		}

		line := Line{
			Quantity:     req.Quantity,
			Discount:     req.Discount,
			DiscountKind: discountKind,
			Note:         req.Note,
		}

		switch kind {
		case enum.OrderKindSale:
			if req.ProductID == nil || req.IngredientID != nil {
				return nil, ErrLineKindMismatch
			}
			line.ProductID = req.ProductID
			price, err := resolveProductPrice(ctx, catalog, tenantID, *req.ProductID, req.UnitPrice)
			if err != nil {
				return nil, err
			}
			line.UnitPrice = price

			for _, tr := range req.Toppings {
				if !tr.Quantity.IsPositive() {
					return nil, ErrInvalidQuantity
				}
				tp, err := resolveProductPrice(ctx, catalog, tenantID, tr.ProductID, tr.UnitPrice)
				if err != nil {
					return nil, err
				}
				line.Toppings = append(line.Toppings, Topping{
					ProductID: tr.ProductID,
					Quantity:  tr.Quantity,
					UnitPrice: tp,
				})
			}

		case enum.OrderKindPurchase:
			if req.IngredientID == nil || req.ProductID != nil {
				return nil, ErrLineKindMismatch
			}
			if len(req.Toppings) > 0 {
				return nil, ErrLineKindMismatch
			}
			if req.UnitPrice == nil || req.UnitPrice.IsNegative() {
				return nil, ErrInvalidPrice
			}
			line.IngredientID = req.IngredientID
			line.UnitPrice = *req.UnitPrice

		default:
			return nil, ErrInvalidKind
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// resolveProductPrice settles the unit price for a product reference. A
// price the client left out, or sent as zero or negative, is backfilled from
// the catalog. When the product cannot be found either, the price stays at
// zero and the order still goes through.
func resolveProductPrice(ctx context.Context, catalog CatalogStore, tenantID, productID uuid.UUID, given *decimal.Decimal) (decimal.Decimal, error) {
	if given != nil && given.IsPositive() {
		return *given, nil
	}
	row, err := catalog.GetProductForOrder(ctx, database.TenantScopedIDParams{ID: productID, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return numericToDecimal(row.RetailPrice), nil
}

func normalizePayments(reqs []PaymentRequest) ([]Payment, error) {
	payments := make([]Payment, 0, len(reqs))
	for _, req := range reqs {
		switch req.Method {
		case enum.PaymentMethodCash, enum.PaymentMethodTransfer, enum.PaymentMethodCard:
		default:
			return nil, ErrInvalidPayment
		}
		if req.Amount.IsNegative() {
			return nil, ErrInvalidPayment
		}
		payments = append(payments, Payment{Method: req.Method, Amount: req.Amount})
	}
	return payments, nil
}

// encodeLines and friends are the only (de)serialization points for the JSONB
// order payloads.

func encodeLines(lines []Line) ([]byte, error) {
	return json.Marshal(lines)
}

func decodeLines(raw []byte) ([]Line, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func encodePayments(payments []Payment) ([]byte, error) {
	if payments == nil {
		payments = []Payment{}
	}
	return json.Marshal(payments)
}

func decodePayments(raw []byte) ([]Payment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payments []Payment
	if err := json.Unmarshal(raw, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
