package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// StockStore is the slice of the store the stock engine needs.
type StockStore interface {
	GetRecipe(ctx context.Context, arg database.GetRecipeParams) ([]database.GetRecipeRow, error)
	ApplyIngredientDelta(ctx context.Context, arg database.ApplyIngredientDeltaParams) (int64, error)
}

// StockEngine translates order lifecycle transitions into signed adjustments
// of the two ingredient counters. "available" tracks what is promised
// (reserved by pending and completed orders alike), "in_stock" tracks what is
// physically on the shelf and only moves when an order completes.
//
// Sale lines consume ingredients through the product recipe; purchase lines
// move the referenced ingredient directly. Lines whose product has no recipe,
// or whose referenced row no longer exists, are skipped without error.
// Counters may go negative; overselling is reported, not prevented.
type StockEngine struct {
	store    StockStore
	tenantID uuid.UUID
}

func NewStockEngine(store StockStore, tenantID uuid.UUID) *StockEngine {
	return &StockEngine{store: store, tenantID: tenantID}
}

var (
	minusOne = decimal.NewFromInt(-1)
	plusOne  = decimal.NewFromInt(1)
)

// ApplyCreate records the stock effect of a newly created order.
func (e *StockEngine) ApplyCreate(ctx context.Context, kind, status string, lines []Line) error {
	switch kind {
	case enum.OrderKindSale:
		if status == enum.OrderStatusCompleted {
			return e.applySale(ctx, lines, minusOne, minusOne)
		}
		return e.applySale(ctx, lines, minusOne, decimal.Zero)
	case enum.OrderKindPurchase:
		if status == enum.OrderStatusCompleted {
			return e.applyPurchase(ctx, lines, plusOne, plusOne)
		}
		return e.applyPurchase(ctx, lines, plusOne, decimal.Zero)
	}
	return ErrInvalidKind
}

// ApplyCompletion records the pending to completed transition. The available
// counter already moved at creation, so only in_stock changes here.
func (e *StockEngine) ApplyCompletion(ctx context.Context, kind string, lines []Line) error {
	if kind == enum.OrderKindPurchase {
		return e.applyPurchase(ctx, lines, decimal.Zero, plusOne)
	}
	return e.applySale(ctx, lines, decimal.Zero, minusOne)
}

// ReversePending undoes the available movement of a pending order's lines.
// Used before replacing the lines of a pending order, so edits never
// accumulate stock effects.
func (e *StockEngine) ReversePending(ctx context.Context, kind string, lines []Line) error {
	if kind == enum.OrderKindPurchase {
		return e.applyPurchase(ctx, lines, minusOne, decimal.Zero)
	}
	return e.applySale(ctx, lines, plusOne, decimal.Zero)
}

// ApplyPending records the available movement for a pending order's lines,
// the counterpart of ReversePending.
func (e *StockEngine) ApplyPending(ctx context.Context, kind string, lines []Line) error {
	if kind == enum.OrderKindPurchase {
		return e.applyPurchase(ctx, lines, plusOne, decimal.Zero)
	}
	return e.applySale(ctx, lines, minusOne, decimal.Zero)
}

// ApplyDelete records the stock effect of removing an order. Deleting a
// pending order releases its reservation. Deleting a completed sale leaves
// stock untouched, the goods already left the kitchen. Deleting a completed
// purchase reverses both counters, taking the delivered goods back out of the
// books.
func (e *StockEngine) ApplyDelete(ctx context.Context, kind, status string, lines []Line) error {
	switch kind {
	case enum.OrderKindSale:
		if status == enum.OrderStatusCompleted {
			return nil
		}
		return e.applySale(ctx, lines, plusOne, decimal.Zero)
	case enum.OrderKindPurchase:
		if status == enum.OrderStatusCompleted {
			return e.applyPurchase(ctx, lines, minusOne, minusOne)
		}
		return e.applyPurchase(ctx, lines, minusOne, decimal.Zero)
	}
	return ErrInvalidKind
}

// applySale walks each sale line (and its toppings) through the product
// recipe and adjusts every referenced ingredient by recipe quantity times
// line quantity, scaled by the given counter signs.
func (e *StockEngine) applySale(ctx context.Context, lines []Line, availSign, stockSign decimal.Decimal) error {
	for _, line := range lines {
		if line.ProductID != nil {
			if err := e.consumeRecipe(ctx, *line.ProductID, line.Quantity, availSign, stockSign); err != nil {
				return err
			}
		}
		for _, t := range line.Toppings {
			if err := e.consumeRecipe(ctx, t.ProductID, t.Quantity, availSign, stockSign); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *StockEngine) consumeRecipe(ctx context.Context, productID uuid.UUID, qty, availSign, stockSign decimal.Decimal) error {
	recipe, err := e.store.GetRecipe(ctx, database.GetRecipeParams{ProductID: productID, TenantID: e.tenantID})
	if err != nil {
		return err
	}
	for _, item := range recipe {
		amount := qty.Mul(numericToDecimal(item.Quantity))
		if err := e.adjust(ctx, item.IngredientID, amount, availSign, stockSign); err != nil {
			return err
		}
	}
	return nil
}

func (e *StockEngine) applyPurchase(ctx context.Context, lines []Line, availSign, stockSign decimal.Decimal) error {
	for _, line := range lines {
		if line.IngredientID == nil {
			continue
		}
		if err := e.adjust(ctx, *line.IngredientID, line.Quantity, availSign, stockSign); err != nil {
			return err
		}
	}
	return nil
}

func (e *StockEngine) adjust(ctx context.Context, ingredientID uuid.UUID, amount, availSign, stockSign decimal.Decimal) error {
	if availSign.IsZero() && stockSign.IsZero() {
		return nil
	}
	// A vanished ingredient affects zero rows; that is fine, the order
	// still goes through.
	_, err := e.store.ApplyIngredientDelta(ctx, database.ApplyIngredientDeltaParams{
		ID:        ingredientID,
		TenantID:  e.tenantID,
		Available: decimalToNumeric(availSign.Mul(amount)),
		InStock:   decimalToNumeric(stockSign.Mul(amount)),
	})
	return err
}
