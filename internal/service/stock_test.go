package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

type appliedDelta struct {
	IngredientID uuid.UUID
	Available    decimal.Decimal
	InStock      decimal.Decimal
}

type mockStockStore struct {
	recipes map[uuid.UUID][]database.GetRecipeRow
	deltas  []appliedDelta
}

func (m *mockStockStore) GetRecipe(_ context.Context, arg database.GetRecipeParams) ([]database.GetRecipeRow, error) {
	return m.recipes[arg.ProductID], nil
}

func (m *mockStockStore) ApplyIngredientDelta(_ context.Context, arg database.ApplyIngredientDeltaParams) (int64, error) {
	m.deltas = append(m.deltas, appliedDelta{
		IngredientID: arg.ID,
		Available:    numericToDecimal(arg.Available),
		InStock:      numericToDecimal(arg.InStock),
	})
	return 1, nil
}

// netDeltas folds the recorded movements per ingredient.
func (m *mockStockStore) netDeltas() map[uuid.UUID]appliedDelta {
	net := make(map[uuid.UUID]appliedDelta)
	for _, d := range m.deltas {
		cur := net[d.IngredientID]
		cur.IngredientID = d.IngredientID
		cur.Available = cur.Available.Add(d.Available)
		cur.InStock = cur.InStock.Add(d.InStock)
		net[d.IngredientID] = cur
	}
	return net
}

func recipeRow(ingredientID uuid.UUID, qty string) database.GetRecipeRow {
	d, _ := decimal.NewFromString(qty)
	return database.GetRecipeRow{IngredientID: ingredientID, Quantity: decimalToNumeric(d)}
}

func saleLine(productID uuid.UUID, qty string) Line {
	d, _ := decimal.NewFromString(qty)
	return Line{ProductID: &productID, Quantity: d}
}

func purchaseLine(ingredientID uuid.UUID, qty string) Line {
	d, _ := decimal.NewFromString(qty)
	return Line{IngredientID: &ingredientID, Quantity: d}
}

func requireDelta(t *testing.T, got appliedDelta, available, inStock string) {
	t.Helper()
	if got.Available.String() != available {
		t.Fatalf("available delta = %s, want %s", got.Available, available)
	}
	if got.InStock.String() != inStock {
		t.Fatalf("in_stock delta = %s, want %s", got.InStock, inStock)
	}
}

func TestApplyCreatePendingSaleReservesAvailableOnly(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	cheese := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "0.2"), recipeRow(cheese, "0.05")},
	}}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyCreate(context.Background(), enum.OrderKindSale, enum.OrderStatusPending,
		[]Line{saleLine(productID, "3")})
	if err != nil {
		t.Fatalf("ApplyCreate: %v", err)
	}

	net := store.netDeltas()
	requireDelta(t, net[flour], "-0.6", "0")
	requireDelta(t, net[cheese], "-0.15", "0")
}

func TestApplyCreateCompletedSaleMovesBothCounters(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "0.5")},
	}}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyCreate(context.Background(), enum.OrderKindSale, enum.OrderStatusCompleted,
		[]Line{saleLine(productID, "2")})
	if err != nil {
		t.Fatalf("ApplyCreate: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "-1", "-1")
}

func TestApplyCompletionMovesOnlyInStock(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "0.5")},
	}}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyCompletion(context.Background(), enum.OrderKindSale,
		[]Line{saleLine(productID, "4")})
	if err != nil {
		t.Fatalf("ApplyCompletion: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "0", "-2")
}

func TestReverseThenApplyPendingReplacesReservation(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "1")},
	}}
	engine := NewStockEngine(store, uuid.New())
	ctx := context.Background()

	// Pending order held 2 units, the edit asks for 5. The net movement
	// must be the difference, not the sum.
	if err := engine.ReversePending(ctx, enum.OrderKindSale, []Line{saleLine(productID, "2")}); err != nil {
		t.Fatalf("ReversePending: %v", err)
	}
	if err := engine.ApplyPending(ctx, enum.OrderKindSale, []Line{saleLine(productID, "5")}); err != nil {
		t.Fatalf("ApplyPending: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "-3", "0")
}

func TestReversePendingIsExactInverseOfApplyPending(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "0.25")},
	}}
	engine := NewStockEngine(store, uuid.New())
	ctx := context.Background()
	lines := []Line{saleLine(productID, "7")}

	if err := engine.ApplyPending(ctx, enum.OrderKindSale, lines); err != nil {
		t.Fatalf("ApplyPending: %v", err)
	}
	if err := engine.ReversePending(ctx, enum.OrderKindSale, lines); err != nil {
		t.Fatalf("ReversePending: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "0", "0")
}

func TestDeleteCompletedSaleLeavesStockAlone(t *testing.T) {
	productID := uuid.New()
	flour := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "1")},
	}}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyDelete(context.Background(), enum.OrderKindSale, enum.OrderStatusCompleted,
		[]Line{saleLine(productID, "2")})
	if err != nil {
		t.Fatalf("ApplyDelete: %v", err)
	}
	if len(store.deltas) != 0 {
		t.Fatalf("expected no stock movement, got %d deltas", len(store.deltas))
	}
}

func TestDeleteCompletedPurchaseReversesBothCounters(t *testing.T) {
	flour := uuid.New()
	store := &mockStockStore{}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyDelete(context.Background(), enum.OrderKindPurchase, enum.OrderStatusCompleted,
		[]Line{purchaseLine(flour, "10")})
	if err != nil {
		t.Fatalf("ApplyDelete: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "-10", "-10")
}

func TestDeletePendingPurchaseReleasesReservationOnly(t *testing.T) {
	flour := uuid.New()
	store := &mockStockStore{}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyDelete(context.Background(), enum.OrderKindPurchase, enum.OrderStatusPending,
		[]Line{purchaseLine(flour, "10")})
	if err != nil {
		t.Fatalf("ApplyDelete: %v", err)
	}

	requireDelta(t, store.netDeltas()[flour], "-10", "0")
}

func TestLineWithoutRecipeIsSkipped(t *testing.T) {
	store := &mockStockStore{}
	engine := NewStockEngine(store, uuid.New())

	err := engine.ApplyCreate(context.Background(), enum.OrderKindSale, enum.OrderStatusPending,
		[]Line{saleLine(uuid.New(), "3")})
	if err != nil {
		t.Fatalf("ApplyCreate: %v", err)
	}
	if len(store.deltas) != 0 {
		t.Fatalf("expected no stock movement for recipe-less product, got %d deltas", len(store.deltas))
	}
}

func TestToppingsConsumeTheirOwnRecipe(t *testing.T) {
	productID := uuid.New()
	toppingID := uuid.New()
	flour := uuid.New()
	cheese := uuid.New()
	store := &mockStockStore{recipes: map[uuid.UUID][]database.GetRecipeRow{
		productID: {recipeRow(flour, "1")},
		toppingID: {recipeRow(cheese, "0.1")},
	}}
	engine := NewStockEngine(store, uuid.New())

	line := saleLine(productID, "2")
	line.Toppings = []Topping{{ProductID: toppingID, Quantity: decimal.NewFromInt(3)}}
	err := engine.ApplyCreate(context.Background(), enum.OrderKindSale, enum.OrderStatusPending, []Line{line})
	if err != nil {
		t.Fatalf("ApplyCreate: %v", err)
	}

	net := store.netDeltas()
	requireDelta(t, net[flour], "-2", "0")
	requireDelta(t, net[cheese], "-0.3", "0")
}
