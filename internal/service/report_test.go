package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

type mockReportStore struct {
	orders map[string][]database.Order // keyed by kind
	counts map[string]int64            // keyed by status
	names  map[uuid.UUID]string
}

func (m *mockReportStore) ListOrdersBetween(ctx context.Context, arg database.ListOrdersBetweenParams) ([]database.Order, error) {
	return m.orders[arg.Kind], nil
}

func (m *mockReportStore) CountOrdersByStatus(ctx context.Context, arg database.CountOrdersByStatusParams) (int64, error) {
	return m.counts[arg.Status], nil
}

func (m *mockReportStore) GetProductForOrder(ctx context.Context, arg database.TenantScopedIDParams) (database.GetProductForOrderRow, error) {
	if name, ok := m.names[arg.ID]; ok {
		return database.GetProductForOrderRow{ID: arg.ID, Name: name}, nil
	}
	return database.GetProductForOrderRow{}, pgx.ErrNoRows
}

func (m *mockReportStore) GetIngredientForOrder(ctx context.Context, arg database.GetIngredientParams) (database.GetIngredientForOrderRow, error) {
	if name, ok := m.names[arg.ID]; ok {
		return database.GetIngredientForOrderRow{ID: arg.ID, Name: name}, nil
	}
	return database.GetIngredientForOrderRow{}, pgx.ErrNoRows
}

func completedOrder(t *testing.T, kind string, createdAt time.Time, discount decimal.Decimal, discountKind string, lines []Line) database.Order {
	t.Helper()
	raw, err := encodeLines(lines)
	if err != nil {
		t.Fatalf("encode lines: %v", err)
	}
	return database.Order{
		ID:           uuid.New(),
		Kind:         kind,
		Status:       enum.OrderStatusCompleted,
		Discount:     decimalToNumeric(discount),
		DiscountKind: discountKind,
		Lines:        raw,
		CreatedAt:    createdAt,
	}
}

func grossLine(productID uuid.UUID, qty, price int64) Line {
	return Line{
		ProductID: &productID,
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(price),
	}
}

func TestRevenueBucketsPerDay(t *testing.T) {
	productID := uuid.New()
	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 19, 30, 0, 0, time.UTC)

	store := &mockReportStore{orders: map[string][]database.Order{
		enum.OrderKindSale: {
			completedOrder(t, enum.OrderKindSale, day1, decimal.Zero, enum.DiscountKindPercent,
				[]Line{grossLine(productID, 2, 10)}),
			completedOrder(t, enum.OrderKindSale, day1, decimal.NewFromInt(50), enum.DiscountKindPercent,
				[]Line{grossLine(productID, 1, 10)}),
			completedOrder(t, enum.OrderKindSale, day2, decimal.Zero, enum.DiscountKindPercent,
				[]Line{grossLine(productID, 3, 10)}),
		},
	}}

	report, err := NewReportService(store).Revenue(context.Background(), uuid.New(), day1, day2.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}

	if !report.Total.Equal(decimal.NewFromInt(55)) {
		t.Errorf("total = %s, want 55", report.Total)
	}
	if report.OrderCount != 3 {
		t.Errorf("order count = %d, want 3", report.OrderCount)
	}
	if len(report.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(report.Days))
	}
	if report.Days[0].Date != "2026-08-01" || !report.Days[0].Total.Equal(decimal.NewFromInt(25)) {
		t.Errorf("day 1 = %s %s, want 2026-08-01 25", report.Days[0].Date, report.Days[0].Total)
	}
	if report.Days[1].Date != "2026-08-02" || !report.Days[1].Total.Equal(decimal.NewFromInt(30)) {
		t.Errorf("day 2 = %s %s, want 2026-08-02 30", report.Days[1].Date, report.Days[1].Total)
	}
}

func TestProductSalesRanksByQuantity(t *testing.T) {
	noodles := uuid.New()
	egg := uuid.New()
	now := time.Now()

	order := completedOrder(t, enum.OrderKindSale, now, decimal.Zero, enum.DiscountKindPercent, []Line{
		{
			ProductID: &noodles,
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.NewFromInt(9),
			Toppings: []Topping{
				{ProductID: egg, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(1)},
			},
		},
	})

	store := &mockReportStore{
		orders: map[string][]database.Order{enum.OrderKindSale: {order}},
		names:  map[uuid.UUID]string{noodles: "Beef Noodle Soup", egg: "Extra Egg"},
	}

	report, err := NewReportService(store).ProductSalesReport(context.Background(), uuid.New(), now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ProductSalesReport: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("got %d products, want 2", len(report))
	}

	// Toppings outsold the parent product, so the egg ranks first.
	if report[0].ProductID != egg {
		t.Errorf("top seller = %s, want %s", report[0].ProductID, egg)
	}
	if !report[0].Quantity.Equal(decimal.NewFromInt(4)) || !report[0].Gross.Equal(decimal.NewFromInt(4)) {
		t.Errorf("egg qty/gross = %s/%s, want 4/4", report[0].Quantity, report[0].Gross)
	}
	if report[1].Name != "Beef Noodle Soup" {
		t.Errorf("name = %q, want Beef Noodle Soup", report[1].Name)
	}
	if !report[1].Gross.Equal(decimal.NewFromInt(18)) {
		t.Errorf("noodles gross = %s, want 18", report[1].Gross)
	}
}

func TestIngredientPurchasesAggregatesByIngredient(t *testing.T) {
	beef := uuid.New()
	now := time.Now()

	orders := []database.Order{
		completedOrder(t, enum.OrderKindPurchase, now, decimal.Zero, enum.DiscountKindPercent, []Line{
			{IngredientID: &beef, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(12)},
		}),
		completedOrder(t, enum.OrderKindPurchase, now, decimal.Zero, enum.DiscountKindPercent, []Line{
			{IngredientID: &beef, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(11)},
		}),
	}

	store := &mockReportStore{
		orders: map[string][]database.Order{enum.OrderKindPurchase: orders},
		names:  map[uuid.UUID]string{beef: "Beef brisket"},
	}

	report, err := NewReportService(store).IngredientPurchaseReport(context.Background(), uuid.New(), now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("IngredientPurchaseReport: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("got %d ingredients, want 1", len(report))
	}
	if !report[0].Quantity.Equal(decimal.NewFromInt(8)) {
		t.Errorf("quantity = %s, want 8", report[0].Quantity)
	}
	if !report[0].Cost.Equal(decimal.NewFromInt(93)) {
		t.Errorf("cost = %s, want 93", report[0].Cost)
	}
	if report[0].Name != "Beef brisket" {
		t.Errorf("name = %q, want Beef brisket", report[0].Name)
	}
}

func TestDashboardIgnoresDiscountsForTodayRevenue(t *testing.T) {
	productID := uuid.New()
	now := time.Now()

	store := &mockReportStore{
		orders: map[string][]database.Order{
			enum.OrderKindSale: {
				completedOrder(t, enum.OrderKindSale, now, decimal.NewFromInt(50), enum.DiscountKindPercent,
					[]Line{grossLine(productID, 2, 10)}),
			},
		},
		counts: map[string]int64{
			enum.OrderStatusPending:   3,
			enum.OrderStatusCompleted: 7,
		},
	}

	d, err := NewReportService(store).DashboardReport(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("DashboardReport: %v", err)
	}
	// Gross, not discounted: 2 x 10, the 50% discount is not applied here.
	if !d.TodayRevenue.Equal(decimal.NewFromInt(20)) {
		t.Errorf("today revenue = %s, want 20", d.TodayRevenue)
	}
	if d.TodayOrders != 1 {
		t.Errorf("today orders = %d, want 1", d.TodayOrders)
	}
	if d.PendingOrders != 3 || d.CompletedOrders != 7 {
		t.Errorf("pending/completed = %d/%d, want 3/7", d.PendingOrders, d.CompletedOrders)
	}
}
