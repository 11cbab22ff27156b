package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// ReportStore is the read-only slice of the store the reports need.
type ReportStore interface {
	CatalogStore
	ListOrdersBetween(ctx context.Context, arg database.ListOrdersBetweenParams) ([]database.Order, error)
	CountOrdersByStatus(ctx context.Context, arg database.CountOrdersByStatusParams) (int64, error)
}

// ReportService aggregates completed orders into revenue, sales, and
// purchasing views. Aggregation happens in Go over the decoded line payloads
// rather than in SQL.
type ReportService struct {
	store ReportStore
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

type RevenueReport struct {
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Total      decimal.Decimal `json:"total"`
	OrderCount int             `json:"order_count"`
	Days       []RevenueDay    `json:"days"`
}

type RevenueDay struct {
	Date       string          `json:"date"`
	Total      decimal.Decimal `json:"total"`
	OrderCount int             `json:"order_count"`
}

// Revenue totals completed sale orders in the window, discounts applied,
// bucketed per calendar day.
func (s *ReportService) Revenue(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (RevenueReport, error) {
	orders, err := s.completedOrders(ctx, tenantID, enum.OrderKindSale, start, end)
	if err != nil {
		return RevenueReport{}, err
	}

	report := RevenueReport{Start: start, End: end, Total: decimal.Zero}
	byDay := make(map[string]*RevenueDay)
	for _, o := range orders {
		lines, err := decodeLines(o.Lines)
		if err != nil {
			return RevenueReport{}, err
		}
		amount := ComputeTotal(lines, numericToDecimal(o.Discount), o.DiscountKind)
		report.Total = report.Total.Add(amount)
		report.OrderCount++

		key := o.CreatedAt.Format("2006-01-02")
		day, ok := byDay[key]
		if !ok {
			day = &RevenueDay{Date: key, Total: decimal.Zero}
			byDay[key] = day
		}
		day.Total = day.Total.Add(amount)
		day.OrderCount++
	}

	for _, day := range byDay {
		report.Days = append(report.Days, *day)
	}
	sort.Slice(report.Days, func(i, j int) bool { return report.Days[i].Date < report.Days[j].Date })
	return report, nil
}

type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Gross     decimal.Decimal `json:"gross"`
}

// ProductSalesReport ranks products by quantity sold across completed sale
// orders. Gross is unit price times quantity before any discount; toppings
// count toward the topping product, not the parent line.
func (s *ReportService) ProductSalesReport(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]ProductSales, error) {
	orders, err := s.completedOrders(ctx, tenantID, enum.OrderKindSale, start, end)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]*ProductSales)
	add := func(id uuid.UUID, qty, price decimal.Decimal) {
		entry, ok := byProduct[id]
		if !ok {
			entry = &ProductSales{ProductID: id, Quantity: decimal.Zero, Gross: decimal.Zero}
			byProduct[id] = entry
		}
		entry.Quantity = entry.Quantity.Add(qty)
		entry.Gross = entry.Gross.Add(price.Mul(qty))
	}

	for _, o := range orders {
		lines, err := decodeLines(o.Lines)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line.ProductID != nil {
				add(*line.ProductID, line.Quantity, line.UnitPrice)
			}
			for _, t := range line.Toppings {
				add(t.ProductID, t.Quantity, t.UnitPrice)
			}
		}
	}

	result := make([]ProductSales, 0, len(byProduct))
	for _, entry := range byProduct {
		p, err := s.store.GetProductForOrder(ctx, database.TenantScopedIDParams{ID: entry.ProductID, TenantID: tenantID})
		if err == nil {
			entry.Name = p.Name
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Quantity.GreaterThan(result[j].Quantity) })
	return result, nil
}

type IngredientPurchases struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
}

// IngredientPurchaseReport totals completed purchase orders per ingredient.
func (s *ReportService) IngredientPurchaseReport(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]IngredientPurchases, error) {
	orders, err := s.completedOrders(ctx, tenantID, enum.OrderKindPurchase, start, end)
	if err != nil {
		return nil, err
	}

	byIngredient := make(map[uuid.UUID]*IngredientPurchases)
	for _, o := range orders {
		lines, err := decodeLines(o.Lines)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line.IngredientID == nil {
				continue
			}
			entry, ok := byIngredient[*line.IngredientID]
			if !ok {
				entry = &IngredientPurchases{IngredientID: *line.IngredientID, Quantity: decimal.Zero, Cost: decimal.Zero}
				byIngredient[*line.IngredientID] = entry
			}
			entry.Quantity = entry.Quantity.Add(line.Quantity)
			entry.Cost = entry.Cost.Add(line.UnitPrice.Mul(line.Quantity))
		}
	}

	result := make([]IngredientPurchases, 0, len(byIngredient))
	for _, entry := range byIngredient {
		i, err := s.store.GetIngredientForOrder(ctx, database.GetIngredientParams{ID: entry.IngredientID, TenantID: tenantID})
		if err == nil {
			entry.Name = i.Name
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cost.GreaterThan(result[j].Cost) })
	return result, nil
}

type Dashboard struct {
	TodayRevenue    decimal.Decimal `json:"today_revenue"`
	TodayOrders     int             `json:"today_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	CompletedOrders int64           `json:"completed_orders"`
}

// DashboardReport is the landing-page summary. Today's revenue is the gross
// goods amount, discounts are not applied here.
func (s *ReportService) DashboardReport(ctx context.Context, tenantID uuid.UUID, now time.Time) (Dashboard, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	orders, err := s.completedOrders(ctx, tenantID, enum.OrderKindSale, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{TodayRevenue: decimal.Zero}
	for _, o := range orders {
		lines, err := decodeLines(o.Lines)
		if err != nil {
			return Dashboard{}, err
		}
		for _, line := range lines {
			d.TodayRevenue = d.TodayRevenue.Add(line.UnitPrice.Mul(line.Quantity))
			for _, t := range line.Toppings {
				d.TodayRevenue = d.TodayRevenue.Add(t.UnitPrice.Mul(t.Quantity))
			}
		}
		d.TodayOrders++
	}
	d.TodayRevenue = d.TodayRevenue.Round(2)

	d.PendingOrders, err = s.store.CountOrdersByStatus(ctx, database.CountOrdersByStatusParams{
		TenantID: tenantID, Status: enum.OrderStatusPending,
	})
	if err != nil {
		return Dashboard{}, err
	}
	d.CompletedOrders, err = s.store.CountOrdersByStatus(ctx, database.CountOrdersByStatusParams{
		TenantID: tenantID, Status: enum.OrderStatusCompleted,
	})
	if err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *ReportService) completedOrders(ctx context.Context, tenantID uuid.UUID, kind string, start, end time.Time) ([]database.Order, error) {
	return s.store.ListOrdersBetween(ctx, database.ListOrdersBetweenParams{
		TenantID: tenantID,
		Kind:     kind,
		Status:   enum.OrderStatusCompleted,
		Start:    pgtype.Timestamptz{Time: start, Valid: true},
		End:      pgtype.Timestamptz{Time: end, Valid: true},
	})
}
