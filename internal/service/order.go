package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// DB is the connection pool surface the order service needs: plain queries
// for reads plus transactions for mutations. *pgxpool.Pool satisfies it.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore is everything the order service needs from the store. Both
// *database.Queries and its tx-scoped variant satisfy it.
type OrderStore interface {
	CatalogStore
	StockStore

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) (int64, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CountOrders(ctx context.Context, arg database.CountOrdersParams) (int64, error)
	CountPendingSaleOrdersForTable(ctx context.Context, arg database.CountPendingSaleOrdersForTableParams) (int64, error)

	GetTable(ctx context.Context, arg database.TenantScopedIDParams) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (int64, error)
}

// OrderService owns the order lifecycle: validation, pricing, the stock
// ledger, and table occupancy. Every mutation runs inside one transaction so
// the order row and its stock movements commit or roll back together.
type OrderService struct {
	db       DB
	newStore func(db database.DBTX) OrderStore
	reader   OrderStore
}

// NewOrderService creates the service. newStore builds a store bound to a
// connection or transaction; injected so tests can substitute a mock.
func NewOrderService(db DB, newStore func(db database.DBTX) OrderStore) *OrderService {
	return &OrderService{db: db, newStore: newStore, reader: newStore(db)}
}

// Order is the API-facing view of a stored order, with lines enriched from
// the current catalog and the total computed on the way out.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	TableID      *uuid.UUID      `json:"table_id,omitempty"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	Note         string          `json:"note,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountKind string          `json:"discount_kind"`
	Payments     []Payment       `json:"payments"`
	Lines        []LineView      `json:"lines"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type LineView struct {
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	IngredientID *uuid.UUID      `json:"ingredient_id,omitempty"`
	Name         string          `json:"name,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Image        string          `json:"image,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountKind string          `json:"discount_kind,omitempty"`
	Note         string          `json:"note,omitempty"`
	Toppings     []ToppingView   `json:"toppings,omitempty"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type ToppingView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	Kind         string
	Status       string
	TableID      *uuid.UUID
	CustomerID   *uuid.UUID
	SupplierID   *uuid.UUID
	Note         string
	Discount     decimal.Decimal
	DiscountKind string
	Lines        []LineRequest
	Payments     []PaymentRequest
}

func (s *OrderService) Create(ctx context.Context, tenantID, userID uuid.UUID, in CreateOrderInput) (Order, error) {
	kind := in.Kind
	if kind == "" {
		kind = enum.OrderKindSale
	}
	if kind != enum.OrderKindSale && kind != enum.OrderKindPurchase {
		return Order{}, ErrInvalidKind
	}
	status := in.Status
	if status == "" {
		status = enum.OrderStatusPending
	}
	if status != enum.OrderStatusPending && status != enum.OrderStatusCompleted {
		return Order{}, ErrInvalidStatus
	}
	discountKind := in.DiscountKind
	if discountKind == "" {
		discountKind = enum.DiscountKindPercent
	}
	if discountKind != enum.DiscountKindPercent && discountKind != enum.DiscountKindAmount {
		return Order{}, ErrInvalidDiscount
	}
	if in.Discount.IsNegative() {
		return Order{}, ErrInvalidDiscountVal
	}

	payments, err := normalizePayments(in.Payments)
	if err != nil {
		return Order{}, err
	}
	if status == enum.OrderStatusCompleted && len(payments) == 0 {
		return Order{}, ErrEmptyPayments
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)
	store := s.newStore(tx)

	lines, err := normalizeLines(ctx, store, tenantID, kind, in.Lines)
	if err != nil {
		return Order{}, err
	}

	// Table fields only mean something on sale orders.
	if kind != enum.OrderKindSale {
		in.TableID = nil
	}
	if in.TableID != nil {
		if _, err := store.GetTable(ctx, database.TenantScopedIDParams{ID: *in.TableID, TenantID: tenantID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, ErrTableNotFound
			}
			return Order{}, err
		}
		if status == enum.OrderStatusPending {
			if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
				ID: *in.TableID, TenantID: tenantID, Status: enum.TableStatusOccupied,
			}); err != nil {
				return Order{}, err
			}
		}
	}

	engine := NewStockEngine(store, tenantID)
	if err := engine.ApplyCreate(ctx, kind, status, lines); err != nil {
		return Order{}, err
	}

	encodedLines, err := encodeLines(lines)
	if err != nil {
		return Order{}, err
	}
	encodedPayments, err := encodePayments(payments)
	if err != nil {
		return Order{}, err
	}

	row, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TenantID:     tenantID,
		Kind:         kind,
		Status:       status,
		TableID:      uuidToPg(in.TableID),
		CustomerID:   uuidToPg(in.CustomerID),
		SupplierID:   uuidToPg(in.SupplierID),
		Note:         textOrNull(in.Note),
		Discount:     decimalToNumeric(in.Discount),
		DiscountKind: discountKind,
		Payments:     encodedPayments,
		Lines:        encodedLines,
		CreatedBy:    userID,
	})
	if err != nil {
		return Order{}, err
	}

	view, err := s.toView(ctx, store, row)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return view, nil
}

type UpdateOrderInput struct {
	Status       *string
	TableID      *uuid.UUID
	CustomerID   *uuid.UUID
	SupplierID   *uuid.UUID
	Note         *string
	Discount     *decimal.Decimal
	DiscountKind *string
	Lines        []LineRequest
	Payments     []PaymentRequest
}

func (s *OrderService) Update(ctx context.Context, tenantID, orderID uuid.UUID, in UpdateOrderInput) (Order, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)
	store := s.newStore(tx)

	existing, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}

	newStatus := existing.Status
	if in.Status != nil {
		if *in.Status != enum.OrderStatusPending && *in.Status != enum.OrderStatusCompleted {
			return Order{}, ErrInvalidStatus
		}
		newStatus = *in.Status
	}
	if existing.Status == enum.OrderStatusCompleted {
		if newStatus == enum.OrderStatusPending {
			return Order{}, ErrReopenNotAllowed
		}
		if in.Lines != nil {
			return Order{}, ErrOrderCompleted
		}
	}

	discount := numericToDecimal(existing.Discount)
	if in.Discount != nil {
		if in.Discount.IsNegative() {
			return Order{}, ErrInvalidDiscountVal
		}
		discount = *in.Discount
	}
	discountKind := existing.DiscountKind
	if in.DiscountKind != nil {
		if *in.DiscountKind != enum.DiscountKindPercent && *in.DiscountKind != enum.DiscountKindAmount {
			return Order{}, ErrInvalidDiscount
		}
		discountKind = *in.DiscountKind
	}

	oldLines, err := decodeLines(existing.Lines)
	if err != nil {
		return Order{}, err
	}
	lines := oldLines
	linesChanged := false
	if in.Lines != nil && existing.Status == enum.OrderStatusPending {
		lines, err = normalizeLines(ctx, store, tenantID, existing.Kind, in.Lines)
		if err != nil {
			return Order{}, err
		}
		linesChanged = true
	}

	payments, err := decodePayments(existing.Payments)
	if err != nil {
		return Order{}, err
	}
	if in.Payments != nil {
		payments, err = normalizePayments(in.Payments)
		if err != nil {
			return Order{}, err
		}
	}

	completing := existing.Status == enum.OrderStatusPending && newStatus == enum.OrderStatusCompleted
	if completing && len(payments) == 0 {
		return Order{}, ErrEmptyPayments
	}

	if existing.Kind != enum.OrderKindSale {
		in.TableID = nil
	}
	oldTable := pgToUUID(existing.TableID)
	newTable := oldTable
	if in.TableID != nil {
		if _, err := store.GetTable(ctx, database.TenantScopedIDParams{ID: *in.TableID, TenantID: tenantID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, ErrTableNotFound
			}
			return Order{}, err
		}
		id := *in.TableID
		newTable = &id
	}

	engine := NewStockEngine(store, tenantID)
	if linesChanged {
		// Replace, never accumulate: the old reservation comes off in
		// full before the new one goes on.
		if err := engine.ReversePending(ctx, existing.Kind, oldLines); err != nil {
			return Order{}, err
		}
		if err := engine.ApplyPending(ctx, existing.Kind, lines); err != nil {
			return Order{}, err
		}
	}
	if completing {
		if err := engine.ApplyCompletion(ctx, existing.Kind, lines); err != nil {
			return Order{}, err
		}
	}

	encodedLines, err := encodeLines(lines)
	if err != nil {
		return Order{}, err
	}
	encodedPayments, err := encodePayments(payments)
	if err != nil {
		return Order{}, err
	}

	note := existing.Note
	if in.Note != nil {
		note = textOrNull(*in.Note)
	}
	customerID := existing.CustomerID
	if in.CustomerID != nil {
		customerID = uuidToPg(in.CustomerID)
	}
	supplierID := existing.SupplierID
	if in.SupplierID != nil {
		supplierID = uuidToPg(in.SupplierID)
	}

	row, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:           orderID,
		TenantID:     tenantID,
		Status:       newStatus,
		TableID:      uuidToPg(newTable),
		CustomerID:   customerID,
		SupplierID:   supplierID,
		Note:         note,
		Discount:     decimalToNumeric(discount),
		DiscountKind: discountKind,
		Payments:     encodedPayments,
		Lines:        encodedLines,
	})
	if err != nil {
		return Order{}, err
	}

	if existing.Kind == enum.OrderKindSale {
		if err := s.syncTables(ctx, store, tenantID, oldTable, newTable, newStatus); err != nil {
			return Order{}, err
		}
	}

	view, err := s.toView(ctx, store, row)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return view, nil
}

// syncTables runs after the order row is written, so the pending counts
// already reflect this order's new state. A table is freed only when no
// pending sale order still points at it.
func (s *OrderService) syncTables(ctx context.Context, store OrderStore, tenantID uuid.UUID, oldTable, newTable *uuid.UUID, status string) error {
	sameTable := oldTable != nil && newTable != nil && *oldTable == *newTable
	if oldTable != nil && (!sameTable || status != enum.OrderStatusPending) {
		if err := s.freeIfUnused(ctx, store, tenantID, *oldTable); err != nil {
			return err
		}
	}
	if newTable != nil && status == enum.OrderStatusPending {
		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID: *newTable, TenantID: tenantID, Status: enum.TableStatusOccupied,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) freeIfUnused(ctx context.Context, store OrderStore, tenantID, tableID uuid.UUID) error {
	n, err := store.CountPendingSaleOrdersForTable(ctx, database.CountPendingSaleOrdersForTableParams{
		TableID: tableID, TenantID: tenantID,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = store.SetTableStatus(ctx, database.SetTableStatusParams{
		ID: tableID, TenantID: tenantID, Status: enum.TableStatusFree,
	})
	return err
}

func (s *OrderService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	store := s.newStore(tx)

	existing, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}

	lines, err := decodeLines(existing.Lines)
	if err != nil {
		return err
	}
	engine := NewStockEngine(store, tenantID)
	if err := engine.ApplyDelete(ctx, existing.Kind, existing.Status, lines); err != nil {
		return err
	}

	if _, err := store.DeleteOrder(ctx, database.DeleteOrderParams{ID: orderID, TenantID: tenantID}); err != nil {
		return err
	}

	if existing.Kind == enum.OrderKindSale && existing.TableID.Valid {
		if err := s.freeIfUnused(ctx, store, tenantID, uuid.UUID(existing.TableID.Bytes)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *OrderService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (Order, error) {
	row, err := s.reader.GetOrder(ctx, database.GetOrderParams{ID: orderID, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return s.toView(ctx, s.reader, row)
}

type ListOrdersInput struct {
	Kind   string
	Status string
	Page   int
	Size   int
}

func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, in ListOrdersInput) ([]Order, int64, error) {
	if in.Kind != "" && in.Kind != enum.OrderKindSale && in.Kind != enum.OrderKindPurchase {
		return nil, 0, ErrInvalidKind
	}
	if in.Status != "" && in.Status != enum.OrderStatusPending && in.Status != enum.OrderStatusCompleted {
		return nil, 0, ErrInvalidStatus
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Size < 1 || in.Size > 100 {
		in.Size = 20
	}

	rows, err := s.reader.ListOrders(ctx, database.ListOrdersParams{
		TenantID: tenantID,
		Kind:     textOrNull(in.Kind),
		Status:   textOrNull(in.Status),
		Limit:    int32(in.Size),
		Offset:   int32((in.Page - 1) * in.Size),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reader.CountOrders(ctx, database.CountOrdersParams{
		TenantID: tenantID,
		Kind:     textOrNull(in.Kind),
		Status:   textOrNull(in.Status),
	})
	if err != nil {
		return nil, 0, err
	}

	views := make([]Order, 0, len(rows))
	for _, row := range rows {
		v, err := s.toView(ctx, s.reader, row)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, nil
}

// toView decodes the stored payloads, decorates lines with current catalog
// names, and prices the order. Catalog rows deleted since the order was
// taken just lose their display fields.
func (s *OrderService) toView(ctx context.Context, catalog CatalogStore, row database.Order) (Order, error) {
	lines, err := decodeLines(row.Lines)
	if err != nil {
		return Order{}, err
	}
	payments, err := decodePayments(row.Payments)
	if err != nil {
		return Order{}, err
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		v := LineView{
			ProductID:    line.ProductID,
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Discount:     line.Discount,
			DiscountKind: line.DiscountKind,
			Note:         line.Note,
			LineTotal:    lineTotal(line).Round(2),
		}
		if line.ProductID != nil {
			p, err := catalog.GetProductForOrder(ctx, database.TenantScopedIDParams{ID: *line.ProductID, TenantID: row.TenantID})
			if err == nil {
				v.Name, v.Unit, v.Image = p.Name, p.Unit.String, p.Image.String
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return Order{}, err
			}
		}
		if line.IngredientID != nil {
			i, err := catalog.GetIngredientForOrder(ctx, database.GetIngredientParams{ID: *line.IngredientID, TenantID: row.TenantID})
			if err == nil {
				v.Name, v.Unit = i.Name, i.Unit.String
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return Order{}, err
			}
		}
		for _, t := range line.Toppings {
			tv := ToppingView{ProductID: t.ProductID, Quantity: t.Quantity, UnitPrice: t.UnitPrice}
			p, err := catalog.GetProductForOrder(ctx, database.TenantScopedIDParams{ID: t.ProductID, TenantID: row.TenantID})
			if err == nil {
				tv.Name = p.Name
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return Order{}, err
			}
			v.Toppings = append(v.Toppings, tv)
		}
		views = append(views, v)
	}

	return Order{
		ID:           row.ID,
		Kind:         row.Kind,
		Status:       row.Status,
		TableID:      pgToUUID(row.TableID),
		CustomerID:   pgToUUID(row.CustomerID),
		SupplierID:   pgToUUID(row.SupplierID),
		Note:         row.Note.String,
		Discount:     numericToDecimal(row.Discount),
		DiscountKind: row.DiscountKind,
		Payments:     payments,
		Lines:        views,
		TotalAmount:  ComputeTotal(lines, numericToDecimal(row.Discount), row.DiscountKind),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

// --- pgtype helpers ---

func uuidToPg(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func pgToUUID(p pgtype.UUID) *uuid.UUID {
	if !p.Valid {
		return nil
	}
	id := uuid.UUID(p.Bytes)
	return &id
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
