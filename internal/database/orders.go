package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, tenant_id, kind, status, table_id, customer_id, supplier_id,
	note, discount, discount_kind, payments, lines, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.TenantID, &o.Kind, &o.Status, &o.TableID, &o.CustomerID,
		&o.SupplierID, &o.Note, &o.Discount, &o.DiscountKind, &o.Payments,
		&o.Lines, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	TenantID     uuid.UUID
	Kind         string
	Status       string
	TableID      pgtype.UUID
	CustomerID   pgtype.UUID
	SupplierID   pgtype.UUID
	Note         pgtype.Text
	Discount     pgtype.Numeric
	DiscountKind string
	Payments     []byte
	Lines        []byte
	CreatedBy    uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (tenant_id, kind, status, table_id, customer_id, supplier_id,
			note, discount, discount_kind, payments, lines, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+orderColumns,
		arg.TenantID, arg.Kind, arg.Status, arg.TableID, arg.CustomerID,
		arg.SupplierID, arg.Note, arg.Discount, arg.DiscountKind,
		arg.Payments, arg.Lines, arg.CreatedBy,
	)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanOrder(row)
}

type UpdateOrderParams struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Status       string
	TableID      pgtype.UUID
	CustomerID   pgtype.UUID
	SupplierID   pgtype.UUID
	Note         pgtype.Text
	Discount     pgtype.Numeric
	DiscountKind string
	Payments     []byte
	Lines        []byte
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, table_id = $4, customer_id = $5, supplier_id = $6,
			note = $7, discount = $8, discount_kind = $9, payments = $10,
			lines = $11, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.TenantID, arg.Status, arg.TableID, arg.CustomerID,
		arg.SupplierID, arg.Note, arg.Discount, arg.DiscountKind,
		arg.Payments, arg.Lines,
	)
	return scanOrder(row)
}

type DeleteOrderParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ListOrdersParams struct {
	TenantID uuid.UUID
	Kind     pgtype.Text
	Status   pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR kind = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.TenantID, arg.Kind, arg.Status, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type CountOrdersParams struct {
	TenantID uuid.UUID
	Kind     pgtype.Text
	Status   pgtype.Text
}

func (q *Queries) CountOrders(ctx context.Context, arg CountOrdersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM orders
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR kind = $2)
		  AND ($3::text IS NULL OR status = $3)`,
		arg.TenantID, arg.Kind, arg.Status,
	).Scan(&n)
	return n, err
}

type CountPendingSaleOrdersForTableParams struct {
	TableID  uuid.UUID
	TenantID uuid.UUID
}

// CountPendingSaleOrdersForTable reports how many open sale orders still
// reference a table. Used to decide whether the table can be freed.
func (q *Queries) CountPendingSaleOrdersForTable(ctx context.Context, arg CountPendingSaleOrdersForTableParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM orders
		WHERE table_id = $1 AND tenant_id = $2 AND kind = 'SALE' AND status = 'PENDING'`,
		arg.TableID, arg.TenantID,
	).Scan(&n)
	return n, err
}

// GetPendingSaleOrderForTable returns the open sale order a table is serving,
// if any. The QR ordering flow merges new items into it instead of opening a
// second tab.
func (q *Queries) GetPendingSaleOrderForTable(ctx context.Context, arg CountPendingSaleOrdersForTableParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE table_id = $1 AND tenant_id = $2 AND kind = 'SALE' AND status = 'PENDING'
		ORDER BY created_at
		LIMIT 1`,
		arg.TableID, arg.TenantID,
	)
	return scanOrder(row)
}

type ListOrdersBetweenParams struct {
	TenantID uuid.UUID
	Kind     string
	Status   string
	Start    pgtype.Timestamptz
	End      pgtype.Timestamptz
}

// ListOrdersBetween feeds the report aggregations; totals are computed from
// the line payload in Go, not in SQL.
func (q *Queries) ListOrdersBetween(ctx context.Context, arg ListOrdersBetweenParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE tenant_id = $1 AND kind = $2 AND status = $3
		  AND created_at BETWEEN $4 AND $5
		ORDER BY created_at`,
		arg.TenantID, arg.Kind, arg.Status, arg.Start, arg.End,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type CountOrdersByStatusParams struct {
	TenantID uuid.UUID
	Status   string
}

func (q *Queries) CountOrdersByStatus(ctx context.Context, arg CountOrdersByStatusParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE tenant_id = $1 AND status = $2`,
		arg.TenantID, arg.Status,
	).Scan(&n)
	return n, err
}
