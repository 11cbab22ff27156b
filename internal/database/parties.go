package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePartyParams struct {
	TenantID uuid.UUID
	Name     string
	Phone    pgtype.Text
	Address  pgtype.Text
}

type UpdatePartyParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Phone    pgtype.Text
	Address  pgtype.Text
}

// ── Customers ──

func scanCustomer(row interface{ Scan(dest ...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreatePartyParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, name, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, name, phone, address, created_at, updated_at`,
		arg.TenantID, arg.Name, arg.Phone, arg.Address,
	)
	return scanCustomer(row)
}

func (q *Queries) GetCustomer(ctx context.Context, arg TenantScopedIDParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, phone, address, created_at, updated_at
		FROM customers WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanCustomer(row)
}

func (q *Queries) ListCustomers(ctx context.Context, tenantID uuid.UUID) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, name, phone, address, created_at, updated_at
		FROM customers WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdatePartyParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers SET name = $3, phone = $4, address = $5, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, phone, address, created_at, updated_at`,
		arg.ID, arg.TenantID, arg.Name, arg.Phone, arg.Address,
	)
	return scanCustomer(row)
}

func (q *Queries) DeleteCustomer(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM customers WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ── Suppliers ──

func scanSupplier(row interface{ Scan(dest ...any) error }) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (q *Queries) CreateSupplier(ctx context.Context, arg CreatePartyParams) (Supplier, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO suppliers (tenant_id, name, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, name, phone, address, created_at, updated_at`,
		arg.TenantID, arg.Name, arg.Phone, arg.Address,
	)
	return scanSupplier(row)
}

func (q *Queries) GetSupplier(ctx context.Context, arg TenantScopedIDParams) (Supplier, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, phone, address, created_at, updated_at
		FROM suppliers WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanSupplier(row)
}

func (q *Queries) ListSuppliers(ctx context.Context, tenantID uuid.UUID) ([]Supplier, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, name, phone, address, created_at, updated_at
		FROM suppliers WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (q *Queries) UpdateSupplier(ctx context.Context, arg UpdatePartyParams) (Supplier, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE suppliers SET name = $3, phone = $4, address = $5, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, phone, address, created_at, updated_at`,
		arg.ID, arg.TenantID, arg.Name, arg.Phone, arg.Address,
	)
	return scanSupplier(row)
}

func (q *Queries) DeleteSupplier(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM suppliers WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
