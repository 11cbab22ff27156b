package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Areas ──

type CreateAreaParams struct {
	TenantID uuid.UUID
	Name     string
}

func (q *Queries) CreateArea(ctx context.Context, arg CreateAreaParams) (Area, error) {
	var a Area
	err := q.db.QueryRow(ctx, `
		INSERT INTO areas (tenant_id, name) VALUES ($1, $2)
		RETURNING id, tenant_id, name, created_at, updated_at`,
		arg.TenantID, arg.Name,
	).Scan(&a.ID, &a.TenantID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) GetArea(ctx context.Context, arg TenantScopedIDParams) (Area, error) {
	var a Area
	err := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM areas WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	).Scan(&a.ID, &a.TenantID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) ListAreas(ctx context.Context, tenantID uuid.UUID) ([]Area, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM areas WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		var a Area
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

type UpdateAreaParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

func (q *Queries) UpdateArea(ctx context.Context, arg UpdateAreaParams) (Area, error) {
	var a Area
	err := q.db.QueryRow(ctx, `
		UPDATE areas SET name = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, created_at, updated_at`,
		arg.ID, arg.TenantID, arg.Name,
	).Scan(&a.ID, &a.TenantID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) DeleteArea(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM areas WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ── Tables ──

const tableColumns = `id, tenant_id, area_id, name, status, created_at, updated_at`

func scanTable(row interface{ Scan(dest ...any) error }) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.TenantID, &t.AreaID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTableParams struct {
	TenantID uuid.UUID
	AreaID   pgtype.UUID
	Name     string
	Status   string
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (tenant_id, area_id, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+tableColumns,
		arg.TenantID, arg.AreaID, arg.Name, arg.Status,
	)
	return scanTable(row)
}

func (q *Queries) GetTable(ctx context.Context, arg TenantScopedIDParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+tableColumns+` FROM tables WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanTable(row)
}

type ListTablesParams struct {
	TenantID uuid.UUID
	AreaID   pgtype.UUID
}

func (q *Queries) ListTables(ctx context.Context, arg ListTablesParams) ([]Table, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE tenant_id = $1 AND ($2::uuid IS NULL OR area_id = $2)
		ORDER BY name`,
		arg.TenantID, arg.AreaID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type UpdateTableParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	AreaID   pgtype.UUID
	Name     string
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables SET area_id = $3, name = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+tableColumns,
		arg.ID, arg.TenantID, arg.AreaID, arg.Name,
	)
	return scanTable(row)
}

type SetTableStatusParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Status   string
}

// SetTableStatus is an idempotent state set; the order service calls it in
// step with sale order mutations.
func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE tables SET status = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID, arg.Status,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) DeleteTable(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM tables WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
