package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ingredientColumns = `id, tenant_id, name, base_cost, retail_cost, unit, image,
	available, in_stock, created_at, updated_at`

func scanIngredient(row interface{ Scan(dest ...any) error }) (Ingredient, error) {
	var i Ingredient
	err := row.Scan(
		&i.ID, &i.TenantID, &i.Name, &i.BaseCost, &i.RetailCost, &i.Unit,
		&i.Image, &i.Available, &i.InStock, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

type ApplyIngredientDeltaParams struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Available pgtype.Numeric
	InStock   pgtype.Numeric
}

// ApplyIngredientDelta adds signed amounts to the two stock counters in a
// single atomic UPDATE, so concurrent orders never lose increments. Counters
// are allowed to go negative. A missing ingredient affects zero rows; the
// caller decides whether that matters.
func (q *Queries) ApplyIngredientDelta(ctx context.Context, arg ApplyIngredientDeltaParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE ingredients
		SET available = available + $3, in_stock = in_stock + $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID, arg.Available, arg.InStock,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type CreateIngredientParams struct {
	TenantID   uuid.UUID
	Name       string
	BaseCost   pgtype.Numeric
	RetailCost pgtype.Numeric
	Unit       pgtype.Text
	Image      pgtype.Text
	Available  pgtype.Numeric
	InStock    pgtype.Numeric
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ingredients (tenant_id, name, base_cost, retail_cost, unit, image, available, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+ingredientColumns,
		arg.TenantID, arg.Name, arg.BaseCost, arg.RetailCost, arg.Unit,
		arg.Image, arg.Available, arg.InStock,
	)
	return scanIngredient(row)
}

type GetIngredientParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetIngredient(ctx context.Context, arg GetIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanIngredient(row)
}

type GetIngredientForOrderRow struct {
	ID   uuid.UUID
	Name string
	Unit pgtype.Text
}

// GetIngredientForOrder is the read-path catalog lookup used to enrich
// purchase order lines for display.
func (q *Queries) GetIngredientForOrder(ctx context.Context, arg GetIngredientParams) (GetIngredientForOrderRow, error) {
	var r GetIngredientForOrderRow
	err := q.db.QueryRow(ctx,
		`SELECT id, name, unit FROM ingredients WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	).Scan(&r.ID, &r.Name, &r.Unit)
	return r, err
}

type ListIngredientsParams struct {
	TenantID uuid.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListIngredients(ctx context.Context, arg ListIngredientsParams) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ingredientColumns+` FROM ingredients
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		arg.TenantID, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, i)
	}
	return ingredients, rows.Err()
}

func (q *Queries) CountIngredients(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM ingredients WHERE tenant_id = $1`, tenantID,
	).Scan(&n)
	return n, err
}

type UpdateIngredientParams struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	BaseCost   pgtype.Numeric
	RetailCost pgtype.Numeric
	Unit       pgtype.Text
	Image      pgtype.Text
}

// UpdateIngredient deliberately does not touch available/in_stock: those
// move only through ApplyIngredientDelta.
func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE ingredients
		SET name = $3, base_cost = $4, retail_cost = $5, unit = $6, image = $7,
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+ingredientColumns,
		arg.ID, arg.TenantID, arg.Name, arg.BaseCost, arg.RetailCost,
		arg.Unit, arg.Image,
	)
	return scanIngredient(row)
}

func (q *Queries) DeleteIngredient(ctx context.Context, arg GetIngredientParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM ingredients WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
