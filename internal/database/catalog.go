package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Categories ──

type CreateCategoryParams struct {
	TenantID uuid.UUID
	Name     string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		INSERT INTO categories (tenant_id, name) VALUES ($1, $2)
		RETURNING id, tenant_id, name, created_at, updated_at`,
		arg.TenantID, arg.Name,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type TenantScopedIDParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetCategory(ctx context.Context, arg TenantScopedIDParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM categories WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM categories WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type UpdateCategoryParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		UPDATE categories SET name = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, created_at, updated_at`,
		arg.ID, arg.TenantID, arg.Name,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) DeleteCategory(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ── Products ──

const productColumns = `id, tenant_id, name, retail_price, base_cost, unit, image,
	category_id, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.RetailPrice, &p.BaseCost, &p.Unit,
		&p.Image, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type CreateProductParams struct {
	TenantID    uuid.UUID
	Name        string
	RetailPrice pgtype.Numeric
	BaseCost    pgtype.Numeric
	Unit        pgtype.Text
	Image       pgtype.Text
	CategoryID  pgtype.UUID
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (tenant_id, name, retail_price, base_cost, unit, image, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		arg.TenantID, arg.Name, arg.RetailPrice, arg.BaseCost, arg.Unit,
		arg.Image, arg.CategoryID,
	)
	return scanProduct(row)
}

func (q *Queries) GetProduct(ctx context.Context, arg TenantScopedIDParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	)
	return scanProduct(row)
}

type GetProductForOrderRow struct {
	ID          uuid.UUID
	Name        string
	RetailPrice pgtype.Numeric
	Unit        pgtype.Text
	Image       pgtype.Text
}

// GetProductForOrder is the catalog price/display lookup for sale lines and
// toppings.
func (q *Queries) GetProductForOrder(ctx context.Context, arg TenantScopedIDParams) (GetProductForOrderRow, error) {
	var r GetProductForOrderRow
	err := q.db.QueryRow(ctx, `
		SELECT id, name, retail_price, unit, image
		FROM products WHERE id = $1 AND tenant_id = $2`,
		arg.ID, arg.TenantID,
	).Scan(&r.ID, &r.Name, &r.RetailPrice, &r.Unit, &r.Image)
	return r, err
}

type ListProductsParams struct {
	TenantID uuid.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		arg.TenantID, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE tenant_id = $1`, tenantID,
	).Scan(&n)
	return n, err
}

type UpdateProductParams struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	RetailPrice pgtype.Numeric
	BaseCost    pgtype.Numeric
	Unit        pgtype.Text
	Image       pgtype.Text
	CategoryID  pgtype.UUID
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET name = $3, retail_price = $4, base_cost = $5, unit = $6, image = $7,
			category_id = $8, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+productColumns,
		arg.ID, arg.TenantID, arg.Name, arg.RetailPrice, arg.BaseCost,
		arg.Unit, arg.Image, arg.CategoryID,
	)
	return scanProduct(row)
}

func (q *Queries) DeleteProduct(ctx context.Context, arg TenantScopedIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM products WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ── Recipes ──

type GetRecipeParams struct {
	ProductID uuid.UUID
	TenantID  uuid.UUID
}

type GetRecipeRow struct {
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
}

// GetRecipe returns the per-unit ingredient consumption of a product. An
// unknown product yields an empty recipe, not an error.
func (q *Queries) GetRecipe(ctx context.Context, arg GetRecipeParams) ([]GetRecipeRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT pi.ingredient_id, pi.quantity
		FROM product_ingredients pi
		JOIN products p ON p.id = pi.product_id
		WHERE pi.product_id = $1 AND p.tenant_id = $2
		ORDER BY pi.ingredient_id`,
		arg.ProductID, arg.TenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipe []GetRecipeRow
	for rows.Next() {
		var r GetRecipeRow
		if err := rows.Scan(&r.IngredientID, &r.Quantity); err != nil {
			return nil, err
		}
		recipe = append(recipe, r)
	}
	return recipe, rows.Err()
}

type SetRecipeItemParams struct {
	ProductID    uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
}

func (q *Queries) SetRecipeItem(ctx context.Context, arg SetRecipeItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO product_ingredients (product_id, ingredient_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, ingredient_id) DO UPDATE SET quantity = $3`,
		arg.ProductID, arg.IngredientID, arg.Quantity,
	)
	return err
}

func (q *Queries) ClearRecipe(ctx context.Context, productID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM product_ingredients WHERE product_id = $1`, productID)
	return err
}
