package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Phone        pgtype.Text
	PasswordHash string
	Name         string
	StoreName    pgtype.Text
	Address      pgtype.Text
	APIKey       string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeManager links an employee account to the owner account whose data
// it operates on.
type EmployeeManager struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	EmployeeID uuid.UUID
	Title      pgtype.Text
	CreatedAt  time.Time
}

type Area struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Table struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	AreaID    pgtype.UUID
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	RetailPrice pgtype.Numeric
	BaseCost    pgtype.Numeric
	Unit        pgtype.Text
	Image       pgtype.Text
	CategoryID  pgtype.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductIngredient is one recipe row: how much of an ingredient one unit of
// the product consumes.
type ProductIngredient struct {
	ProductID    uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
}

type Ingredient struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	BaseCost   pgtype.Numeric
	RetailCost pgtype.Numeric
	Unit       pgtype.Text
	Image      pgtype.Text
	Available  pgtype.Numeric
	InStock    pgtype.Numeric
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Customer struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Phone     pgtype.Text
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Supplier struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Phone     pgtype.Text
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order stores line items and payments as JSONB. The service normalizer is
// the only code that encodes or decodes those columns.
type Order struct {
	ID           uuid.UUID
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
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
