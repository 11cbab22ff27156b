package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, phone, password_hash, name, store_name, address,
	api_key, role, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Name, &u.StoreName,
		&u.Address, &u.APIKey, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Email        string
	Phone        pgtype.Text
	PasswordHash string
	Name         string
	StoreName    pgtype.Text
	Address      pgtype.Text
	APIKey       string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, phone, password_hash, name, store_name, address, api_key, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		arg.Email, arg.Phone, arg.PasswordHash, arg.Name, arg.StoreName,
		arg.Address, arg.APIKey, arg.Role,
	)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByAPIKey backs the unauthenticated QR ordering flow.
func (q *Queries) GetUserByAPIKey(ctx context.Context, apiKey string) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_key = $1`, apiKey)
	return scanUser(row)
}

type LinkEmployeeParams struct {
	OwnerID    uuid.UUID
	EmployeeID uuid.UUID
	Title      pgtype.Text
}

func (q *Queries) LinkEmployee(ctx context.Context, arg LinkEmployeeParams) (EmployeeManager, error) {
	var em EmployeeManager
	err := q.db.QueryRow(ctx, `
		INSERT INTO employee_managers (owner_id, employee_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, employee_id, title, created_at`,
		arg.OwnerID, arg.EmployeeID, arg.Title,
	).Scan(&em.ID, &em.OwnerID, &em.EmployeeID, &em.Title, &em.CreatedAt)
	return em, err
}

// GetOwnerForEmployee resolves an employee to the owner whose tenant data it
// operates on.
func (q *Queries) GetOwnerForEmployee(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := q.db.QueryRow(ctx,
		`SELECT owner_id FROM employee_managers WHERE employee_id = $1`, employeeID,
	).Scan(&ownerID)
	return ownerID, err
}

type ListEmployeesRow struct {
	User
	Title pgtype.Text
}

func (q *Queries) ListEmployees(ctx context.Context, ownerID uuid.UUID) ([]ListEmployeesRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.email, u.phone, u.password_hash, u.name, u.store_name,
			u.address, u.api_key, u.role, u.created_at, u.updated_at, em.title
		FROM employee_managers em
		JOIN users u ON u.id = em.employee_id
		WHERE em.owner_id = $1
		ORDER BY u.name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []ListEmployeesRow
	for rows.Next() {
		var r ListEmployeesRow
		if err := rows.Scan(
			&r.ID, &r.Email, &r.Phone, &r.PasswordHash, &r.Name, &r.StoreName,
			&r.Address, &r.APIKey, &r.Role, &r.CreatedAt, &r.UpdatedAt, &r.Title,
		); err != nil {
			return nil, err
		}
		employees = append(employees, r)
	}
	return employees, rows.Err()
}

type UnlinkEmployeeParams struct {
	OwnerID    uuid.UUID
	EmployeeID uuid.UUID
}

func (q *Queries) UnlinkEmployee(ctx context.Context, arg UnlinkEmployeeParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM employee_managers WHERE owner_id = $1 AND employee_id = $2`,
		arg.OwnerID, arg.EmployeeID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
