// Package postgres implements the domain repositories on lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/pkg/database"
)

const employeeColumns = `id, name, email, gender, phone_number, profile_picture_url, travel_credit, role, created_at`

// EmployeeRepository implements employee.Repository
type EmployeeRepository struct {
	db database.DBTX
}

func NewEmployeeRepository(db database.DBTX) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	q := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("postgres.EmployeeRepository.GetByID: %w", err)
	}
	return e, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	q := `SELECT ` + employeeColumns + ` FROM employees WHERE lower(email) = lower($1)`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("postgres.EmployeeRepository.GetByEmail: %w", err)
	}
	return e, nil
}

// Create inserts an employee. Registration lives outside this service; the
// method backs seeding and integration tests.
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Role == "" {
		e.Role = employee.RoleEmployee
	}
	const q = `
		INSERT INTO employees (id, name, email, gender, phone_number, profile_picture_url, travel_credit, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, q,
		e.ID, e.Name, e.Email, e.Gender, e.PhoneNumber, e.ProfilePictureURL, e.TravelCredit, e.Role,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres.EmployeeRepository.Create: %w", err)
	}
	return nil
}

// List returns every employee ordered by name.
func (r *EmployeeRepository) List(ctx context.Context) ([]*employee.Employee, error) {
	q := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres.EmployeeRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.EmployeeRepository.List: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.EmployeeRepository.List: %w", err)
	}
	return out, nil
}

// Update writes the editable profile and admin fields.
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	const q = `
		UPDATE employees
		SET name = $2, phone_number = $3, role = $4, travel_credit = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, e.ID, e.Name, e.PhoneNumber, e.Role, e.TravelCredit)
	if err != nil {
		return fmt.Errorf("postgres.EmployeeRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres.EmployeeRepository.Count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Gender, &e.PhoneNumber, &e.ProfilePictureURL,
		&e.TravelCredit, &e.Role, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, employee.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
