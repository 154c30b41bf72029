package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested employee does not exist.
var ErrNotFound = errors.New("employee not found")

// employeeViewCols selects the employee row joined flat with department
// and position. Missing references read as empty strings.
const employeeViewCols = `
	e.id, e.first_name, e.last_name, COALESCE(e.email, ''),
	e.department_id, e.position_id, e.hired_at,
	COALESCE(d.name, '') AS department_name,
	COALESCE(p.title, '') AS position_title`

const employeeViewFrom = `
	FROM t_employees e
	LEFT JOIN t_departments d ON d.id = e.department_id
	LEFT JOIN t_positions p ON p.id = e.position_id`

// Store manages the directory tables. Every access is a single
// parameterized statement on the shared pool.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a directory store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// ListEmployees returns employees with department and position names,
// ordered by last then first name.
func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]EmployeeView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+employeeViewCols+employeeViewFrom+`
		 ORDER BY e.last_name, e.first_name
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var views []EmployeeView
	for rows.Next() {
		v, err := scanEmployeeView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// GetEmployee returns one employee with department and position names.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*EmployeeView, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+employeeViewCols+employeeViewFrom+` WHERE e.id = $1`, id)

	v, err := scanEmployeeView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting employee %d: %w", id, err)
	}
	return v, nil
}

// CreateEmployee inserts an employee and returns its ID. An empty email is
// stored as NULL so the unique constraint only applies to real addresses.
func (s *Store) CreateEmployee(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO t_employees (first_name, last_name, email, department_id, position_id, hired_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING id`,
		e.FirstName, e.LastName, e.Email, e.DepartmentID, e.PositionID, e.HiredAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating employee: %w", err)
	}

	s.logger.Debug("created employee", "id", id)
	return id, nil
}

// UpdateEmployee overwrites all mutable fields of an employee.
func (s *Store) UpdateEmployee(ctx context.Context, e Employee) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE t_employees
		 SET first_name = $2, last_name = $3, email = NULLIF($4, ''),
		     department_id = $5, position_id = $6, hired_at = $7,
		     updated_at = now()
		 WHERE id = $1`,
		e.ID, e.FirstName, e.LastName, e.Email, e.DepartmentID, e.PositionID, e.HiredAt,
	)
	if err != nil {
		return fmt.Errorf("updating employee %d: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM t_employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting employee %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListDepartments returns all departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM t_departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var deps []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// ListPositions returns all positions ordered by title.
func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title FROM t_positions ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func scanEmployeeView(row pgx.Row) (*EmployeeView, error) {
	var v EmployeeView
	err := row.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Email,
		&v.DepartmentID, &v.PositionID, &v.HiredAt,
		&v.DepartmentName, &v.PositionTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning employee: %w", err)
	}
	return &v, nil
}
