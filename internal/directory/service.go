package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidEmployee indicates a create or update with missing names.
var ErrInvalidEmployee = errors.New("first and last name are required")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Repository is the store surface the service needs.
type Repository interface {
	ListEmployees(ctx context.Context, limit, offset int) ([]EmployeeView, error)
	GetEmployee(ctx context.Context, id int64) (*EmployeeView, error)
	CreateEmployee(ctx context.Context, e Employee) (int64, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	ListDepartments(ctx context.Context) ([]Department, error)
	ListPositions(ctx context.Context) ([]Position, error)
}

// Service is a thin validation layer over the store. The directory path is
// a direct pass-through with no caching or retries.
type Service struct {
	store  Repository
	logger *slog.Logger
}

// NewService creates a directory service.
func NewService(store Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ListEmployees returns a page of the directory.
func (s *Service) ListEmployees(ctx context.Context, limit, offset int) ([]EmployeeView, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	views, err := s.store.ListEmployees(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []EmployeeView{}
	}
	return views, nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (*EmployeeView, error) {
	return s.store.GetEmployee(ctx, id)
}

// CreateEmployee validates and inserts an employee, returning its ID.
func (s *Service) CreateEmployee(ctx context.Context, e Employee) (int64, error) {
	if err := validateEmployee(&e); err != nil {
		return 0, err
	}
	return s.store.CreateEmployee(ctx, e)
}

// UpdateEmployee validates and overwrites an employee.
func (s *Service) UpdateEmployee(ctx context.Context, e Employee) error {
	if err := validateEmployee(&e); err != nil {
		return err
	}
	return s.store.UpdateEmployee(ctx, e)
}

// DeleteEmployee removes an employee.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	return s.store.DeleteEmployee(ctx, id)
}

// ListDepartments returns all departments.
func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

// ListPositions returns all positions.
func (s *Service) ListPositions(ctx context.Context) ([]Position, error) {
	return s.store.ListPositions(ctx)
}

func validateEmployee(e *Employee) error {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = strings.TrimSpace(e.Email)
	if e.FirstName == "" || e.LastName == "" {
		return ErrInvalidEmployee
	}
	if e.Email != "" && !strings.Contains(e.Email, "@") {
		return fmt.Errorf("invalid email %q", e.Email)
	}
	return nil
}
