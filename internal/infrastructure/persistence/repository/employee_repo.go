package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
	"github.com/garyjia/benefit-claims/internal/infrastructure/persistence/sqlite"
)

// EmployeeRepository implements port.EmployeeRepository over the replicated
// employee master table. The table is written by an external sync, never by
// this module.
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const employeeColumns = `
	id, name, email, department, meal_voucher_cents, food_voucher_cents,
	cost_allowance_cents, mobility_cents, basket_cap_cents, pida_eligible,
	pida_base_cents, active
`

// GetByID retrieves an employee by ID; nil when absent
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	var e entity.Employee
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.Department,
		&e.MealVoucherCents,
		&e.FoodVoucherCents,
		&e.CostAllowanceCents,
		&e.MobilityCents,
		&e.BasketCapCents,
		&e.PidaEligible,
		&e.PidaBaseCents,
		&e.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// ListActive retrieves all active employees ordered by id
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE active = 1 ORDER BY id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active employees", zap.Error(err))
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []*entity.Employee
	for rows.Next() {
		var e entity.Employee
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Email,
			&e.Department,
			&e.MealVoucherCents,
			&e.FoodVoucherCents,
			&e.CostAllowanceCents,
			&e.MobilityCents,
			&e.BasketCapCents,
			&e.PidaEligible,
			&e.PidaBaseCents,
			&e.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
