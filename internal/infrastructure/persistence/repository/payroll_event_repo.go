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

// PayrollEventRepository implements port.PayrollEventRepository
type PayrollEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayrollEventRepository creates a new payroll event repository
func NewPayrollEventRepository(db *sql.DB, logger *zap.Logger) port.PayrollEventRepository {
	return &PayrollEventRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveConfig resolves the active component→code mapping. Rows with
// components outside the closed set are ignored.
func (r *PayrollEventRepository) GetActiveConfig(ctx context.Context) (entity.PayrollConfig, error) {
	query := `SELECT component, code FROM payroll_event_codes WHERE active = 1`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to load payroll config", zap.Error(err))
		return nil, fmt.Errorf("failed to load payroll config: %w", err)
	}
	defer rows.Close()

	known := map[entity.BenefitComponent]bool{
		entity.ComponentMealVoucher:   true,
		entity.ComponentFoodVoucher:   true,
		entity.ComponentCostAllowance: true,
		entity.ComponentMobility:      true,
		entity.ComponentBenefitBasket: true,
		entity.ComponentPida:          true,
	}

	config := make(entity.PayrollConfig)
	for rows.Next() {
		var component, code string
		if err := rows.Scan(&component, &code); err != nil {
			return nil, fmt.Errorf("failed to scan payroll code: %w", err)
		}
		c := entity.BenefitComponent(component)
		if !known[c] {
			r.logger.Error("Unknown benefit component in payroll config", zap.String("component", component))
			continue
		}
		config[c] = code
	}
	return config, rows.Err()
}

// Verify interface compliance
var _ port.PayrollEventRepository = (*PayrollEventRepository)(nil)
