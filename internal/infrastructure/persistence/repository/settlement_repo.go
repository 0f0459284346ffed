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

// SettlementRepository implements port.SettlementRepository
type SettlementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *sql.DB, logger *zap.Logger) port.SettlementRepository {
	return &SettlementRepository{
		db:     db,
		logger: logger,
	}
}

const settlementColumns = `
	id, reference, period_id, actor_id, processed_at, status,
	employee_count, event_count, total_amount_cents
`

// Create inserts a new settlement. The unique index on period_id makes a
// concurrent second run for the same period fail here.
func (r *SettlementRepository) Create(ctx context.Context, settlement *entity.Settlement) error {
	query := `
		INSERT INTO settlements (
			reference, period_id, actor_id, processed_at, status,
			employee_count, event_count, total_amount_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		settlement.Reference,
		settlement.PeriodID,
		settlement.ActorID,
		settlement.ProcessedAt,
		settlement.Status,
		settlement.EmployeeCount,
		settlement.EventCount,
		settlement.TotalAmount,
	)
	if err != nil {
		r.logger.Error("Failed to create settlement", zap.Int64("period_id", settlement.PeriodID), zap.Error(err))
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	settlement.ID = id
	return nil
}

// GetByID retrieves a settlement by ID; nil when absent
func (r *SettlementRepository) GetByID(ctx context.Context, id int64) (*entity.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByPeriodID retrieves the settlement for a period; nil when absent
func (r *SettlementRepository) GetByPeriodID(ctx context.Context, periodID int64) (*entity.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE period_id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, periodID))
}

// Delete removes a settlement
func (r *SettlementRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM settlements WHERE id = ?`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete settlement", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return nil
}

func (r *SettlementRepository) scanOne(row *sql.Row) (*entity.Settlement, error) {
	var s entity.Settlement
	err := row.Scan(
		&s.ID,
		&s.Reference,
		&s.PeriodID,
		&s.ActorID,
		&s.ProcessedAt,
		&s.Status,
		&s.EmployeeCount,
		&s.EventCount,
		&s.TotalAmount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan settlement", zap.Error(err))
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}
	return &s, nil
}

// Verify interface compliance
var _ port.SettlementRepository = (*SettlementRepository)(nil)
