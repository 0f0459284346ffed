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

// OverflowEventRepository implements port.OverflowEventRepository
type OverflowEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOverflowEventRepository creates a new overflow event repository
func NewOverflowEventRepository(db *sql.DB, logger *zap.Logger) port.OverflowEventRepository {
	return &OverflowEventRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new overflow event. The unique index on
// (employee_id, settlement_id) enforces at most one event per pair.
func (r *OverflowEventRepository) Create(ctx context.Context, event *entity.OverflowEvent) error {
	query := `
		INSERT INTO overflow_events (
			employee_id, period_id, settlement_id, base_amount_cents,
			cesta_shortfall_cents, total_amount_cents
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		event.EmployeeID,
		event.PeriodID,
		event.SettlementID,
		event.BaseAmount,
		event.CestaShortfall,
		event.TotalAmount,
	)
	if err != nil {
		r.logger.Error("Failed to create overflow event",
			zap.Int64("employee_id", event.EmployeeID), zap.Int64("settlement_id", event.SettlementID), zap.Error(err))
		return fmt.Errorf("failed to create overflow event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	event.ID = id
	return nil
}

// ListBySettlementID retrieves all overflow events of a settlement
func (r *OverflowEventRepository) ListBySettlementID(ctx context.Context, settlementID int64) ([]*entity.OverflowEvent, error) {
	query := `
		SELECT id, employee_id, period_id, settlement_id, base_amount_cents,
			cesta_shortfall_cents, total_amount_cents
		FROM overflow_events
		WHERE settlement_id = ?
		ORDER BY employee_id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, settlementID)
	if err != nil {
		r.logger.Error("Failed to list overflow events", zap.Int64("settlement_id", settlementID), zap.Error(err))
		return nil, fmt.Errorf("failed to list overflow events: %w", err)
	}
	defer rows.Close()

	var events []*entity.OverflowEvent
	for rows.Next() {
		var e entity.OverflowEvent
		if err := rows.Scan(
			&e.ID,
			&e.EmployeeID,
			&e.PeriodID,
			&e.SettlementID,
			&e.BaseAmount,
			&e.CestaShortfall,
			&e.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan overflow event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// DeleteBySettlementID removes all overflow events of a settlement
func (r *OverflowEventRepository) DeleteBySettlementID(ctx context.Context, settlementID int64) error {
	query := `DELETE FROM overflow_events WHERE settlement_id = ?`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, settlementID)
	if err != nil {
		r.logger.Error("Failed to delete overflow events", zap.Int64("settlement_id", settlementID), zap.Error(err))
		return fmt.Errorf("failed to delete overflow events: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.OverflowEventRepository = (*OverflowEventRepository)(nil)
