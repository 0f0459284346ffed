package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
	"github.com/garyjia/benefit-claims/internal/infrastructure/persistence/sqlite"
)

// PeriodRepository implements port.PeriodRepository
type PeriodRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPeriodRepository creates a new period repository
func NewPeriodRepository(db *sql.DB, logger *zap.Logger) port.PeriodRepository {
	return &PeriodRepository{
		db:     db,
		logger: logger,
	}
}

const periodColumns = `
	id, label, accrual_start, accrual_end, submission_open, submission_close,
	status, created_at, updated_at
`

// GetByID retrieves a period by ID; nil when absent
func (r *PeriodRepository) GetByID(ctx context.Context, id int64) (*entity.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// FindCurrent returns the open period whose accrual window contains now,
// falling back to the most recently started period.
func (r *PeriodRepository) FindCurrent(ctx context.Context, now time.Time) (*entity.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE status = ? AND accrual_start <= ? AND accrual_end >= ?
		ORDER BY accrual_start DESC
		LIMIT 1
	`
	period, err := r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, entity.PeriodStatusOpen, now, now))
	if err != nil || period != nil {
		return period, err
	}

	fallback := `SELECT ` + periodColumns + ` FROM periods ORDER BY accrual_start DESC LIMIT 1`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, fallback))
}

// FindSubmission returns the open period whose submission window contains now
func (r *PeriodRepository) FindSubmission(ctx context.Context, now time.Time) (*entity.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE status = ? AND submission_open <= ? AND submission_close >= ?
		ORDER BY submission_open ASC
		LIMIT 1
	`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, entity.PeriodStatusOpen, now, now))
}

// FindOpenAfter returns open periods whose submission window opens strictly
// after the given instant, ascending by submission_open.
func (r *PeriodRepository) FindOpenAfter(ctx context.Context, after time.Time) ([]*entity.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE status = ? AND submission_open > ?
		ORDER BY submission_open ASC
	`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, entity.PeriodStatusOpen, after)
	if err != nil {
		r.logger.Error("Failed to query forwarding periods", zap.Error(err))
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Close flips the period status to closed
func (r *PeriodRepository) Close(ctx context.Context, id int64) error {
	query := `UPDATE periods SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.PeriodStatusClosed, id)
	if err != nil {
		r.logger.Error("Failed to close period", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to close period: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("period %d not found", id)
	}
	return nil
}

// List retrieves periods ordered by accrual start, newest first
func (r *PeriodRepository) List(ctx context.Context, limit, offset int) ([]*entity.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		ORDER BY accrual_start DESC
		LIMIT ? OFFSET ?
	`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list periods", zap.Error(err))
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *PeriodRepository) scanOne(row *sql.Row) (*entity.Period, error) {
	var p entity.Period
	err := row.Scan(
		&p.ID,
		&p.Label,
		&p.AccrualStart,
		&p.AccrualEnd,
		&p.SubmissionOpen,
		&p.SubmissionClose,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan period", zap.Error(err))
		return nil, fmt.Errorf("failed to scan period: %w", err)
	}
	return &p, nil
}

func (r *PeriodRepository) scanAll(rows *sql.Rows) ([]*entity.Period, error) {
	var periods []*entity.Period
	for rows.Next() {
		var p entity.Period
		if err := rows.Scan(
			&p.ID,
			&p.Label,
			&p.AccrualStart,
			&p.AccrualEnd,
			&p.SubmissionOpen,
			&p.SubmissionClose,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, &p)
	}
	return periods, rows.Err()
}

// Verify interface compliance
var _ port.PeriodRepository = (*PeriodRepository)(nil)
