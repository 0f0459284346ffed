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

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	id, employee_id, period_id, category_id, origin, description, document_ref,
	amount_claimed_cents, amount_counted_cents, amount_excess_cents, status,
	reviewer_id, reviewed_at, rejection_reason, created_at, updated_at
`

// Create inserts a new claim
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.ExpenseClaim) error {
	query := `
		INSERT INTO expense_claims (
			employee_id, period_id, category_id, origin, description, document_ref,
			amount_claimed_cents, amount_counted_cents, amount_excess_cents, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		claim.EmployeeID,
		claim.PeriodID,
		claim.CategoryID,
		claim.Origin,
		claim.Description,
		nullString(claim.DocumentRef),
		claim.AmountClaimed,
		claim.AmountCounted,
		claim.AmountExcess,
		claim.Status,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	claim.ID = id
	return nil
}

// GetByID retrieves a claim by ID; nil when absent
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// Update persists the full claim row
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.ExpenseClaim) error {
	query := `
		UPDATE expense_claims
		SET category_id = ?, origin = ?, description = ?, document_ref = ?,
			amount_claimed_cents = ?, amount_counted_cents = ?, amount_excess_cents = ?,
			status = ?, reviewer_id = ?, reviewed_at = ?, rejection_reason = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		claim.CategoryID,
		claim.Origin,
		claim.Description,
		nullString(claim.DocumentRef),
		claim.AmountClaimed,
		claim.AmountCounted,
		claim.AmountExcess,
		claim.Status,
		claim.ReviewerID,
		claim.ReviewedAt,
		nullString(claim.RejectionReason),
		claim.UpdatedAt,
		claim.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.Int64("id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim: %w", err)
	}
	return nil
}

// Delete removes a claim
func (r *ClaimRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM expense_claims WHERE id = ?`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

// List retrieves claims matching the filter, newest first
func (r *ClaimRepository) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE 1=1`
	var args []interface{}

	if filter.PeriodID != 0 {
		query += ` AND period_id = ?`
		args = append(args, filter.PeriodID)
	}
	if filter.EmployeeID != 0 {
		query += ` AND employee_id = ?`
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// CountPending returns the number of unresolved claims in the period
func (r *ClaimRepository) CountPending(ctx context.Context, periodID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM expense_claims
		WHERE period_id = ? AND status IN (?, ?)
	`
	var count int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query,
		periodID, entity.ClaimStatusSubmitted, entity.ClaimStatusUnderReview).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count pending claims", zap.Int64("period_id", periodID), zap.Error(err))
		return 0, fmt.Errorf("failed to count pending claims: %w", err)
	}
	return count, nil
}

// ListApproved returns all approved claims for the period
func (r *ClaimRepository) ListApproved(ctx context.Context, periodID int64) ([]*entity.ExpenseClaim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM expense_claims
		WHERE period_id = ? AND status = ?
		ORDER BY employee_id, id
	`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, periodID, entity.ClaimStatusApproved)
	if err != nil {
		r.logger.Error("Failed to list approved claims", zap.Int64("period_id", periodID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approved claims: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// SumCounted returns the total counted cents of the employee's non-rejected
// claims in the period.
func (r *ClaimRepository) SumCounted(ctx context.Context, employeeID, periodID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_counted_cents), 0)
		FROM expense_claims
		WHERE employee_id = ? AND period_id = ? AND status != ?
	`
	var sum int64
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query,
		employeeID, periodID, entity.ClaimStatusRejected).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum counted amounts",
			zap.Int64("employee_id", employeeID), zap.Int64("period_id", periodID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum counted amounts: %w", err)
	}
	return sum, nil
}

// HasExcess reports whether any non-rejected claim of the employee in the
// period carries uncounted excess.
func (r *ClaimRepository) HasExcess(ctx context.Context, employeeID, periodID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM expense_claims
			WHERE employee_id = ? AND period_id = ? AND status != ? AND amount_excess_cents > 0
		)
	`
	var exists bool
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query,
		employeeID, periodID, entity.ClaimStatusRejected).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check overflow lock",
			zap.Int64("employee_id", employeeID), zap.Int64("period_id", periodID), zap.Error(err))
		return false, fmt.Errorf("failed to check overflow lock: %w", err)
	}
	return exists, nil
}

func (r *ClaimRepository) scanOne(row *sql.Row) (*entity.ExpenseClaim, error) {
	var c entity.ExpenseClaim
	var documentRef, rejectionReason sql.NullString
	var reviewerID sql.NullInt64
	var reviewedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.EmployeeID,
		&c.PeriodID,
		&c.CategoryID,
		&c.Origin,
		&c.Description,
		&documentRef,
		&c.AmountClaimed,
		&c.AmountCounted,
		&c.AmountExcess,
		&c.Status,
		&reviewerID,
		&reviewedAt,
		&rejectionReason,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan claim", zap.Error(err))
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}

	applyClaimNullables(&c, documentRef, rejectionReason, reviewerID, reviewedAt)
	return &c, nil
}

func (r *ClaimRepository) scanAll(rows *sql.Rows) ([]*entity.ExpenseClaim, error) {
	var claims []*entity.ExpenseClaim
	for rows.Next() {
		var c entity.ExpenseClaim
		var documentRef, rejectionReason sql.NullString
		var reviewerID sql.NullInt64
		var reviewedAt sql.NullTime

		if err := rows.Scan(
			&c.ID,
			&c.EmployeeID,
			&c.PeriodID,
			&c.CategoryID,
			&c.Origin,
			&c.Description,
			&documentRef,
			&c.AmountClaimed,
			&c.AmountCounted,
			&c.AmountExcess,
			&c.Status,
			&reviewerID,
			&reviewedAt,
			&rejectionReason,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}

		applyClaimNullables(&c, documentRef, rejectionReason, reviewerID, reviewedAt)
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

func applyClaimNullables(c *entity.ExpenseClaim, documentRef, rejectionReason sql.NullString, reviewerID sql.NullInt64, reviewedAt sql.NullTime) {
	if documentRef.Valid {
		c.DocumentRef = documentRef.String
	}
	if rejectionReason.Valid {
		c.RejectionReason = rejectionReason.String
	}
	if reviewerID.Valid {
		c.ReviewerID = &reviewerID.Int64
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
