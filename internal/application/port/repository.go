package port

import (
	"context"
	"time"

	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

// PeriodRepository defines persistence operations for Period.
// Queries that depend on "now" take the time as a parameter so callers stay
// deterministic and testable.
type PeriodRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Period, error)

	// FindCurrent returns the open period whose accrual window contains now,
	// or the most recently started period when no window matches.
	FindCurrent(ctx context.Context, now time.Time) (*entity.Period, error)

	// FindSubmission returns the open period whose submission window contains now.
	FindSubmission(ctx context.Context, now time.Time) (*entity.Period, error)

	// FindOpenAfter returns open periods whose submission window opens strictly
	// after the given instant, ordered ascending by submission_open.
	FindOpenAfter(ctx context.Context, after time.Time) ([]*entity.Period, error)

	// Close flips the period status to closed.
	Close(ctx context.Context, id int64) error

	List(ctx context.Context, limit, offset int) ([]*entity.Period, error)
}

// ClaimFilter narrows claim listings. Zero values mean "any".
type ClaimFilter struct {
	PeriodID   int64
	EmployeeID int64
	Status     string
	Limit      int
	Offset     int
}

// ClaimRepository defines persistence operations for ExpenseClaim
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.ExpenseClaim) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error)
	Update(ctx context.Context, claim *entity.ExpenseClaim) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ClaimFilter) ([]*entity.ExpenseClaim, error)

	// CountPending returns the number of claims in the period that are still
	// SUBMITTED or UNDER_REVIEW.
	CountPending(ctx context.Context, periodID int64) (int, error)

	// ListApproved returns all approved claims for the period.
	ListApproved(ctx context.Context, periodID int64) ([]*entity.ExpenseClaim, error)

	// SumCounted returns the total counted cents of the employee's claims in
	// the period, excluding rejected claims.
	SumCounted(ctx context.Context, employeeID, periodID int64) (int64, error)

	// HasExcess reports whether any non-rejected claim of the employee in the
	// period carries uncounted excess.
	HasExcess(ctx context.Context, employeeID, periodID int64) (bool, error)
}

// EmployeeRepository defines read operations against the employee master.
// The master data itself is owned by an external system.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Employee, error)
	ListActive(ctx context.Context) ([]*entity.Employee, error)
}

// SettlementRepository defines persistence operations for Settlement
type SettlementRepository interface {
	Create(ctx context.Context, settlement *entity.Settlement) error
	GetByID(ctx context.Context, id int64) (*entity.Settlement, error)
	GetByPeriodID(ctx context.Context, periodID int64) (*entity.Settlement, error)
	Delete(ctx context.Context, id int64) error
}

// OverflowEventRepository defines persistence operations for OverflowEvent
type OverflowEventRepository interface {
	Create(ctx context.Context, event *entity.OverflowEvent) error
	ListBySettlementID(ctx context.Context, settlementID int64) ([]*entity.OverflowEvent, error)
	DeleteBySettlementID(ctx context.Context, settlementID int64) error
}

// PayrollEventRepository resolves the benefit-component → payroll-code
// configuration consumed by settlement runs.
type PayrollEventRepository interface {
	GetActiveConfig(ctx context.Context) (entity.PayrollConfig, error)
}

// AuditRepository defines the append-only audit log
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	List(ctx context.Context, limit, offset int) ([]*entity.AuditLogEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	// WithTransaction executes fn within a transaction. The transaction is
	// committed if fn returns nil and rolled back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
