package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/allocation"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
	"github.com/garyjia/benefit-claims/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitClaimInput carries the fields of a new claim submission
type SubmitClaimInput struct {
	EmployeeID  int64
	PeriodID    int64
	CategoryID  int64
	Origin      string
	Description string
	DocumentRef string
	AmountCents int64
}

// UpdateClaimInput carries the editable fields of a submitted claim
type UpdateClaimInput struct {
	CategoryID  int64
	Origin      string
	Description string
	DocumentRef string
	AmountCents int64
}

// BatchResult reports the outcome of a batch review operation. A failing id
// is collected into Errors and never aborts the remaining ids.
type BatchResult struct {
	Succeeded int      `json:"succeeded"`
	Errors    []string `json:"errors"`
}

// ClaimService manages the expense-claim lifecycle
type ClaimService interface {
	SubmitClaim(ctx context.Context, input SubmitClaimInput, actor entity.Actor) (*entity.ExpenseClaim, error)
	UpdateClaim(ctx context.Context, id int64, input UpdateClaimInput, actor entity.Actor) (*entity.ExpenseClaim, error)
	DeleteClaim(ctx context.Context, id int64, actor entity.Actor) error
	StartReview(ctx context.Context, id int64, actor entity.Actor) (*entity.ExpenseClaim, error)
	Approve(ctx context.Context, id int64, actor entity.Actor) (*entity.ExpenseClaim, error)
	Reject(ctx context.Context, id int64, reason string, actor entity.Actor) (*entity.ExpenseClaim, error)
	BatchApprove(ctx context.Context, ids []int64, actor entity.Actor) (*BatchResult, error)
	BatchReject(ctx context.Context, ids []int64, reason string, actor entity.Actor) (*BatchResult, error)
	GetClaim(ctx context.Context, id int64) (*entity.ExpenseClaim, error)
	ListClaims(ctx context.Context, filter port.ClaimFilter) ([]*entity.ExpenseClaim, error)
}

type claimServiceImpl struct {
	claimRepo    port.ClaimRepository
	periodRepo   port.PeriodRepository
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	audit        AuditRecorder
	logger       Logger
	now          func() time.Time
}

// NewClaimService creates a new ClaimService. now may be nil, in which case
// wall-clock time is used.
func NewClaimService(
	claimRepo port.ClaimRepository,
	periodRepo port.PeriodRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	audit AuditRecorder,
	logger Logger,
	now func() time.Time,
) ClaimService {
	if now == nil {
		now = time.Now
	}
	return &claimServiceImpl{
		claimRepo:    claimRepo,
		periodRepo:   periodRepo,
		employeeRepo: employeeRepo,
		txManager:    txManager,
		audit:        audit,
		logger:       logger,
		now:          now,
	}
}

// SubmitClaim creates a new claim against the target period, forwarding it
// one period ahead when the submission window has already closed. Routing,
// cap allocation and the insert run in one write transaction so concurrent
// submissions by the same employee cannot jointly overrun the cap.
func (s *claimServiceImpl) SubmitClaim(ctx context.Context, input SubmitClaimInput, actor entity.Actor) (*entity.ExpenseClaim, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	employee, err := s.employeeRepo.GetByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, input.EmployeeID)
	}
	if !employee.Active {
		return nil, fmt.Errorf("%w: employee %d is inactive", ErrValidation, input.EmployeeID)
	}

	now := s.now()
	var claim *entity.ExpenseClaim

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		period, err := s.resolveSubmissionPeriod(txCtx, input.PeriodID, now)
		if err != nil {
			return err
		}

		locked, err := s.claimRepo.HasExcess(txCtx, input.EmployeeID, period.ID)
		if err != nil {
			return fmt.Errorf("check overflow lock: %w", err)
		}
		if locked {
			return fmt.Errorf("%w: employee %d in period %d", ErrCapLocked, input.EmployeeID, period.ID)
		}

		alreadyCounted, err := s.claimRepo.SumCounted(txCtx, input.EmployeeID, period.ID)
		if err != nil {
			return fmt.Errorf("sum counted: %w", err)
		}

		split := allocation.Allocate(input.AmountCents, employee.BasketCapCents, alreadyCounted)

		claim = &entity.ExpenseClaim{
			EmployeeID:    input.EmployeeID,
			PeriodID:      period.ID,
			CategoryID:    input.CategoryID,
			Origin:        input.Origin,
			Description:   input.Description,
			DocumentRef:   input.DocumentRef,
			AmountClaimed: input.AmountCents,
			AmountCounted: split.Counted,
			AmountExcess:  split.Excess,
			Status:        entity.ClaimStatusSubmitted,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.claimRepo.Create(txCtx, claim); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.AuditEntityClaim, claim.ID,
		fmt.Sprintf("claim submitted for period %d", claim.PeriodID), nil, claim)

	s.logger.Info("Claim submitted",
		"id", claim.ID,
		"employee_id", claim.EmployeeID,
		"period_id", claim.PeriodID,
		"counted_cents", claim.AmountCounted,
		"excess_cents", claim.AmountExcess)
	return claim, nil
}

// resolveSubmissionPeriod applies the submission routing rules: closed
// periods and too-early submissions fail, late submissions are forwarded to
// the next open period whose submission window has not already expired.
func (s *claimServiceImpl) resolveSubmissionPeriod(ctx context.Context, periodID int64, now time.Time) (*entity.Period, error) {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, fmt.Errorf("%w: period %d", ErrNotFound, periodID)
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %d", ErrPeriodClosed, periodID)
	}
	if now.Before(period.SubmissionOpen) {
		return nil, fmt.Errorf("%w: period %d opens at %s", ErrTooEarly, periodID, period.SubmissionOpen.Format(time.RFC3339))
	}
	if !now.After(period.SubmissionClose) {
		return period, nil
	}

	// The submission window closed before the accrual window did; forward the
	// claim into the next period instead of rejecting it. Targets whose own
	// window already expired are skipped.
	candidates, err := s.periodRepo.FindOpenAfter(ctx, period.SubmissionClose)
	if err != nil {
		return nil, fmt.Errorf("find forwarding period: %w", err)
	}
	for _, next := range candidates {
		if now.After(next.SubmissionClose) {
			continue
		}
		s.logger.Info("Late submission forwarded",
			"from_period", period.ID, "to_period", next.ID)
		return next, nil
	}
	return nil, fmt.Errorf("%w: after period %d", ErrPeriodExhausted, periodID)
}

// UpdateClaim edits a claim that is still SUBMITTED. A changed amount is
// re-allocated against the cap remaining after the employee's other claims.
func (s *claimServiceImpl) UpdateClaim(ctx context.Context, id int64, input UpdateClaimInput, actor entity.Actor) (*entity.ExpenseClaim, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var updated *entity.ExpenseClaim
	var previous entity.ExpenseClaim

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := s.getClaim(txCtx, id)
		if err != nil {
			return err
		}
		if !claim.IsMutable() {
			return fmt.Errorf("%w: claim %d is %s", ErrInvalidState, id, claim.Status)
		}
		previous = *claim

		employee, err := s.employeeRepo.GetByID(txCtx, claim.EmployeeID)
		if err != nil {
			return err
		}
		if employee == nil {
			return fmt.Errorf("%w: employee %d", ErrNotFound, claim.EmployeeID)
		}

		counted, err := s.claimRepo.SumCounted(txCtx, claim.EmployeeID, claim.PeriodID)
		if err != nil {
			return fmt.Errorf("sum counted: %w", err)
		}
		// The claim's own counted portion must not count against itself.
		split := allocation.Allocate(input.AmountCents, employee.BasketCapCents, counted-claim.AmountCounted)

		claim.CategoryID = input.CategoryID
		claim.Origin = input.Origin
		claim.Description = input.Description
		claim.DocumentRef = input.DocumentRef
		claim.AmountClaimed = input.AmountCents
		claim.AmountCounted = split.Counted
		claim.AmountExcess = split.Excess
		claim.UpdatedAt = s.now()

		if err := s.claimRepo.Update(txCtx, claim); err != nil {
			return fmt.Errorf("update claim: %w", err)
		}
		updated = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, entity.AuditEntityClaim, id,
		"claim updated", &previous, updated)
	return updated, nil
}

// DeleteClaim removes a claim that is still SUBMITTED.
func (s *claimServiceImpl) DeleteClaim(ctx context.Context, id int64, actor entity.Actor) error {
	var deleted entity.ExpenseClaim

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := s.getClaim(txCtx, id)
		if err != nil {
			return err
		}
		if !claim.IsMutable() {
			return fmt.Errorf("%w: claim %d is %s", ErrInvalidState, id, claim.Status)
		}
		deleted = *claim
		if err := s.claimRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionDelete, entity.AuditEntityClaim, id,
		"claim deleted", &deleted, nil)
	return nil
}

// StartReview moves a SUBMITTED claim into UNDER_REVIEW.
func (s *claimServiceImpl) StartReview(ctx context.Context, id int64, actor entity.Actor) (*entity.ExpenseClaim, error) {
	return s.transition(ctx, id, workflow.TriggerStartReview, entity.AuditActionStartReview, actor, "")
}

// Approve resolves a claim as APPROVED, stamping reviewer and review time.
func (s *claimServiceImpl) Approve(ctx context.Context, id int64, actor entity.Actor) (*entity.ExpenseClaim, error) {
	return s.transition(ctx, id, workflow.TriggerApprove, entity.AuditActionApprove, actor, "")
}

// Reject resolves a claim as REJECTED with a mandatory reason.
func (s *claimServiceImpl) Reject(ctx context.Context, id int64, reason string, actor entity.Actor) (*entity.ExpenseClaim, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	return s.transition(ctx, id, workflow.TriggerReject, entity.AuditActionReject, actor, reason)
}

// transition applies one lifecycle trigger, persists the stamped claim and
// records the status change. The audit write happens after the state change
// and its failure does not revert it.
func (s *claimServiceImpl) transition(ctx context.Context, id int64, trigger workflow.Trigger, action string, actor entity.Actor, reason string) (*entity.ExpenseClaim, error) {
	var updated *entity.ExpenseClaim
	var previousStatus string

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := s.getClaim(txCtx, id)
		if err != nil {
			return err
		}
		previousStatus = claim.Status

		next, err := workflow.Fire(workflow.State(claim.Status), trigger)
		if err != nil {
			return fmt.Errorf("%w: claim %d: %v", ErrInvalidState, id, err)
		}

		claim.Status = next.String()
		claim.UpdatedAt = s.now()
		if next.IsTerminal() {
			reviewedAt := s.now()
			claim.ReviewerID = &actor.ID
			claim.ReviewedAt = &reviewedAt
		}
		if reason != "" {
			claim.RejectionReason = reason
		}

		if err := s.claimRepo.Update(txCtx, claim); err != nil {
			return fmt.Errorf("update claim: %w", err)
		}
		updated = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, action, entity.AuditEntityClaim, id, reason,
		map[string]string{"status": previousStatus},
		map[string]string{"status": updated.Status})

	s.logger.Info("Claim transitioned",
		"id", id, "from", previousStatus, "to", updated.Status, "reviewer_id", actor.ID)
	return updated, nil
}

// BatchApprove approves ids sequentially; a failing id is collected and does
// not abort the rest of the batch.
func (s *claimServiceImpl) BatchApprove(ctx context.Context, ids []int64, actor entity.Actor) (*BatchResult, error) {
	return s.batch(ctx, ids, func(id int64) error {
		_, err := s.Approve(ctx, id, actor)
		return err
	})
}

// BatchReject rejects ids sequentially with a shared reason.
func (s *claimServiceImpl) BatchReject(ctx context.Context, ids []int64, reason string, actor entity.Actor) (*BatchResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	return s.batch(ctx, ids, func(id int64) error {
		_, err := s.Reject(ctx, id, reason, actor)
		return err
	})
}

func (s *claimServiceImpl) batch(ctx context.Context, ids []int64, apply func(id int64) error) (*BatchResult, error) {
	result := &BatchResult{}
	for _, id := range ids {
		if err := apply(id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%d: %v", id, err))
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// GetClaim retrieves a claim by ID
func (s *claimServiceImpl) GetClaim(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	return s.getClaim(ctx, id)
}

// ListClaims lists claims matching the filter
func (s *claimServiceImpl) ListClaims(ctx context.Context, filter port.ClaimFilter) ([]*entity.ExpenseClaim, error) {
	return s.claimRepo.List(ctx, filter)
}

func (s *claimServiceImpl) getClaim(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", ErrNotFound, id)
	}
	return claim, nil
}
