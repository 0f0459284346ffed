package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

// SettlementResult is the outcome of one period-closing run
type SettlementResult struct {
	Settlement     *entity.Settlement       `json:"settlement"`
	OverflowEvents []*entity.OverflowEvent  `json:"overflow_events"`
	Summary        entity.SettlementSummary `json:"summary"`
}

// SettlementService closes periods into payroll-ready settlement records
type SettlementService interface {
	ProcessSettlement(ctx context.Context, periodID int64, actor entity.Actor) (*SettlementResult, error)
	DeleteSettlement(ctx context.Context, id int64, actor entity.Actor) error
}

type settlementServiceImpl struct {
	periodRepo   port.PeriodRepository
	claimRepo    port.ClaimRepository
	employeeRepo port.EmployeeRepository
	settleRepo   port.SettlementRepository
	overflowRepo port.OverflowEventRepository
	payrollRepo  port.PayrollEventRepository
	txManager    port.TransactionManager
	audit        AuditRecorder
	logger       Logger
	now          func() time.Time
}

// NewSettlementService creates a new SettlementService. now may be nil, in
// which case wall-clock time is used.
func NewSettlementService(
	periodRepo port.PeriodRepository,
	claimRepo port.ClaimRepository,
	employeeRepo port.EmployeeRepository,
	settleRepo port.SettlementRepository,
	overflowRepo port.OverflowEventRepository,
	payrollRepo port.PayrollEventRepository,
	txManager port.TransactionManager,
	audit AuditRecorder,
	logger Logger,
	now func() time.Time,
) SettlementService {
	if now == nil {
		now = time.Now
	}
	return &settlementServiceImpl{
		periodRepo:   periodRepo,
		claimRepo:    claimRepo,
		employeeRepo: employeeRepo,
		settleRepo:   settleRepo,
		overflowRepo: overflowRepo,
		payrollRepo:  payrollRepo,
		txManager:    txManager,
		audit:        audit,
		logger:       logger,
		now:          now,
	}
}

// ProcessSettlement aggregates the period's approved claims into one
// settlement record, computes PI/DA overflow per employee, and closes the
// period, all in one transaction. Unresolved claims block the run before the
// transaction opens. Components without an active payroll code are computed
// but excluded from the grand total.
func (s *settlementServiceImpl) ProcessSettlement(ctx context.Context, periodID int64, actor entity.Actor) (*SettlementResult, error) {
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

	pending, err := s.claimRepo.CountPending(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("count pending claims: %w", err)
	}
	if pending > 0 {
		return nil, &PendingClaimsError{Count: pending}
	}

	var result *SettlementResult

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Guard against a concurrent run that passed the same precondition.
		if existing, err := s.settleRepo.GetByPeriodID(txCtx, periodID); err != nil {
			return fmt.Errorf("check existing settlement: %w", err)
		} else if existing != nil {
			return fmt.Errorf("%w: period %d already settled by %s", ErrInvalidState, periodID, existing.Reference)
		}

		config, err := s.payrollRepo.GetActiveConfig(txCtx)
		if err != nil {
			return fmt.Errorf("load payroll config: %w", err)
		}

		claims, err := s.claimRepo.ListApproved(txCtx, periodID)
		if err != nil {
			return fmt.Errorf("load approved claims: %w", err)
		}
		basketByEmployee := make(map[int64]int64)
		for _, claim := range claims {
			basketByEmployee[claim.EmployeeID] += claim.AmountCounted
		}

		employees, err := s.employeeRepo.ListActive(txCtx)
		if err != nil {
			return fmt.Errorf("load employees: %w", err)
		}

		settled := make(map[int64]bool, len(employees))
		summary := entity.SettlementSummary{}
		var events []*entity.OverflowEvent

		for _, employee := range employees {
			settled[employee.ID] = true
			for _, component := range entity.FixedComponents {
				if config.Configured(component) {
					summary.TotalFixed += employee.FixedComponentCents(component)
				}
			}

			basket := basketByEmployee[employee.ID]
			if config.Configured(entity.ComponentBenefitBasket) {
				summary.TotalBasket += basket
			}

			if event := s.computePidaOverflow(employee, basket, periodID, config); event != nil {
				events = append(events, event)
				summary.TotalPida += event.TotalAmount
			}
		}

		// Claims approved before a deactivation still settle into the basket.
		// Recurring entitlements (fixed components, PI/DA) stop with the
		// deactivation, so only the counted amounts are added here.
		for employeeID, basket := range basketByEmployee {
			if settled[employeeID] {
				continue
			}
			if config.Configured(entity.ComponentBenefitBasket) {
				summary.TotalBasket += basket
			}
		}

		summary.GrandTotal = summary.TotalFixed + summary.TotalBasket + summary.TotalPida

		settlement := &entity.Settlement{
			Reference:     uuid.NewString(),
			PeriodID:      periodID,
			ActorID:       actor.ID,
			ProcessedAt:   s.now(),
			Status:        entity.SettlementStatusSuccess,
			EmployeeCount: len(employees),
			EventCount:    len(events),
			TotalAmount:   summary.GrandTotal,
		}

		// Settlement first, events second: events reference the settlement id.
		if err := s.settleRepo.Create(txCtx, settlement); err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}
		for _, event := range events {
			event.SettlementID = settlement.ID
			if err := s.overflowRepo.Create(txCtx, event); err != nil {
				return fmt.Errorf("create overflow event: %w", err)
			}
		}

		if err := s.periodRepo.Close(txCtx, periodID); err != nil {
			return fmt.Errorf("close period: %w", err)
		}

		result = &SettlementResult{
			Settlement:     settlement,
			OverflowEvents: events,
			Summary:        summary,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionSettle, entity.AuditEntitySettlement, result.Settlement.ID,
		fmt.Sprintf("period %d closed: %d employees, %d overflow events", periodID, result.Settlement.EmployeeCount, result.Settlement.EventCount),
		nil, result.Summary)

	s.logger.Info("Settlement processed",
		"settlement_id", result.Settlement.ID,
		"period_id", periodID,
		"employee_count", result.Settlement.EmployeeCount,
		"event_count", result.Settlement.EventCount,
		"grand_total_cents", result.Summary.GrandTotal)
	return result, nil
}

// computePidaOverflow applies the PI/DA conversion rule: eligible employees
// with a positive cap convert the unused basket portion plus their PI/DA
// base into the secondary bucket. Returns nil when nothing converts or the
// component is unconfigured.
func (s *settlementServiceImpl) computePidaOverflow(employee *entity.Employee, basket int64, periodID int64, config entity.PayrollConfig) *entity.OverflowEvent {
	if !employee.PidaEligible || employee.BasketCapCents <= 0 {
		return nil
	}

	shortfall := employee.BasketCapCents - basket
	if shortfall < 0 {
		shortfall = 0
	}
	total := employee.PidaBaseCents + shortfall
	if total <= 0 || !config.Configured(entity.ComponentPida) {
		return nil
	}

	return &entity.OverflowEvent{
		EmployeeID:     employee.ID,
		PeriodID:       periodID,
		BaseAmount:     employee.PidaBaseCents,
		CestaShortfall: shortfall,
		TotalAmount:    total,
	}
}

// DeleteSettlement reverses a settlement run: overflow events first, then
// the settlement itself, in one transaction. The period is intentionally not
// reopened; deletion is a correction, not a rollback of the closing.
func (s *settlementServiceImpl) DeleteSettlement(ctx context.Context, id int64, actor entity.Actor) error {
	var deleted entity.Settlement

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		settlement, err := s.settleRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if settlement == nil {
			return fmt.Errorf("%w: settlement %d", ErrNotFound, id)
		}
		deleted = *settlement

		if err := s.overflowRepo.DeleteBySettlementID(txCtx, id); err != nil {
			return fmt.Errorf("delete overflow events: %w", err)
		}
		if err := s.settleRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUnsettle, entity.AuditEntitySettlement, id,
		fmt.Sprintf("settlement %s for period %d deleted", deleted.Reference, deleted.PeriodID), &deleted, nil)

	s.logger.Info("Settlement deleted", "settlement_id", id, "period_id", deleted.PeriodID)
	return nil
}
