package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

type fakeSettlementRepo struct {
	settlements map[int64]*entity.Settlement
	nextID      int64
}

func newFakeSettlementRepo() *fakeSettlementRepo {
	return &fakeSettlementRepo{settlements: make(map[int64]*entity.Settlement), nextID: 1}
}

func (f *fakeSettlementRepo) Create(ctx context.Context, s *entity.Settlement) error {
	s.ID = f.nextID
	f.nextID++
	stored := *s
	f.settlements[s.ID] = &stored
	return nil
}

func (f *fakeSettlementRepo) GetByID(ctx context.Context, id int64) (*entity.Settlement, error) {
	s, ok := f.settlements[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSettlementRepo) GetByPeriodID(ctx context.Context, periodID int64) (*entity.Settlement, error) {
	for _, s := range f.settlements {
		if s.PeriodID == periodID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSettlementRepo) Delete(ctx context.Context, id int64) error {
	delete(f.settlements, id)
	return nil
}

type fakeOverflowRepo struct {
	events map[int64]*entity.OverflowEvent
	nextID int64
}

func newFakeOverflowRepo() *fakeOverflowRepo {
	return &fakeOverflowRepo{events: make(map[int64]*entity.OverflowEvent), nextID: 1}
}

func (f *fakeOverflowRepo) Create(ctx context.Context, e *entity.OverflowEvent) error {
	e.ID = f.nextID
	f.nextID++
	stored := *e
	f.events[e.ID] = &stored
	return nil
}

func (f *fakeOverflowRepo) ListBySettlementID(ctx context.Context, settlementID int64) ([]*entity.OverflowEvent, error) {
	var out []*entity.OverflowEvent
	for _, e := range f.events {
		if e.SettlementID == settlementID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOverflowRepo) DeleteBySettlementID(ctx context.Context, settlementID int64) error {
	for id, e := range f.events {
		if e.SettlementID == settlementID {
			delete(f.events, id)
		}
	}
	return nil
}

type fakePayrollRepo struct {
	config entity.PayrollConfig
}

func (f *fakePayrollRepo) GetActiveConfig(ctx context.Context) (entity.PayrollConfig, error) {
	return f.config, nil
}

func fullPayrollConfig() entity.PayrollConfig {
	return entity.PayrollConfig{
		entity.ComponentMealVoucher:   "EV-101",
		entity.ComponentFoodVoucher:   "EV-102",
		entity.ComponentCostAllowance: "EV-103",
		entity.ComponentMobility:      "EV-104",
		entity.ComponentBenefitBasket: "EV-110",
		entity.ComponentPida:          "EV-120",
	}
}

type settlementFixture struct {
	periods     *fakePeriodRepo
	claims      *fakeClaimRepo
	employees   *fakeEmployeeRepo
	settlements *fakeSettlementRepo
	overflow    *fakeOverflowRepo
	payroll     *fakePayrollRepo
	audit       *recordingAudit
	service     SettlementService
}

func newSettlementFixture(config entity.PayrollConfig, employees ...*entity.Employee) *settlementFixture {
	f := &settlementFixture{
		periods:     &fakePeriodRepo{periods: map[int64]*entity.Period{1: decemberPeriod()}},
		claims:      newFakeClaimRepo(),
		employees:   &fakeEmployeeRepo{employees: make(map[int64]*entity.Employee)},
		settlements: newFakeSettlementRepo(),
		overflow:    newFakeOverflowRepo(),
		payroll:     &fakePayrollRepo{config: config},
		audit:       &recordingAudit{},
	}
	for _, e := range employees {
		f.employees.employees[e.ID] = e
	}
	f.service = NewSettlementService(
		f.periods, f.claims, f.employees, f.settlements, f.overflow, f.payroll,
		fakeTxManager{}, f.audit, noopLogger{}, func() time.Time { return date(2025, 12, 31) })
	return f
}

func (f *settlementFixture) seedApprovedClaim(employeeID, counted int64) {
	_ = f.claims.Create(context.Background(), &entity.ExpenseClaim{
		EmployeeID:    employeeID,
		PeriodID:      1,
		AmountClaimed: counted,
		AmountCounted: counted,
		Status:        entity.ClaimStatusApproved,
	})
}

func pidaEmployee() *entity.Employee {
	return &entity.Employee{
		ID:             10,
		Name:           "Ana",
		BasketCapCents: 100000,
		PidaEligible:   true,
		PidaBaseCents:  30000,
		Active:         true,
	}
}

func TestProcessSettlement_PendingClaimsBlock(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	f.seedApprovedClaim(10, 50000)
	_ = f.claims.Create(context.Background(), &entity.ExpenseClaim{
		EmployeeID: 10, PeriodID: 1, AmountClaimed: 1000, Status: entity.ClaimStatusSubmitted,
	})
	_ = f.claims.Create(context.Background(), &entity.ExpenseClaim{
		EmployeeID: 10, PeriodID: 1, AmountClaimed: 1000, Status: entity.ClaimStatusUnderReview,
	})

	_, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	var pending *PendingClaimsError
	if !errors.As(err, &pending) {
		t.Fatalf("ProcessSettlement() error = %v, want PendingClaimsError", err)
	}
	if pending.Count != 2 {
		t.Errorf("pending count = %d, want 2", pending.Count)
	}
}

func TestProcessSettlement_PidaOverflow(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}

	if len(result.OverflowEvents) != 1 {
		t.Fatalf("overflow events = %d, want 1", len(result.OverflowEvents))
	}
	event := result.OverflowEvents[0]
	if event.CestaShortfall != 30000 {
		t.Errorf("CestaShortfall = %d, want 30000", event.CestaShortfall)
	}
	if event.TotalAmount != 60000 {
		t.Errorf("TotalAmount = %d, want 60000", event.TotalAmount)
	}
	if event.SettlementID != result.Settlement.ID {
		t.Errorf("SettlementID = %d, want %d", event.SettlementID, result.Settlement.ID)
	}

	if result.Summary.TotalBasket != 70000 {
		t.Errorf("TotalBasket = %d, want 70000", result.Summary.TotalBasket)
	}
	if result.Summary.TotalPida != 60000 {
		t.Errorf("TotalPida = %d, want 60000", result.Summary.TotalPida)
	}
	if result.Summary.GrandTotal != 130000 {
		t.Errorf("GrandTotal = %d, want 130000", result.Summary.GrandTotal)
	}

	if result.Settlement.EmployeeCount != 1 || result.Settlement.EventCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.Settlement.EmployeeCount, result.Settlement.EventCount)
	}
	if result.Settlement.TotalAmount != result.Summary.GrandTotal {
		t.Errorf("settlement total = %d, want %d", result.Settlement.TotalAmount, result.Summary.GrandTotal)
	}

	period, _ := f.periods.GetByID(context.Background(), 1)
	if period.Status != entity.PeriodStatusClosed {
		t.Errorf("period status = %s, want CLOSED", period.Status)
	}
}

func TestProcessSettlement_PidaNotEligible(t *testing.T) {
	employee := pidaEmployee()
	employee.PidaEligible = false
	f := newSettlementFixture(fullPayrollConfig(), employee)
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}
	if len(result.OverflowEvents) != 0 {
		t.Errorf("overflow events = %d, want 0", len(result.OverflowEvents))
	}
	if result.Summary.TotalPida != 0 {
		t.Errorf("TotalPida = %d, want 0", result.Summary.TotalPida)
	}
}

func TestProcessSettlement_UnconfiguredBasketExcluded(t *testing.T) {
	config := fullPayrollConfig()
	delete(config, entity.ComponentBenefitBasket)
	f := newSettlementFixture(config, pidaEmployee())
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}
	if result.Summary.TotalBasket != 0 {
		t.Errorf("TotalBasket = %d, want 0 when unconfigured", result.Summary.TotalBasket)
	}
	// The PI/DA shortfall still sees the claimed basket utilization.
	if result.Summary.TotalPida != 60000 {
		t.Errorf("TotalPida = %d, want 60000", result.Summary.TotalPida)
	}
	if result.Summary.GrandTotal != 60000 {
		t.Errorf("GrandTotal = %d, want 60000", result.Summary.GrandTotal)
	}
}

func TestProcessSettlement_UnconfiguredPidaSkipsEvents(t *testing.T) {
	config := fullPayrollConfig()
	delete(config, entity.ComponentPida)
	f := newSettlementFixture(config, pidaEmployee())
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}
	if len(result.OverflowEvents) != 0 {
		t.Errorf("overflow events = %d, want 0 when PI/DA unconfigured", len(result.OverflowEvents))
	}
}

func TestProcessSettlement_DeactivatedEmployeeBasketStillCounted(t *testing.T) {
	former := pidaEmployee()
	former.Active = false
	former.MealVoucherCents = 40000
	f := newSettlementFixture(fullPayrollConfig(), former)
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}

	if result.Summary.TotalBasket != 70000 {
		t.Errorf("TotalBasket = %d, want 70000", result.Summary.TotalBasket)
	}
	// Recurring entitlements ended with the deactivation.
	if result.Summary.TotalFixed != 0 {
		t.Errorf("TotalFixed = %d, want 0", result.Summary.TotalFixed)
	}
	if len(result.OverflowEvents) != 0 {
		t.Errorf("overflow events = %d, want 0", len(result.OverflowEvents))
	}
	if result.Summary.GrandTotal != 70000 {
		t.Errorf("GrandTotal = %d, want 70000", result.Summary.GrandTotal)
	}
	if result.Settlement.EmployeeCount != 0 {
		t.Errorf("EmployeeCount = %d, want 0 active", result.Settlement.EmployeeCount)
	}
}

func TestProcessSettlement_MixedActiveAndDeactivated(t *testing.T) {
	active := pidaEmployee()
	former := &entity.Employee{
		ID:             11,
		Name:           "Bea",
		BasketCapCents: 100000,
		Active:         false,
	}
	f := newSettlementFixture(fullPayrollConfig(), active, former)
	f.seedApprovedClaim(10, 70000)
	f.seedApprovedClaim(11, 50000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}

	if result.Summary.TotalBasket != 120000 {
		t.Errorf("TotalBasket = %d, want 120000", result.Summary.TotalBasket)
	}
	// Only the active employee converts a shortfall.
	if result.Summary.TotalPida != 60000 {
		t.Errorf("TotalPida = %d, want 60000", result.Summary.TotalPida)
	}
	if result.Settlement.EmployeeCount != 1 {
		t.Errorf("EmployeeCount = %d, want 1 active", result.Settlement.EmployeeCount)
	}
}

func TestProcessSettlement_FixedComponents(t *testing.T) {
	employee := &entity.Employee{
		ID:                 20,
		Name:               "Bruno",
		MealVoucherCents:   40000,
		FoodVoucherCents:   25000,
		CostAllowanceCents: 10000,
		MobilityCents:      5000,
		Active:             true,
	}
	config := fullPayrollConfig()
	delete(config, entity.ComponentMobility)
	f := newSettlementFixture(config, employee)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}
	// Mobility is computed but unconfigured, so it stays out of the total.
	if result.Summary.TotalFixed != 75000 {
		t.Errorf("TotalFixed = %d, want 75000", result.Summary.TotalFixed)
	}
}

func TestProcessSettlement_ClosedPeriodRejected(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	if _, err := f.service.ProcessSettlement(context.Background(), 1, testActor); err != nil {
		t.Fatalf("first ProcessSettlement() error = %v", err)
	}

	_, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if !errors.Is(err, ErrPeriodClosed) {
		t.Errorf("second ProcessSettlement() error = %v, want ErrPeriodClosed", err)
	}
}

func TestProcessSettlement_PeriodNotFound(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	_, err := f.service.ProcessSettlement(context.Background(), 42, testActor)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ProcessSettlement() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSettlement_ReversesRecordsOnly(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	f.seedApprovedClaim(10, 70000)

	result, err := f.service.ProcessSettlement(context.Background(), 1, testActor)
	if err != nil {
		t.Fatalf("ProcessSettlement() error = %v", err)
	}

	if err := f.service.DeleteSettlement(context.Background(), result.Settlement.ID, testActor); err != nil {
		t.Fatalf("DeleteSettlement() error = %v", err)
	}

	if s, _ := f.settlements.GetByID(context.Background(), result.Settlement.ID); s != nil {
		t.Error("settlement still present after delete")
	}
	if events, _ := f.overflow.ListBySettlementID(context.Background(), result.Settlement.ID); len(events) != 0 {
		t.Errorf("overflow events = %d, want 0 after delete", len(events))
	}

	// Deletion is a correction, not a reopening.
	period, _ := f.periods.GetByID(context.Background(), 1)
	if period.Status != entity.PeriodStatusClosed {
		t.Errorf("period status = %s, want still CLOSED", period.Status)
	}
}

func TestDeleteSettlement_NotFound(t *testing.T) {
	f := newSettlementFixture(fullPayrollConfig(), pidaEmployee())
	if err := f.service.DeleteSettlement(context.Background(), 42, testActor); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSettlement() error = %v, want ErrNotFound", err)
	}
}
