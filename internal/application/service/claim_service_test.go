package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

// In-memory fakes backing the service tests

type fakePeriodRepo struct {
	periods map[int64]*entity.Period
}

func (f *fakePeriodRepo) GetByID(ctx context.Context, id int64) (*entity.Period, error) {
	return f.periods[id], nil
}

func (f *fakePeriodRepo) FindCurrent(ctx context.Context, now time.Time) (*entity.Period, error) {
	var fallback *entity.Period
	for _, p := range f.periods {
		if p.IsOpen() && p.ContainsAccrual(now) {
			return p, nil
		}
		if fallback == nil || p.AccrualStart.After(fallback.AccrualStart) {
			fallback = p
		}
	}
	return fallback, nil
}

func (f *fakePeriodRepo) FindSubmission(ctx context.Context, now time.Time) (*entity.Period, error) {
	for _, p := range f.periods {
		if p.IsOpen() && p.ContainsSubmission(now) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePeriodRepo) FindOpenAfter(ctx context.Context, after time.Time) ([]*entity.Period, error) {
	var out []*entity.Period
	for _, p := range f.periods {
		if p.IsOpen() && p.SubmissionOpen.After(after) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionOpen.Before(out[j].SubmissionOpen) })
	return out, nil
}

func (f *fakePeriodRepo) Close(ctx context.Context, id int64) error {
	p, ok := f.periods[id]
	if !ok {
		return errors.New("no such period")
	}
	p.Status = entity.PeriodStatusClosed
	return nil
}

func (f *fakePeriodRepo) List(ctx context.Context, limit, offset int) ([]*entity.Period, error) {
	var out []*entity.Period
	for _, p := range f.periods {
		out = append(out, p)
	}
	return out, nil
}

type fakeClaimRepo struct {
	claims map[int64]*entity.ExpenseClaim
	nextID int64
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[int64]*entity.ExpenseClaim), nextID: 1}
}

func (f *fakeClaimRepo) Create(ctx context.Context, claim *entity.ExpenseClaim) error {
	claim.ID = f.nextID
	f.nextID++
	stored := *claim
	f.claims[claim.ID] = &stored
	return nil
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	c, ok := f.claims[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClaimRepo) Update(ctx context.Context, claim *entity.ExpenseClaim) error {
	if _, ok := f.claims[claim.ID]; !ok {
		return errors.New("no such claim")
	}
	stored := *claim
	f.claims[claim.ID] = &stored
	return nil
}

func (f *fakeClaimRepo) Delete(ctx context.Context, id int64) error {
	delete(f.claims, id)
	return nil
}

func (f *fakeClaimRepo) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.ExpenseClaim, error) {
	var out []*entity.ExpenseClaim
	for _, c := range f.claims {
		if filter.PeriodID != 0 && c.PeriodID != filter.PeriodID {
			continue
		}
		if filter.EmployeeID != 0 && c.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClaimRepo) CountPending(ctx context.Context, periodID int64) (int, error) {
	count := 0
	for _, c := range f.claims {
		if c.PeriodID == periodID && (c.Status == entity.ClaimStatusSubmitted || c.Status == entity.ClaimStatusUnderReview) {
			count++
		}
	}
	return count, nil
}

func (f *fakeClaimRepo) ListApproved(ctx context.Context, periodID int64) ([]*entity.ExpenseClaim, error) {
	var out []*entity.ExpenseClaim
	for _, c := range f.claims {
		if c.PeriodID == periodID && c.Status == entity.ClaimStatusApproved {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClaimRepo) SumCounted(ctx context.Context, employeeID, periodID int64) (int64, error) {
	var sum int64
	for _, c := range f.claims {
		if c.EmployeeID == employeeID && c.PeriodID == periodID && c.Status != entity.ClaimStatusRejected {
			sum += c.AmountCounted
		}
	}
	return sum, nil
}

func (f *fakeClaimRepo) HasExcess(ctx context.Context, employeeID, periodID int64) (bool, error) {
	for _, c := range f.claims {
		if c.EmployeeID == employeeID && c.PeriodID == periodID && c.Status != entity.ClaimStatusRejected && c.AmountExcess > 0 {
			return true, nil
		}
	}
	return false, nil
}

type fakeEmployeeRepo struct {
	employees map[int64]*entity.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	return f.employees[id], nil
}

func (f *fakeEmployeeRepo) ListActive(ctx context.Context) ([]*entity.Employee, error) {
	var out []*entity.Employee
	for _, e := range f.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeTxManager runs fn directly; rollback semantics are covered by the
// sqlite implementation, not exercised here.
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingAudit struct {
	entries []string
}

func (r *recordingAudit) Record(ctx context.Context, actor entity.Actor, action, entityType string, entityID int64, description string, oldValues, newValues interface{}) {
	r.entries = append(r.entries, action)
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Fixtures

var testActor = entity.Actor{ID: 99, Name: "Reviewer"}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func decemberPeriod() *entity.Period {
	return &entity.Period{
		ID:              1,
		Label:           "2025-12",
		AccrualStart:    date(2025, 12, 1),
		AccrualEnd:      date(2025, 12, 31),
		SubmissionOpen:  date(2025, 12, 10),
		SubmissionClose: date(2025, 12, 20),
		Status:          entity.PeriodStatusOpen,
	}
}

func januaryPeriod() *entity.Period {
	return &entity.Period{
		ID:              2,
		Label:           "2026-01",
		AccrualStart:    date(2026, 1, 1),
		AccrualEnd:      date(2026, 1, 31),
		SubmissionOpen:  date(2026, 1, 10),
		SubmissionClose: date(2026, 1, 20),
		Status:          entity.PeriodStatusOpen,
	}
}

func testEmployee() *entity.Employee {
	return &entity.Employee{
		ID:             10,
		Name:           "Ana",
		BasketCapCents: 100000,
		Active:         true,
	}
}

type claimServiceFixture struct {
	claims    *fakeClaimRepo
	periods   *fakePeriodRepo
	employees *fakeEmployeeRepo
	audit     *recordingAudit
	service   ClaimService
}

func newClaimServiceFixture(now time.Time, periods ...*entity.Period) *claimServiceFixture {
	f := &claimServiceFixture{
		claims:    newFakeClaimRepo(),
		periods:   &fakePeriodRepo{periods: make(map[int64]*entity.Period)},
		employees: &fakeEmployeeRepo{employees: map[int64]*entity.Employee{10: testEmployee()}},
		audit:     &recordingAudit{},
	}
	for _, p := range periods {
		f.periods.periods[p.ID] = p
	}
	f.service = NewClaimService(f.claims, f.periods, f.employees, fakeTxManager{}, f.audit, noopLogger{}, func() time.Time { return now })
	return f
}

func submitInput(amount int64) SubmitClaimInput {
	return SubmitClaimInput{
		EmployeeID:  10,
		PeriodID:    1,
		CategoryID:  3,
		Origin:      entity.OriginWeb,
		Description: "pharmacy",
		AmountCents: amount,
	}
}

// Tests

func TestSubmitClaim_WithinWindow(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	claim, err := f.service.SubmitClaim(context.Background(), submitInput(30000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}
	if claim.PeriodID != 1 {
		t.Errorf("PeriodID = %d, want 1", claim.PeriodID)
	}
	if claim.Status != entity.ClaimStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", claim.Status)
	}
	if claim.AmountCounted != 30000 || claim.AmountExcess != 0 {
		t.Errorf("allocation = %d/%d, want 30000/0", claim.AmountCounted, claim.AmountExcess)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0] != entity.AuditActionCreate {
		t.Errorf("audit entries = %v, want one CREATE", f.audit.entries)
	}
}

func TestSubmitClaim_AllocationSplitsExcess(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	if _, err := f.service.SubmitClaim(context.Background(), submitInput(80000), testActor); err != nil {
		t.Fatalf("first SubmitClaim() error = %v", err)
	}
	claim, err := f.service.SubmitClaim(context.Background(), submitInput(50000), testActor)
	if err != nil {
		t.Fatalf("second SubmitClaim() error = %v", err)
	}
	if claim.AmountCounted != 20000 || claim.AmountExcess != 30000 {
		t.Errorf("allocation = %d/%d, want 20000/30000", claim.AmountCounted, claim.AmountExcess)
	}
	if claim.AmountCounted+claim.AmountExcess != claim.AmountClaimed {
		t.Errorf("counted+excess = %d, want %d", claim.AmountCounted+claim.AmountExcess, claim.AmountClaimed)
	}
}

func TestSubmitClaim_LockedAfterOverflow(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	if _, err := f.service.SubmitClaim(context.Background(), submitInput(120000), testActor); err != nil {
		t.Fatalf("overflowing SubmitClaim() error = %v", err)
	}
	_, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if !errors.Is(err, ErrCapLocked) {
		t.Errorf("SubmitClaim() error = %v, want ErrCapLocked", err)
	}
}

func TestSubmitClaim_PeriodNotFound(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	input := submitInput(1000)
	input.PeriodID = 42
	_, err := f.service.SubmitClaim(context.Background(), input, testActor)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SubmitClaim() error = %v, want ErrNotFound", err)
	}
}

func TestSubmitClaim_PeriodClosed(t *testing.T) {
	closed := decemberPeriod()
	closed.Status = entity.PeriodStatusClosed
	f := newClaimServiceFixture(date(2025, 12, 15), closed)

	_, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if !errors.Is(err, ErrPeriodClosed) {
		t.Errorf("SubmitClaim() error = %v, want ErrPeriodClosed", err)
	}
}

func TestSubmitClaim_TooEarly(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 5), decemberPeriod())

	_, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if !errors.Is(err, ErrTooEarly) {
		t.Errorf("SubmitClaim() error = %v, want ErrTooEarly", err)
	}
}

func TestSubmitClaim_LateSubmissionForwarded(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 25), decemberPeriod(), januaryPeriod())

	claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}
	if claim.PeriodID != 2 {
		t.Errorf("PeriodID = %d, want forwarded to 2", claim.PeriodID)
	}
}

func TestSubmitClaim_PeriodExhausted(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 25), decemberPeriod())

	_, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if !errors.Is(err, ErrPeriodExhausted) {
		t.Errorf("SubmitClaim() error = %v, want ErrPeriodExhausted", err)
	}
}

func TestSubmitClaim_SkipsExpiredForwardTarget(t *testing.T) {
	// The next period's own submission window has already closed too.
	expired := januaryPeriod()
	expired.SubmissionOpen = date(2025, 12, 21)
	expired.SubmissionClose = date(2025, 12, 23)
	f := newClaimServiceFixture(date(2025, 12, 25), decemberPeriod(), expired)

	_, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if !errors.Is(err, ErrPeriodExhausted) {
		t.Errorf("SubmitClaim() error = %v, want ErrPeriodExhausted", err)
	}
}

func TestSubmitClaim_InvalidAmount(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	_, err := f.service.SubmitClaim(context.Background(), submitInput(0), testActor)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitClaim() error = %v, want ErrValidation", err)
	}
}

func TestUpdateClaim_OnlyWhileSubmitted(t *testing.T) {
	for _, status := range []string{entity.ClaimStatusUnderReview, entity.ClaimStatusApproved, entity.ClaimStatusRejected} {
		t.Run(status, func(t *testing.T) {
			f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
			claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
			if err != nil {
				t.Fatalf("SubmitClaim() error = %v", err)
			}
			stored, _ := f.claims.GetByID(context.Background(), claim.ID)
			stored.Status = status
			if err := f.claims.Update(context.Background(), stored); err != nil {
				t.Fatalf("seed status: %v", err)
			}

			_, err = f.service.UpdateClaim(context.Background(), claim.ID, UpdateClaimInput{AmountCents: 2000, Origin: entity.OriginWeb}, testActor)
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("UpdateClaim() error = %v, want ErrInvalidState", err)
			}
			if err := f.service.DeleteClaim(context.Background(), claim.ID, testActor); !errors.Is(err, ErrInvalidState) {
				t.Errorf("DeleteClaim() error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestUpdateClaim_ReallocatesAmount(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
	claim, err := f.service.SubmitClaim(context.Background(), submitInput(80000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}

	updated, err := f.service.UpdateClaim(context.Background(), claim.ID, UpdateClaimInput{
		CategoryID:  3,
		Origin:      entity.OriginWeb,
		Description: "pharmacy, corrected",
		AmountCents: 120000,
	}, testActor)
	if err != nil {
		t.Fatalf("UpdateClaim() error = %v", err)
	}
	if updated.AmountCounted != 100000 || updated.AmountExcess != 20000 {
		t.Errorf("allocation = %d/%d, want 100000/20000", updated.AmountCounted, updated.AmountExcess)
	}
}

func TestDeleteClaim_WhileSubmitted(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
	claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}

	if err := f.service.DeleteClaim(context.Background(), claim.ID, testActor); err != nil {
		t.Fatalf("DeleteClaim() error = %v", err)
	}
	if _, err := f.service.GetClaim(context.Background(), claim.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClaim() after delete error = %v, want ErrNotFound", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
	claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}

	if _, err := f.service.Reject(context.Background(), claim.ID, "", testActor); !errors.Is(err, ErrValidation) {
		t.Errorf("Reject() error = %v, want ErrValidation", err)
	}

	rejected, err := f.service.Reject(context.Background(), claim.ID, "missing receipt", testActor)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != entity.ClaimStatusRejected {
		t.Errorf("Status = %s, want REJECTED", rejected.Status)
	}
	if rejected.RejectionReason != "missing receipt" {
		t.Errorf("RejectionReason = %q", rejected.RejectionReason)
	}
	if rejected.ReviewerID == nil || *rejected.ReviewerID != testActor.ID {
		t.Errorf("ReviewerID = %v, want %d", rejected.ReviewerID, testActor.ID)
	}
	if rejected.ReviewedAt == nil {
		t.Error("ReviewedAt not stamped")
	}
}

func TestApprove_AfterReview(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
	claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
	if err != nil {
		t.Fatalf("SubmitClaim() error = %v", err)
	}

	if _, err := f.service.StartReview(context.Background(), claim.ID, testActor); err != nil {
		t.Fatalf("StartReview() error = %v", err)
	}
	approved, err := f.service.Approve(context.Background(), claim.ID, testActor)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != entity.ClaimStatusApproved {
		t.Errorf("Status = %s, want APPROVED", approved.Status)
	}

	// Terminal states admit no further transitions.
	if _, err := f.service.StartReview(context.Background(), claim.ID, testActor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("StartReview() after approval error = %v, want ErrInvalidState", err)
	}
}

func TestBatchApprove_CollectsFailures(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())

	var ids []int64
	for i := 0; i < 3; i++ {
		claim, err := f.service.SubmitClaim(context.Background(), submitInput(1000), testActor)
		if err != nil {
			t.Fatalf("SubmitClaim() error = %v", err)
		}
		ids = append(ids, claim.ID)
	}
	// The middle claim is already rejected.
	if _, err := f.service.Reject(context.Background(), ids[1], "duplicate", testActor); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	result, err := f.service.BatchApprove(context.Background(), ids, testActor)
	if err != nil {
		t.Fatalf("BatchApprove() error = %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", result.Succeeded)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "2:") {
		t.Errorf("Errors = %v, want one entry for claim 2", result.Errors)
	}

	for _, id := range []int64{ids[0], ids[2]} {
		claim, err := f.service.GetClaim(context.Background(), id)
		if err != nil {
			t.Fatalf("GetClaim() error = %v", err)
		}
		if claim.Status != entity.ClaimStatusApproved {
			t.Errorf("claim %d status = %s, want APPROVED", id, claim.Status)
		}
	}
}

func TestBatchReject_RequiresReason(t *testing.T) {
	f := newClaimServiceFixture(date(2025, 12, 15), decemberPeriod())
	if _, err := f.service.BatchReject(context.Background(), []int64{1}, "", testActor); !errors.Is(err, ErrValidation) {
		t.Errorf("BatchReject() error = %v, want ErrValidation", err)
	}
}
