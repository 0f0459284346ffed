package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

// PeriodService exposes period lookups for submission routing and display
type PeriodService interface {
	// CurrentPeriod returns the period whose accrual window contains now, or
	// the most recently started one when no window matches.
	CurrentPeriod(ctx context.Context) (*entity.Period, error)

	// SubmissionPeriod returns the open period currently accepting submissions.
	SubmissionPeriod(ctx context.Context) (*entity.Period, error)

	GetPeriod(ctx context.Context, id int64) (*entity.Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]*entity.Period, error)
}

type periodServiceImpl struct {
	periodRepo port.PeriodRepository
	logger     Logger
	now        func() time.Time
}

// NewPeriodService creates a new PeriodService. now may be nil, in which
// case wall-clock time is used.
func NewPeriodService(periodRepo port.PeriodRepository, logger Logger, now func() time.Time) PeriodService {
	if now == nil {
		now = time.Now
	}
	return &periodServiceImpl{
		periodRepo: periodRepo,
		logger:     logger,
		now:        now,
	}
}

func (s *periodServiceImpl) CurrentPeriod(ctx context.Context) (*entity.Period, error) {
	period, err := s.periodRepo.FindCurrent(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, fmt.Errorf("%w: no current period", ErrNotFound)
	}
	return period, nil
}

func (s *periodServiceImpl) SubmissionPeriod(ctx context.Context) (*entity.Period, error) {
	period, err := s.periodRepo.FindSubmission(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, fmt.Errorf("%w: no period accepts submissions", ErrNotFound)
	}
	return period, nil
}

func (s *periodServiceImpl) GetPeriod(ctx context.Context, id int64) (*entity.Period, error) {
	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, fmt.Errorf("%w: period %d", ErrNotFound, id)
	}
	return period, nil
}

func (s *periodServiceImpl) ListPeriods(ctx context.Context, limit, offset int) ([]*entity.Period, error) {
	return s.periodRepo.List(ctx, limit, offset)
}

// AuditLogService exposes the audit trail read side
type AuditLogService interface {
	ListEntries(ctx context.Context, limit, offset int) ([]*entity.AuditLogEntry, error)
}

type auditLogServiceImpl struct {
	auditRepo port.AuditRepository
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(auditRepo port.AuditRepository) AuditLogService {
	return &auditLogServiceImpl{auditRepo: auditRepo}
}

func (s *auditLogServiceImpl) ListEntries(ctx context.Context, limit, offset int) ([]*entity.AuditLogEntry, error) {
	return s.auditRepo.List(ctx, limit, offset)
}
