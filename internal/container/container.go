// Package container wires repositories and services together with ordered
// initialization and reverse-order teardown.
package container

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/application/service"
	"github.com/garyjia/benefit-claims/internal/infrastructure/persistence/repository"
	"github.com/garyjia/benefit-claims/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/benefit-claims/pkg/utils"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Period     port.PeriodRepository
	Claim      port.ClaimRepository
	Employee   port.EmployeeRepository
	Settlement port.SettlementRepository
	Overflow   port.OverflowEventRepository
	Payroll    port.PayrollEventRepository
	Audit      port.AuditRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Claim      service.ClaimService
	Settlement service.SettlementService
	Period     service.PeriodService
	AuditLog   service.AuditLogService
}

// Container manages application dependencies.
type Container struct {
	logger *zap.Logger

	db           *sqlite.DB
	Repositories *RepositoryBundle
	Services     *ServiceBundle
}

// New builds the full dependency graph on top of an open database handle.
func New(sqlDB *sql.DB, logger *zap.Logger) (*Container, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db := sqlite.NewDB(sqlDB, logger)

	repos := &RepositoryBundle{
		Period:     repository.NewPeriodRepository(sqlDB, logger),
		Claim:      repository.NewClaimRepository(sqlDB, logger),
		Employee:   repository.NewEmployeeRepository(sqlDB, logger),
		Settlement: repository.NewSettlementRepository(sqlDB, logger),
		Overflow:   repository.NewOverflowEventRepository(sqlDB, logger),
		Payroll:    repository.NewPayrollEventRepository(sqlDB, logger),
		Audit:      repository.NewAuditRepository(sqlDB, logger),
	}

	serviceLogger := utils.NewSugarAdapter(logger)
	audit := service.NewAuditRecorder(repos.Audit, serviceLogger)

	services := &ServiceBundle{
		Claim: service.NewClaimService(
			repos.Claim, repos.Period, repos.Employee, db, audit, serviceLogger, time.Now),
		Settlement: service.NewSettlementService(
			repos.Period, repos.Claim, repos.Employee, repos.Settlement, repos.Overflow,
			repos.Payroll, db, audit, serviceLogger, time.Now),
		Period:   service.NewPeriodService(repos.Period, serviceLogger, time.Now),
		AuditLog: service.NewAuditLogService(repos.Audit),
	}

	return &Container{
		logger:       logger,
		db:           db,
		Repositories: repos,
		Services:     services,
	}, nil
}
