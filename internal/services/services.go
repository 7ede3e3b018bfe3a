package services

import (
	"github.com/sjperalta/fintera-rentals/internal/config"
	"github.com/sjperalta/fintera-rentals/internal/jobs"
	"github.com/sjperalta/fintera-rentals/internal/locking"
	"github.com/sjperalta/fintera-rentals/internal/metrics"
	"github.com/sjperalta/fintera-rentals/internal/repository"
)

// Services holds all service instances
type Services struct {
	Accounts       *AccountResolver
	Accounting     *AccountingService
	Recognition    *RevenueRecognitionService
	RecognitionJob *RecognitionJobService
	Contract       *ContractService
	Audit          *AuditService
	Export         *ExportService
	Job            *JobService
}

// NewServices creates all service instances. worker and m may be nil outside the API process.
func NewServices(repos *repository.Repositories, worker *jobs.Worker, locker locking.Locker, m *metrics.Recognition, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.DB())
	resolver := NewAccountResolver(repos.Account)
	accounting := NewAccountingService(repos)

	engine := NewRevenueRecognitionService(accounting, resolver, RecognitionPolicy{
		Location: cfg.Location,
		VATRate:  cfg.VATRate,
	})
	contractSvc := NewContractService(repos.Contract, repos.Ledger, engine, auditSvc)

	svcs := &Services{
		Accounts:    resolver,
		Accounting:  accounting,
		Recognition: engine,
		RecognitionJob: NewRecognitionJobService(repos.Contract, engine, locker, auditSvc, m, RecognitionJobConfig{
			Location:    cfg.Location,
			Currency:    cfg.DefaultCurrency,
			Concurrency: cfg.RecognitionConcurrency,
			LockTTL:     cfg.RecognitionLockTTL,
		}),
		Contract: contractSvc,
		Audit:    auditSvc,
		Export:   NewExportService(contractSvc),
	}
	if worker != nil {
		svcs.Job = NewJobService(worker)
	}
	return svcs
}
