package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/statemachine"
	"gorm.io/gorm"
)

// Previewer computes the outstanding recognition of a contract without posting
type Previewer interface {
	Preview(ctx context.Context, contract *models.Contract, asOf time.Time) (*Schedule, error)
}

// RecognitionStatus is what has been recognised for a contract and what is still outstanding
type RecognitionStatus struct {
	Contract          *models.Contract
	Entries           []models.RecognitionEntry
	RecognizedRevenue decimal.Decimal
	RecognizedVAT     decimal.Decimal
	Outstanding       *Schedule // nil when nothing can be planned, see Note
	Note              string
}

type ContractService struct {
	repo       repository.ContractRepository
	ledgerRepo repository.LedgerRepository
	previewer  Previewer
	auditSvc   *AuditService
}

func NewContractService(
	repo repository.ContractRepository,
	ledgerRepo repository.LedgerRepository,
	previewer Previewer,
	auditSvc *AuditService,
) *ContractService {
	return &ContractService{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		previewer:  previewer,
		auditSvc:   auditSvc,
	}
}

func (s *ContractService) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	return contract, err
}

func (s *ContractService) List(ctx context.Context, query *repository.ContractQuery) ([]models.Contract, int64, error) {
	return s.repo.List(ctx, query)
}

// Activate makes a draft contract eligible for revenue recognition
func (s *ContractService) Activate(ctx context.Context, id, actor string) (*models.Contract, error) {
	return s.transition(ctx, id, actor, models.AuditActionActivate, func(ctx context.Context, c *models.Contract) error {
		if err := validateTerms(c); err != nil {
			return err
		}
		return statemachine.NewContractFSM(c).Activate(ctx)
	})
}

// Complete closes an active contract; recognition stops picking it up
func (s *ContractService) Complete(ctx context.Context, id, actor string) (*models.Contract, error) {
	return s.transition(ctx, id, actor, models.AuditActionComplete, func(ctx context.Context, c *models.Contract) error {
		return statemachine.NewContractFSM(c).Complete(ctx)
	})
}

// Void cancels a draft or active contract
func (s *ContractService) Void(ctx context.Context, id, actor string) (*models.Contract, error) {
	return s.transition(ctx, id, actor, models.AuditActionVoid, func(ctx context.Context, c *models.Contract) error {
		return statemachine.NewContractFSM(c).Void(ctx)
	})
}

func (s *ContractService) transition(ctx context.Context, id, actor, action string, apply func(context.Context, *models.Contract) error) (*models.Contract, error) {
	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := contract.Status
	if err := apply(ctx, contract); err != nil {
		if errors.Is(err, ErrInvalidContract) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		details := fmt.Sprintf("Contract %s: %s -> %s", contract.ContractNumber, from, contract.Status)
		_ = s.auditSvc.Log(ctx, actor, action, "Contract", contract.ID, details)
	}
	return contract, nil
}

func validateTerms(c *models.Contract) error {
	if c.TotalDays < 1 {
		return fmt.Errorf("%w: total_days must be at least 1", ErrInvalidContract)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidContract)
	}
	if !c.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: total_amount must be positive", ErrInvalidContract)
	}
	return nil
}

// RecognitionStatus returns recognised entries and the outstanding schedule as of asOf
func (s *ContractService) RecognitionStatus(ctx context.Context, id string, asOf time.Time) (*RecognitionStatus, error) {
	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindRecognitionEntries(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	status := &RecognitionStatus{
		Contract:          contract,
		Entries:           entries,
		RecognizedRevenue: decimal.Zero,
		RecognizedVAT:     decimal.Zero,
	}
	for _, e := range entries {
		if e.Kind == models.RecognitionKindVAT {
			status.RecognizedVAT = status.RecognizedVAT.Add(e.Amount)
		} else {
			status.RecognizedRevenue = status.RecognizedRevenue.Add(e.Amount)
		}
	}

	schedule, err := s.previewer.Preview(ctx, contract, asOf)
	switch {
	case err == nil:
		status.Outstanding = schedule
	case errors.Is(err, ErrNotStarted), errors.Is(err, ErrInvalidContract):
		status.Note = err.Error()
	default:
		return nil, err
	}
	return status, nil
}
