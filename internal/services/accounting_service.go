package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/ledger"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
)

// RecognitionLedger is the ledger boundary used while recognising one contract
type RecognitionLedger interface {
	LockContract(ctx context.Context, contract *models.Contract) error
	CountRecognizedDays(ctx context.Context, contract *models.Contract, kind models.RecognitionKind) (int, error)
	RecordDailyRevenueRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error)
	RecordDailyVATRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error)
}

// UnitOfWork runs fn against a ledger bound to one database transaction.
// Any error returned by fn rolls back everything written through that ledger.
type UnitOfWork interface {
	Transaction(ctx context.Context, fn func(l RecognitionLedger) error) error
}

// AccountingService posts recognition transactions and records which days were recognised
type AccountingService struct {
	repos  *repository.Repositories
	poster ledger.Poster
}

// NewAccountingService creates an accounting service writing through repos
func NewAccountingService(repos *repository.Repositories) *AccountingService {
	return &AccountingService{
		repos:  repos,
		poster: ledger.NewPoster(repos.Ledger),
	}
}

// Transaction implements UnitOfWork
func (s *AccountingService) Transaction(ctx context.Context, fn func(l RecognitionLedger) error) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return fn(NewAccountingService(tx))
	})
}

// LockContract serialises recognition of a contract until the surrounding transaction ends
func (s *AccountingService) LockContract(ctx context.Context, contract *models.Contract) error {
	return s.repos.Ledger.LockContract(ctx, contract.ID)
}

// CountRecognizedDays returns how many days of kind were already recognised
func (s *AccountingService) CountRecognizedDays(ctx context.Context, contract *models.Contract, kind models.RecognitionKind) (int, error) {
	return s.repos.Ledger.CountRecognized(ctx, contract.ID, kind)
}

// RecordDailyRevenueRecognition moves one day of rent from unearned deposits to revenue
func (s *AccountingService) RecordDailyRevenueRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	return s.record(ctx, contract, models.RecognitionKindRevenue, accounts.Deposits, accounts.RentalIncome, date, day, amount)
}

// RecordDailyVATRecognition moves one day of VAT from collection to payable
func (s *AccountingService) RecordDailyVATRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	return s.record(ctx, contract, models.RecognitionKindVAT, accounts.VATCollection, accounts.VATPayable, date, day, amount)
}

func (s *AccountingService) record(ctx context.Context, contract *models.Contract, kind models.RecognitionKind, debit, credit *models.Account, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	narration := kind.Narration(contract.ContractNumber, day)

	ref, err := s.poster.Post(ctx, ledger.Entry{
		EntityID:        entityIDOf(contract),
		Currency:        contract.Currency,
		Date:            date,
		Debit:           debit,
		Credit:          credit,
		Amount:          amount,
		Narration:       narration,
		DebitNarration:  narration,
		CreditNarration: narration,
	})
	if err != nil {
		return nil, err
	}

	entry := &models.RecognitionEntry{
		ContractID:      contract.ID,
		Kind:            kind,
		DayNumber:       day,
		RecognitionDate: ref.Date,
		Amount:          amount,
		TransactionID:   ref.ID,
	}
	if err := s.repos.Ledger.CreateRecognitionEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %s day %d: %w", ledger.ErrLedgerWrite, kind, day, err)
	}
	return entry, nil
}

func entityIDOf(contract *models.Contract) string {
	if contract.Entity != nil {
		return contract.Entity.ID
	}
	if contract.EntityID != nil {
		return *contract.EntityID
	}
	return ""
}
