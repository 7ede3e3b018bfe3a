// Package ledger posts balanced double-entry transactions into the general ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sjperalta/fintera-rentals/internal/models"
)

var (
	ErrUnbalancedEntry = errors.New("unbalanced ledger entry")
	ErrLedgerWrite     = errors.New("ledger write failed")
	ErrClosedPeriod    = errors.New("reporting period is closed")
)

// TransactionRef identifies a posted ledger transaction
type TransactionRef struct {
	ID        string
	Date      time.Time
	Narration string
}

// Entry is a single debit/credit pair to be posted as one transaction
type Entry struct {
	EntityID        string
	Currency        string
	Date            time.Time
	Debit           *models.Account
	Credit          *models.Account
	Amount          decimal.Decimal
	Narration       string
	DebitNarration  string
	CreditNarration string
}

// Validate checks the entry can produce a balanced transaction
func (e Entry) Validate() error {
	if e.Debit == nil || e.Credit == nil {
		return fmt.Errorf("%w: debit and credit accounts are required", ErrUnbalancedEntry)
	}
	if e.Debit.ID == e.Credit.ID {
		return fmt.Errorf("%w: self-posting not allowed on account %s", ErrUnbalancedEntry, e.Debit.Code)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrUnbalancedEntry, e.Amount.StringFixed(2))
	}
	if e.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrUnbalancedEntry)
	}
	if e.Debit.CurrencyCode != e.Currency || e.Credit.CurrencyCode != e.Currency {
		return fmt.Errorf("%w: account currency does not match %s", ErrUnbalancedEntry, e.Currency)
	}
	if e.EntityID == "" {
		return fmt.Errorf("%w: entity is required", ErrUnbalancedEntry)
	}
	return nil
}

// Poster creates one balanced transaction per entry
type Poster interface {
	Post(ctx context.Context, entry Entry) (TransactionRef, error)
}

// Store is the persistence a poster writes through. CreateTransaction must
// write the transaction and its line items atomically.
type Store interface {
	FindOrCreateReportingPeriod(ctx context.Context, entityID string, year int) (*models.ReportingPeriod, error)
	CreateTransaction(ctx context.Context, txn *models.LedgerTransaction) error
}

// StorePoster is the Poster backed by a Store
type StorePoster struct {
	store Store
}

// NewPoster creates a poster writing through store
func NewPoster(store Store) *StorePoster {
	return &StorePoster{store: store}
}

// Post validates the entry and writes a journal transaction with one debit
// and one credit line item.
func (p *StorePoster) Post(ctx context.Context, entry Entry) (TransactionRef, error) {
	if err := entry.Validate(); err != nil {
		return TransactionRef{}, err
	}

	date := DateOf(entry.Date)
	period, err := p.store.FindOrCreateReportingPeriod(ctx, entry.EntityID, date.Year())
	if err != nil {
		return TransactionRef{}, fmt.Errorf("%w: reporting period: %w", ErrLedgerWrite, err)
	}
	if !period.IsOpen() {
		return TransactionRef{}, fmt.Errorf("%w: %d", ErrClosedPeriod, period.CalendarYear)
	}

	amount := entry.Amount.Round(2)
	txn := &models.LedgerTransaction{
		EntityID:          entry.EntityID,
		ReportingPeriodID: period.ID,
		TransactionType:   models.TransactionTypeJournal,
		TransactionDate:   date,
		Narration:         entry.Narration,
		CurrencyCode:      entry.Currency,
		LineItems: []models.LineItem{
			{AccountID: entry.Debit.ID, Amount: amount, Credited: false, Narration: entry.DebitNarration},
			{AccountID: entry.Credit.ID, Amount: amount, Credited: true, Narration: entry.CreditNarration},
		},
	}
	if !txn.IsBalanced() {
		return TransactionRef{}, fmt.Errorf("%w: %s", ErrUnbalancedEntry, entry.Narration)
	}

	if err := p.store.CreateTransaction(ctx, txn); err != nil {
		return TransactionRef{}, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	return TransactionRef{ID: txn.ID, Date: date, Narration: txn.Narration}, nil
}

// DateOf returns the calendar date of t (in t's own location) as midnight UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
