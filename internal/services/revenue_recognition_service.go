package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/ledger"
	"github.com/sjperalta/fintera-rentals/internal/models"
)

// RecognitionPolicy holds the business settings recognition depends on
type RecognitionPolicy struct {
	Location *time.Location  // business timezone used to decide calendar days
	VATRate  decimal.Decimal // e.g. 0.05
}

func (p RecognitionPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// ScheduledDay is one day waiting to be recognised
type ScheduledDay struct {
	Day    int             `json:"day"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Schedule is the outstanding recognition for a contract as of a date
type Schedule struct {
	AsOf              time.Time       `json:"as_of"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	DaysElapsed       int             `json:"days_elapsed"`
	RecognizedDays    int             `json:"recognized_days"`
	RecognizedVATDays int             `json:"recognized_vat_days"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	DailyRevenue      decimal.Decimal `json:"daily_revenue"`
	DailyVAT          decimal.Decimal `json:"daily_vat"`
	Revenue           []ScheduledDay  `json:"revenue"`
	VAT               []ScheduledDay  `json:"vat"`
}

// Outstanding returns how many postings the schedule holds
func (s *Schedule) Outstanding() int {
	return len(s.Revenue) + len(s.VAT)
}

// RevenueTotal sums the scheduled revenue days
func (s *Schedule) RevenueTotal() decimal.Decimal {
	return sumDays(s.Revenue)
}

// VATTotal sums the scheduled VAT days
func (s *Schedule) VATTotal() decimal.Decimal {
	return sumDays(s.VAT)
}

func sumDays(days []ScheduledDay) decimal.Decimal {
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.Amount)
	}
	return total
}

// SplitVAT splits a daily gross amount into net revenue and VAT, each rounded to cents.
// When inclusive is false the amount is already net and VAT is charged on top.
func SplitVAT(amount decimal.Decimal, inclusive bool, rate decimal.Decimal) (net, vat decimal.Decimal) {
	if inclusive {
		net = amount.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
		vat = amount.Sub(net).Round(2)
		return net, vat
	}
	return amount, amount.Mul(rate).Round(2)
}

// Plan computes which days of a contract are still to be recognised as of asOf,
// given how many revenue and VAT days are already recognised. It has no side effects.
func Plan(contract *models.Contract, asOf time.Time, policy RecognitionPolicy, recognized, recognizedVAT int) (*Schedule, error) {
	if contract.TotalDays < 1 {
		return nil, fmt.Errorf("%w: contract %s has total_days %d", ErrInvalidContract, contract.ContractNumber, contract.TotalDays)
	}

	loc := policy.location()
	start := ledger.DateOf(contract.StartDate.In(loc))
	end := ledger.DateOf(contract.EndDate.In(loc))
	today := ledger.DateOf(asOf.In(loc))

	if end.Before(start) {
		return nil, fmt.Errorf("%w: contract %s ends before it starts", ErrInvalidContract, contract.ContractNumber)
	}
	if today.Before(start) {
		return nil, ErrNotStarted
	}

	effective := today
	if effective.After(end) {
		effective = end
	}
	elapsed := daysBetween(start, effective) + 1
	if today.After(end) || elapsed > contract.TotalDays {
		elapsed = contract.TotalDays
	}

	rate := contract.DailyRate()
	net, vat := SplitVAT(rate, contract.VATInclusive(), policy.VATRate)
	if !net.IsPositive() {
		return nil, fmt.Errorf("%w: %w: contract %s daily revenue %s is not positive",
			ErrInvalidContract, ledger.ErrUnbalancedEntry, contract.ContractNumber, net.StringFixed(2))
	}

	return &Schedule{
		AsOf:              today,
		StartDate:         start,
		EndDate:           end,
		DaysElapsed:       elapsed,
		RecognizedDays:    recognized,
		RecognizedVATDays: recognizedVAT,
		DailyRate:         rate,
		DailyRevenue:      net,
		DailyVAT:          vat,
		Revenue:           scheduleDays(start, recognized, elapsed, net),
		VAT:               scheduleDays(start, recognizedVAT, elapsed, vat),
	}, nil
}

// scheduleDays lists days recognized+1..elapsed; day N falls on start + N-1 days
func scheduleDays(start time.Time, recognized, elapsed int, amount decimal.Decimal) []ScheduledDay {
	// a zero VAT rate leaves nothing to post for the VAT series
	if !amount.IsPositive() || recognized >= elapsed {
		return nil
	}
	days := make([]ScheduledDay, 0, elapsed-recognized)
	for day := recognized + 1; day <= elapsed; day++ {
		days = append(days, ScheduledDay{
			Day:    day,
			Date:   start.AddDate(0, 0, day-1),
			Amount: amount,
		})
	}
	return days
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// ContractAccountResolver resolves the posting accounts of a contract
type ContractAccountResolver interface {
	ResolveForContract(ctx context.Context, contract *models.Contract) (*ContractAccounts, error)
}

// ContractResult is the outcome of recognising one contract
type ContractResult struct {
	ContractID     string          `json:"contract_id"`
	ContractNumber string          `json:"contract_number"`
	Currency       string          `json:"currency"`
	Processed      bool            `json:"processed"`
	Days           int             `json:"days"`
	Amount         decimal.Decimal `json:"amount"`
	VATDays        int             `json:"vat_days"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	Reason         string          `json:"reason,omitempty"`
	Error          string          `json:"error,omitempty"`
}

func newContractResult(contract *models.Contract) ContractResult {
	return ContractResult{
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		Currency:       contract.Currency,
		Amount:         decimal.Zero,
		VATAmount:      decimal.Zero,
	}
}

// RevenueRecognitionService posts the outstanding daily revenue and VAT of a contract
type RevenueRecognitionService struct {
	uow      UnitOfWork
	resolver ContractAccountResolver
	policy   RecognitionPolicy
}

// NewRevenueRecognitionService creates the recognition engine
func NewRevenueRecognitionService(uow UnitOfWork, resolver ContractAccountResolver, policy RecognitionPolicy) *RevenueRecognitionService {
	return &RevenueRecognitionService{
		uow:      uow,
		resolver: resolver,
		policy:   policy,
	}
}

// Recognize posts every unrecognised elapsed day of the contract as of asOf.
// All postings of the contract commit together or not at all. Skips are reported
// as ErrNotStarted or ErrAlreadyRecognized with an unprocessed result.
func (s *RevenueRecognitionService) Recognize(ctx context.Context, contract *models.Contract, asOf time.Time) (ContractResult, error) {
	result := newContractResult(contract)

	if _, err := Plan(contract, asOf, s.policy, 0, 0); err != nil {
		return result, err
	}

	accounts, err := s.resolver.ResolveForContract(ctx, contract)
	if err != nil {
		return result, err
	}

	var schedule *Schedule
	err = s.uow.Transaction(ctx, func(l RecognitionLedger) error {
		if err := l.LockContract(ctx, contract); err != nil {
			return fmt.Errorf("lock contract %s: %w", contract.ContractNumber, err)
		}

		recognized, err := l.CountRecognizedDays(ctx, contract, models.RecognitionKindRevenue)
		if err != nil {
			return fmt.Errorf("count revenue days: %w", err)
		}
		recognizedVAT, err := l.CountRecognizedDays(ctx, contract, models.RecognitionKindVAT)
		if err != nil {
			return fmt.Errorf("count vat days: %w", err)
		}

		schedule, err = Plan(contract, asOf, s.policy, recognized, recognizedVAT)
		if err != nil {
			return err
		}
		if schedule.Outstanding() == 0 {
			return ErrAlreadyRecognized
		}

		for _, d := range schedule.Revenue {
			if _, err := l.RecordDailyRevenueRecognition(ctx, contract, accounts, d.Date, d.Day, d.Amount); err != nil {
				return fmt.Errorf("revenue day %d: %w", d.Day, err)
			}
		}
		for _, d := range schedule.VAT {
			if _, err := l.RecordDailyVATRecognition(ctx, contract, accounts, d.Date, d.Day, d.Amount); err != nil {
				return fmt.Errorf("vat day %d: %w", d.Day, err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Processed = true
	result.Days = len(schedule.Revenue)
	result.Amount = schedule.RevenueTotal()
	result.VATDays = len(schedule.VAT)
	result.VATAmount = schedule.VATTotal()
	return result, nil
}

// Preview returns the outstanding schedule of a contract without posting anything
func (s *RevenueRecognitionService) Preview(ctx context.Context, contract *models.Contract, asOf time.Time) (*Schedule, error) {
	var schedule *Schedule
	err := s.uow.Transaction(ctx, func(l RecognitionLedger) error {
		recognized, err := l.CountRecognizedDays(ctx, contract, models.RecognitionKindRevenue)
		if err != nil {
			return err
		}
		recognizedVAT, err := l.CountRecognizedDays(ctx, contract, models.RecognitionKindVAT)
		if err != nil {
			return err
		}
		schedule, err = Plan(contract, asOf, s.policy, recognized, recognizedVAT)
		return err
	})
	return schedule, err
}
