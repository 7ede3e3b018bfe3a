package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/ledger"
	"github.com/sjperalta/fintera-rentals/internal/locking"
	"github.com/sjperalta/fintera-rentals/internal/metrics"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/statemachine"
	"github.com/sjperalta/fintera-rentals/pkg/logger"
)

const dateLayout = "2006-01-02"

// Recognizer recognises one contract as of a date
type Recognizer interface {
	Recognize(ctx context.Context, contract *models.Contract, asOf time.Time) (ContractResult, error)
}

// RecognitionJobConfig tunes the recognition job
type RecognitionJobConfig struct {
	Location    *time.Location
	Currency    string        // reporting currency of the run summary
	Concurrency int           // contracts recognised in parallel; 1 is sequential
	LockTTL     time.Duration // per-contract lock lifetime
}

// RunOptions selects what a run recognises
type RunOptions struct {
	ContractID string    // only this contract when set
	AsOf       time.Time // zero means now
	Actor      string    // recorded in the audit log
}

// RunSummary aggregates the outcome of a recognition run
type RunSummary struct {
	RunID        string           `json:"run_id"`
	State        string           `json:"state"`
	AsOf         time.Time        `json:"as_of"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	Processed    int              `json:"processed"`
	Skipped      int              `json:"skipped"`
	Errors       int              `json:"errors"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalVAT     decimal.Decimal  `json:"total_vat"`
	Currency     string           `json:"currency"`
	Cancelled    bool             `json:"cancelled"`
	Results      []ContractResult `json:"results"`
}

// ExitCode is 0 when no contract failed, 1 otherwise
func (s *RunSummary) ExitCode() int {
	if s.Errors > 0 || s.State == statemachine.RunStateFailed {
		return 1
	}
	return 0
}

// WriteReport prints one line per contract followed by the run totals
func (s *RunSummary) WriteReport(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Revenue recognition as of %s\n", s.AsOf.Format(dateLayout))
	for _, r := range s.Results {
		switch {
		case r.Processed:
			printf("OK    Contract %s: Revenue: %d day(s) = %s %s", r.ContractNumber, r.Days, r.Currency, r.Amount.StringFixed(2))
			if r.VATAmount.IsPositive() {
				printf(", VAT: %d day(s) = %s %s", r.VATDays, r.Currency, r.VATAmount.StringFixed(2))
			}
			printf("\n")
		case r.Error != "":
			printf("ERROR Contract %s: %s\n", r.ContractNumber, r.Error)
		default:
			printf("SKIP  Contract %s: %s\n", r.ContractNumber, r.Reason)
		}
	}

	printf("\nSummary:\n")
	printf("   - Processed: %d contract(s)\n", s.Processed)
	printf("   - Skipped: %d contract(s)\n", s.Skipped)
	printf("   - Errors: %d contract(s)\n", s.Errors)
	printf("   - Total Revenue Recognized: %s %s\n", s.Currency, s.TotalRevenue.StringFixed(2))
	printf("   - Total VAT Recognized: %s %s\n", s.Currency, s.TotalVAT.StringFixed(2))
	if s.Cancelled {
		printf("Run cancelled before all contracts were processed.\n")
	}
	if s.Errors > 0 {
		printf("Some contracts had errors. Check logs for details.\n")
	}
	return err
}

// RecognitionJobService runs recognition across all active contracts
type RecognitionJobService struct {
	contracts repository.ContractRepository
	engine    Recognizer
	locker    locking.Locker
	audit     *AuditService
	metrics   *metrics.Recognition
	cfg       RecognitionJobConfig
	now       func() time.Time
}

// NewRecognitionJobService creates the job driver. audit and m may be nil.
func NewRecognitionJobService(contracts repository.ContractRepository, engine Recognizer, locker locking.Locker, audit *AuditService, m *metrics.Recognition, cfg RecognitionJobConfig) *RecognitionJobService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if locker == nil {
		locker = locking.NewMemoryLocker()
	}
	return &RecognitionJobService{
		contracts: contracts,
		engine:    engine,
		locker:    locker,
		audit:     audit,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run recognises every active contract (or opts.ContractID) as of opts.AsOf.
// Contract failures are counted in the summary; only a failure to load
// contracts is returned as an error (ErrRunFetch). Cancelling ctx stops the
// run between contracts.
func (s *RecognitionJobService) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	started := s.now()
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = started
	}

	summary := &RunSummary{
		RunID:        uuid.NewString(),
		AsOf:         ledger.DateOf(asOf.In(s.cfg.Location)),
		StartedAt:    started,
		TotalRevenue: decimal.Zero,
		TotalVAT:     decimal.Zero,
		Currency:     s.cfg.Currency,
		Results:      []ContractResult{},
	}
	run := statemachine.NewRunFSM(func(state string) { summary.State = state })
	summary.State = run.Current()
	fsmCtx := context.WithoutCancel(ctx)
	log := logger.With("run_id", summary.RunID, "as_of", summary.AsOf.Format(dateLayout))

	if err := run.Fire(fsmCtx, statemachine.RunEventFetch); err != nil {
		return summary, err
	}
	log.Info("[Recognition] Starting daily revenue recognition", "contract_id", opts.ContractID)

	contracts, err := s.contracts.FindActive(ctx, opts.ContractID)
	if err != nil {
		_ = run.Fire(fsmCtx, statemachine.RunEventFail)
		summary.FinishedAt = s.now()
		s.metrics.ObserveRun(summary.State, summary.FinishedAt.Sub(started))
		log.Error("[Recognition] Failed to fetch contracts", "error", err)
		sentry.CaptureException(err)
		return summary, fmt.Errorf("%w: %w", ErrRunFetch, err)
	}
	if len(contracts) == 0 {
		log.Warn("[Recognition] No active contracts found")
	} else {
		log.Info(fmt.Sprintf("[Recognition] Found %d active contract(s) to process", len(contracts)))
	}

	if err := run.Fire(fsmCtx, statemachine.RunEventProcess); err != nil {
		return summary, err
	}
	outcomes := s.processAll(ctx, contracts, asOf, log, summary)

	if err := run.Fire(fsmCtx, statemachine.RunEventAggregate); err != nil {
		return summary, err
	}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		summary.add(o.result, o.err)
		s.observe(o.result, o.err)
	}

	if err := run.Fire(fsmCtx, statemachine.RunEventFinish); err != nil {
		return summary, err
	}
	summary.FinishedAt = s.now()
	s.metrics.ObserveRun(summary.State, summary.FinishedAt.Sub(started))

	log.Info("[Recognition] Run finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"total_revenue", summary.TotalRevenue.StringFixed(2),
		"total_vat", summary.TotalVAT.StringFixed(2),
		"cancelled", summary.Cancelled,
	)
	s.record(fsmCtx, opts, summary, log)

	return summary, nil
}

type contractOutcome struct {
	result ContractResult
	err    error
}

// processAll recognises contracts with at most cfg.Concurrency in flight. Outcomes
// keep contract order; contracts never started because ctx was cancelled stay nil.
func (s *RecognitionJobService) processAll(ctx context.Context, contracts []models.Contract, asOf time.Time, log *slog.Logger, summary *RunSummary) []*contractOutcome {
	outcomes := make([]*contractOutcome, len(contracts))
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for i := range contracts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			summary.Cancelled = true
			log.Warn("[Recognition] Run cancelled", "remaining", len(contracts)-i)
			break
		}

		wg.Go(func() {
			defer func() { <-sem }()
			contract := &contracts[i]
			result, err := s.processContract(context.WithoutCancel(ctx), contract, asOf, log)
			outcomes[i] = &contractOutcome{result: result, err: err}
		})
	}
	wg.Wait()

	return outcomes
}

func (s *RecognitionJobService) processContract(ctx context.Context, contract *models.Contract, asOf time.Time, log *slog.Logger) (ContractResult, error) {
	clog := log.With("contract_id", contract.ID, "contract_number", contract.ContractNumber)

	lock, err := s.locker.Obtain(ctx, locking.ContractKey(contract.ID), s.cfg.LockTTL)
	if errors.Is(err, locking.ErrNotObtained) {
		clog.Info("[Recognition] Contract skipped", "reason", ErrContractLocked.Error())
		return newContractResult(contract), ErrContractLocked
	}
	if err != nil {
		err = fmt.Errorf("acquire contract lock: %w", err)
		s.fail(clog, contract, err)
		return newContractResult(contract), err
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			clog.Warn("[Recognition] Failed to release contract lock", "error", err)
		}
	}()

	result, err := s.engine.Recognize(ctx, contract, asOf)
	switch {
	case err == nil:
		clog.Info("[Recognition] Revenue recognized for contract",
			"days", result.Days,
			"amount", result.Amount.StringFixed(2),
			"vat_days", result.VATDays,
			"vat_amount", result.VATAmount.StringFixed(2),
		)
	case IsSkip(err):
		clog.Info("[Recognition] Contract skipped", "reason", err.Error())
	default:
		s.fail(clog, contract, err)
	}
	return result, err
}

func (s *RecognitionJobService) fail(log *slog.Logger, contract *models.Contract, err error) {
	log.Error("[Recognition] Revenue recognition failed for contract",
		"error", err,
		"entity_id", entityIDOf(contract),
		"start_date", contract.StartDate.Format(dateLayout),
		"end_date", contract.EndDate.Format(dateLayout),
		"total_amount", contract.TotalAmount.StringFixed(2),
		"total_days", contract.TotalDays,
	)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("contract_id", contract.ID)
		scope.SetTag("contract_number", contract.ContractNumber)
		sentry.CaptureException(err)
	})
}

func (s *RecognitionJobService) observe(result ContractResult, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveContract("processed")
		s.metrics.ObservePosted(string(models.RecognitionKindRevenue), result.Currency, result.Days, result.Amount.InexactFloat64())
		s.metrics.ObservePosted(string(models.RecognitionKindVAT), result.Currency, result.VATDays, result.VATAmount.InexactFloat64())
	case IsSkip(err):
		s.metrics.ObserveContract("skipped")
	default:
		s.metrics.ObserveContract("error")
	}
}

// record writes the run outcome to the audit log
func (s *RecognitionJobService) record(ctx context.Context, opts RunOptions, summary *RunSummary, log *slog.Logger) {
	if s.audit == nil {
		return
	}
	actor := opts.Actor
	if actor == "" {
		actor = "system"
	}
	details, _ := json.Marshal(map[string]any{
		"as_of":         summary.AsOf.Format(dateLayout),
		"contract_id":   opts.ContractID,
		"processed":     summary.Processed,
		"skipped":       summary.Skipped,
		"errors":        summary.Errors,
		"total_revenue": summary.TotalRevenue.StringFixed(2),
		"total_vat":     summary.TotalVAT.StringFixed(2),
		"cancelled":     summary.Cancelled,
	})
	if err := s.audit.Log(ctx, actor, models.AuditActionRecognize, "RecognitionRun", summary.RunID, string(details)); err != nil {
		log.Warn("[Recognition] Failed to write audit log", "error", err)
	}
}

func (s *RunSummary) add(result ContractResult, err error) {
	switch {
	case err == nil:
		s.Processed++
		s.TotalRevenue = s.TotalRevenue.Add(result.Amount)
		s.TotalVAT = s.TotalVAT.Add(result.VATAmount)
	case IsSkip(err):
		s.Skipped++
		result.Reason = err.Error()
	default:
		s.Errors++
		result.Error = err.Error()
	}
	s.Results = append(s.Results, result)
}
