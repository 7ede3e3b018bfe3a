package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/locking"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock ContractRepository (using embedding to avoid implementing all methods)
type mockContractRepository struct {
	repository.ContractRepository
	mockFindActive func(ctx context.Context, contractID string) ([]models.Contract, error)
}

func (m *mockContractRepository) FindActive(ctx context.Context, contractID string) ([]models.Contract, error) {
	if m.mockFindActive != nil {
		return m.mockFindActive(ctx, contractID)
	}
	return nil, nil
}

type mockRecognizer struct {
	mu       sync.Mutex
	calls    []string
	recog    func(contract *models.Contract) (ContractResult, error)
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockRecognizer) Recognize(ctx context.Context, contract *models.Contract, asOf time.Time) (ContractResult, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, contract.ContractNumber)
	m.mu.Unlock()

	if m.recog != nil {
		return m.recog(contract)
	}
	result := newContractResult(contract)
	result.Processed = true
	return result, nil
}

func contractsFixture(numbers ...string) []models.Contract {
	contracts := make([]models.Contract, 0, len(numbers))
	for _, n := range numbers {
		contracts = append(contracts, models.Contract{ID: "id-" + n, ContractNumber: n, Currency: "AED", Status: models.ContractStatusActive})
	}
	return contracts
}

func processedResult(contract *models.Contract, days int, amount, vat string) ContractResult {
	r := newContractResult(contract)
	r.Processed = true
	r.Days = days
	r.Amount = decimal.RequireFromString(amount)
	r.VATDays = days
	r.VATAmount = decimal.RequireFromString(vat)
	return r
}

func newTestJob(repo repository.ContractRepository, engine Recognizer, locker locking.Locker, concurrency int) *RecognitionJobService {
	return NewRecognitionJobService(repo, engine, locker, nil, nil, RecognitionJobConfig{
		Location:    dubai,
		Currency:    "AED",
		Concurrency: concurrency,
	})
}

func TestRecognitionJob_Run_MixedOutcomes(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture("RC-1", "RC-2", "RC-3"), nil
		},
	}
	engine := &mockRecognizer{
		recog: func(c *models.Contract) (ContractResult, error) {
			switch c.ContractNumber {
			case "RC-1":
				return processedResult(c, 5, "476.20", "23.80"), nil
			case "RC-2":
				return newContractResult(c), ErrAlreadyRecognized
			default:
				return newContractResult(c), errors.New("ledger down")
			}
		},
	}
	job := newTestJob(repo, engine, nil, 1)

	summary, err := job.Run(context.Background(), RunOptions{AsOf: day(2025, 1, 5)})
	require.NoError(t, err)

	assert.Equal(t, statemachine.RunStateDone, summary.State)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, "476.20", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, "23.80", summary.TotalVAT.StringFixed(2))
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), summary.AsOf)
	assert.Equal(t, 1, summary.ExitCode())

	require.Len(t, summary.Results, 3)
	assert.Equal(t, ErrAlreadyRecognized.Error(), summary.Results[1].Reason)
	assert.Equal(t, "ledger down", summary.Results[2].Error)
	assert.False(t, summary.Cancelled)
}

func TestRecognitionJob_Run_ZeroAmountContractIsAnError(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			zero := *tenDayContract()
			zero.ID = "contract-2"
			zero.ContractNumber = "RC-0002"
			zero.TotalAmount = decimal.Zero
			return []models.Contract{*tenDayContract(), zero}, nil
		},
	}
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())
	job := newTestJob(repo, engine, nil, 1)

	summary, err := job.Run(context.Background(), RunOptions{AsOf: day(2025, 1, 5)})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.ExitCode())
	require.Len(t, summary.Results, 2)
	assert.Contains(t, summary.Results[1].Error, "not positive")
	assert.Empty(t, summary.Results[1].Reason)
}

func TestRecognitionJob_Run_AllProcessed(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture("RC-1", "RC-2"), nil
		},
	}
	engine := &mockRecognizer{
		recog: func(c *models.Contract) (ContractResult, error) {
			return processedResult(c, 1, "95.24", "4.76"), nil
		},
	}
	job := newTestJob(repo, engine, nil, 1)

	summary, err := job.Run(context.Background(), RunOptions{AsOf: day(2025, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, "190.48", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, "9.52", summary.TotalVAT.StringFixed(2))
	assert.Equal(t, 0, summary.ExitCode())
}

func TestRecognitionJob_Run_PassesContractFilter(t *testing.T) {
	var gotID string
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			gotID = contractID
			return nil, nil
		},
	}
	job := newTestJob(repo, &mockRecognizer{}, nil, 1)

	summary, err := job.Run(context.Background(), RunOptions{ContractID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", gotID)
	assert.Equal(t, statemachine.RunStateDone, summary.State)
	assert.Empty(t, summary.Results)
	assert.Equal(t, 0, summary.ExitCode())
}

func TestRecognitionJob_Run_FetchFailure(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return nil, errors.New("connection refused")
		},
	}
	engine := &mockRecognizer{}
	job := newTestJob(repo, engine, nil, 1)

	summary, err := job.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, ErrRunFetch)
	assert.Equal(t, statemachine.RunStateFailed, summary.State)
	assert.Equal(t, 1, summary.ExitCode())
	assert.Empty(t, engine.calls)
}

func TestRecognitionJob_Run_SkipsLockedContract(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture("RC-1", "RC-2"), nil
		},
	}
	engine := &mockRecognizer{}
	locker := locking.NewMemoryLocker()

	held, err := locker.Obtain(context.Background(), locking.ContractKey("id-RC-1"), time.Minute)
	require.NoError(t, err)
	defer held.Release(context.Background())

	job := newTestJob(repo, engine, locker, 1)
	summary, err := job.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, ErrContractLocked.Error(), summary.Results[0].Reason)
	assert.Equal(t, []string{"RC-2"}, engine.calls)
	assert.Equal(t, 0, summary.ExitCode())

	// lock of RC-2 was released after processing
	lock, err := locker.Obtain(context.Background(), locking.ContractKey("id-RC-2"), time.Minute)
	require.NoError(t, err)
	_ = lock.Release(context.Background())
}

func TestRecognitionJob_Run_CancelledBeforeProcessing(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture("RC-1", "RC-2"), nil
		},
	}
	engine := &mockRecognizer{}
	job := newTestJob(repo, engine, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := job.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Empty(t, engine.calls)
	assert.Empty(t, summary.Results)
	assert.Equal(t, statemachine.RunStateDone, summary.State)
}

func TestRecognitionJob_Run_CancelStopsBetweenContracts(t *testing.T) {
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture("RC-1", "RC-2", "RC-3"), nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := &mockRecognizer{}
	engine.recog = func(c *models.Contract) (ContractResult, error) {
		cancel()
		return processedResult(c, 1, "95.24", "4.76"), nil
	}
	job := newTestJob(repo, engine, nil, 1)

	summary, err := job.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, []string{"RC-1"}, engine.calls)
	assert.Equal(t, 1, summary.Processed)
}

func TestRecognitionJob_Run_BoundedConcurrency(t *testing.T) {
	numbers := make([]string, 12)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("RC-%02d", i)
	}
	repo := &mockContractRepository{
		mockFindActive: func(ctx context.Context, contractID string) ([]models.Contract, error) {
			return contractsFixture(numbers...), nil
		},
	}
	engine := &mockRecognizer{}
	engine.recog = func(c *models.Contract) (ContractResult, error) {
		time.Sleep(5 * time.Millisecond)
		return processedResult(c, 1, "10.00", "0.50"), nil
	}
	job := newTestJob(repo, engine, nil, 3)

	summary, err := job.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Processed)
	assert.Equal(t, "120.00", summary.TotalRevenue.StringFixed(2))
	assert.LessOrEqual(t, engine.maxSeen.Load(), int32(3))

	for i, r := range summary.Results {
		assert.Equal(t, numbers[i], r.ContractNumber)
	}
}

func TestRunSummary_WriteReport(t *testing.T) {
	c1 := &models.Contract{ID: "1", ContractNumber: "RC-1", Currency: "AED"}
	c2 := &models.Contract{ID: "2", ContractNumber: "RC-2", Currency: "AED"}
	c3 := &models.Contract{ID: "3", ContractNumber: "RC-3", Currency: "AED"}

	summary := &RunSummary{
		AsOf:         time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		TotalRevenue: decimal.Zero,
		TotalVAT:     decimal.Zero,
		Currency:     "AED",
	}
	summary.add(processedResult(c1, 5, "476.20", "23.80"), nil)
	summary.add(newContractResult(c2), ErrAlreadyRecognized)
	summary.add(newContractResult(c3), errors.New("ledger down"))

	var buf bytes.Buffer
	require.NoError(t, summary.WriteReport(&buf))
	out := buf.String()

	assert.Contains(t, out, "Revenue recognition as of 2025-01-05")
	assert.Contains(t, out, "OK    Contract RC-1: Revenue: 5 day(s) = AED 476.20, VAT: 5 day(s) = AED 23.80")
	assert.Contains(t, out, "SKIP  Contract RC-2: "+ErrAlreadyRecognized.Error())
	assert.Contains(t, out, "ERROR Contract RC-3: ledger down")
	assert.Contains(t, out, "   - Total Revenue Recognized: AED 476.20")
	assert.Contains(t, out, "   - Errors: 1 contract(s)")
	assert.Contains(t, out, "Some contracts had errors")
}
