package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/ledger"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger is an in-memory UnitOfWork. Writes made inside Transaction are
// staged and only committed when fn returns nil.
type fakeLedger struct {
	entries []models.RecognitionEntry
	staged  []models.RecognitionEntry

	failOn func(kind models.RecognitionKind, day int) error
	locks  int
}

func (f *fakeLedger) Transaction(ctx context.Context, fn func(l RecognitionLedger) error) error {
	f.staged = nil
	if err := fn(f); err != nil {
		f.staged = nil
		return err
	}
	f.entries = append(f.entries, f.staged...)
	f.staged = nil
	return nil
}

func (f *fakeLedger) LockContract(ctx context.Context, contract *models.Contract) error {
	f.locks++
	return nil
}

func (f *fakeLedger) CountRecognizedDays(ctx context.Context, contract *models.Contract, kind models.RecognitionKind) (int, error) {
	n := 0
	for _, e := range f.entries {
		if e.ContractID == contract.ID && e.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) RecordDailyRevenueRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	return f.record(contract, models.RecognitionKindRevenue, date, day, amount)
}

func (f *fakeLedger) RecordDailyVATRecognition(ctx context.Context, contract *models.Contract, accounts *ContractAccounts, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	return f.record(contract, models.RecognitionKindVAT, date, day, amount)
}

func (f *fakeLedger) record(contract *models.Contract, kind models.RecognitionKind, date time.Time, day int, amount decimal.Decimal) (*models.RecognitionEntry, error) {
	if f.failOn != nil {
		if err := f.failOn(kind, day); err != nil {
			return nil, err
		}
	}
	entry := models.RecognitionEntry{ContractID: contract.ID, Kind: kind, DayNumber: day, RecognitionDate: date, Amount: amount}
	f.staged = append(f.staged, entry)
	return &entry, nil
}

func (f *fakeLedger) seed(contractID string, kind models.RecognitionKind, days int, amount string) {
	for day := 1; day <= days; day++ {
		f.entries = append(f.entries, models.RecognitionEntry{ContractID: contractID, Kind: kind, DayNumber: day, Amount: decimal.RequireFromString(amount)})
	}
}

func (f *fakeLedger) kindEntries(kind models.RecognitionKind) []models.RecognitionEntry {
	var out []models.RecognitionEntry
	for _, e := range f.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeResolver struct {
	calls int
	err   error
}

func (r *fakeResolver) ResolveForContract(ctx context.Context, contract *models.Contract) (*ContractAccounts, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &ContractAccounts{
		Deposits:      &models.Account{ID: "deposits", Code: "2102"},
		RentalIncome:  &models.Account{ID: "income", Code: "4001"},
		VATCollection: &models.Account{ID: "vat-collection", Code: "2103"},
		VATPayable:    &models.Account{ID: "vat-payable", Code: "2200"},
	}, nil
}

var dubai = mustLocation("Asia/Dubai")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testPolicy() RecognitionPolicy {
	return RecognitionPolicy{Location: dubai, VATRate: decimal.RequireFromString("0.05")}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, dubai)
}

// tenDayContract is 1000.00 over 2025-01-01..2025-01-10, VAT inclusive
func tenDayContract() *models.Contract {
	entityID := "entity-1"
	return &models.Contract{
		ID:             "contract-1",
		ContractNumber: "RC-0001",
		EntityID:       &entityID,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, dubai),
		EndDate:        time.Date(2025, 1, 10, 0, 0, 0, 0, dubai),
		TotalAmount:    decimal.RequireFromString("1000.00"),
		TotalDays:      10,
		Currency:       "AED",
		Status:         models.ContractStatusActive,
	}
}

func TestSplitVAT(t *testing.T) {
	rate := decimal.RequireFromString("0.05")

	net, vat := SplitVAT(decimal.RequireFromString("100.00"), true, rate)
	assert.Equal(t, "95.24", net.StringFixed(2))
	assert.Equal(t, "4.76", vat.StringFixed(2))

	net, vat = SplitVAT(decimal.RequireFromString("100.00"), false, rate)
	assert.Equal(t, "100.00", net.StringFixed(2))
	assert.Equal(t, "5.00", vat.StringFixed(2))

	net, vat = SplitVAT(decimal.RequireFromString("100.00"), true, decimal.Zero)
	assert.Equal(t, "100.00", net.StringFixed(2))
	assert.True(t, vat.IsZero())
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		asOf        time.Time
		recognized  int
		wantElapsed int
		wantFirst   int
		wantDays    int
		wantErr     error
	}{
		{name: "before start", asOf: day(2024, 12, 31), wantErr: ErrNotStarted},
		{name: "first day", asOf: day(2025, 1, 1), wantElapsed: 1, wantFirst: 1, wantDays: 1},
		{name: "mid contract", asOf: day(2025, 1, 5), wantElapsed: 5, wantFirst: 1, wantDays: 5},
		{name: "resumes after recognised days", asOf: day(2025, 1, 5), recognized: 3, wantElapsed: 5, wantFirst: 4, wantDays: 2},
		{name: "last day", asOf: day(2025, 1, 10), wantElapsed: 10, wantFirst: 1, wantDays: 10},
		{name: "after end is capped", asOf: day(2025, 2, 1), recognized: 5, wantElapsed: 10, wantFirst: 6, wantDays: 5},
		{name: "fully recognised", asOf: day(2025, 2, 1), recognized: 10, wantElapsed: 10, wantDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := Plan(tenDayContract(), tt.asOf, testPolicy(), tt.recognized, tt.recognized)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantElapsed, schedule.DaysElapsed)
			assert.Len(t, schedule.Revenue, tt.wantDays)
			assert.Len(t, schedule.VAT, tt.wantDays)
			if tt.wantDays > 0 {
				first := schedule.Revenue[0]
				assert.Equal(t, tt.wantFirst, first.Day)
				assert.Equal(t, time.Date(2025, 1, tt.wantFirst, 0, 0, 0, 0, time.UTC), first.Date)
			}
		})
	}
}

func TestPlan_UsesBusinessTimezone(t *testing.T) {
	contract := tenDayContract()

	// 2024-12-31 21:00 UTC is already 2025-01-01 in Dubai
	schedule, err := Plan(contract, time.Date(2024, 12, 31, 21, 0, 0, 0, time.UTC), testPolicy(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.DaysElapsed)

	_, err = Plan(contract, time.Date(2024, 12, 31, 19, 0, 0, 0, time.UTC), testPolicy(), 0, 0)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestPlan_InvalidContract(t *testing.T) {
	contract := tenDayContract()
	contract.TotalDays = 0
	_, err := Plan(contract, day(2025, 1, 5), testPolicy(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidContract)

	contract = tenDayContract()
	contract.EndDate = contract.StartDate.AddDate(0, 0, -1)
	_, err = Plan(contract, day(2025, 1, 5), testPolicy(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidContract)
}

func TestPlan_NonPositiveDailyRate(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{name: "negative total", amount: "-100.00"},
		{name: "zero total", amount: "0.00"},
		{name: "under a cent per day", amount: "0.04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := tenDayContract()
			contract.TotalAmount = decimal.RequireFromString(tt.amount)

			schedule, err := Plan(contract, day(2025, 1, 5), testPolicy(), 0, 0)
			assert.Nil(t, schedule)
			assert.ErrorIs(t, err, ErrInvalidContract)
			assert.ErrorIs(t, err, ledger.ErrUnbalancedEntry)
			assert.False(t, IsSkip(err))
		})
	}
}

func TestPlan_ElapsedNeverExceedsTotalDays(t *testing.T) {
	contract := tenDayContract()
	contract.TotalDays = 7 // billed for fewer days than the calendar span

	schedule, err := Plan(contract, day(2025, 1, 9), testPolicy(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, schedule.DaysElapsed)
	assert.Len(t, schedule.Revenue, 7)
}

func TestRecognize_PostsElapsedDays(t *testing.T) {
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())

	result, err := engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.Equal(t, 5, result.Days)
	assert.Equal(t, "476.20", result.Amount.StringFixed(2))
	assert.Equal(t, 5, result.VATDays)
	assert.Equal(t, "23.80", result.VATAmount.StringFixed(2))
	assert.Equal(t, 1, store.locks)

	revenue := store.kindEntries(models.RecognitionKindRevenue)
	require.Len(t, revenue, 5)
	for i, e := range revenue {
		assert.Equal(t, i+1, e.DayNumber)
		assert.Equal(t, "95.24", e.Amount.StringFixed(2))
	}
	vat := store.kindEntries(models.RecognitionKindVAT)
	require.Len(t, vat, 5)
	assert.Equal(t, "4.76", vat[0].Amount.StringFixed(2))
}

func TestRecognize_RerunIsSkipped(t *testing.T) {
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())
	ctx := context.Background()

	_, err := engine.Recognize(ctx, tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)

	result, err := engine.Recognize(ctx, tenDayContract(), day(2025, 1, 5))
	assert.ErrorIs(t, err, ErrAlreadyRecognized)
	assert.False(t, result.Processed)
	assert.Len(t, store.entries, 10)
}

func TestRecognize_CatchesUpAfterEnd(t *testing.T) {
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())
	ctx := context.Background()

	_, err := engine.Recognize(ctx, tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)

	result, err := engine.Recognize(ctx, tenDayContract(), day(2025, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Days)
	assert.Equal(t, "476.20", result.Amount.StringFixed(2))

	revenue := store.kindEntries(models.RecognitionKindRevenue)
	require.Len(t, revenue, 10)
	assert.Equal(t, 6, revenue[5].DayNumber)
	assert.Equal(t, 10, revenue[9].DayNumber)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), revenue[9].RecognitionDate)

	_, err = engine.Recognize(ctx, tenDayContract(), day(2025, 3, 1))
	assert.ErrorIs(t, err, ErrAlreadyRecognized)
}

func TestRecognize_NotStarted(t *testing.T) {
	store := &fakeLedger{}
	resolver := &fakeResolver{}
	engine := NewRevenueRecognitionService(store, resolver, testPolicy())

	_, err := engine.Recognize(context.Background(), tenDayContract(), day(2024, 12, 20))
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.True(t, IsSkip(err))
	assert.Zero(t, resolver.calls)
	assert.Empty(t, store.entries)
}

func TestRecognize_VATExclusive(t *testing.T) {
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())

	contract := tenDayContract()
	exclusive := false
	contract.IsVATInclusive = &exclusive

	result, err := engine.Recognize(context.Background(), contract, day(2025, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, "200.00", result.Amount.StringFixed(2))
	assert.Equal(t, "10.00", result.VATAmount.StringFixed(2))
}

func TestRecognize_ZeroVATRatePostsRevenueOnly(t *testing.T) {
	store := &fakeLedger{}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, RecognitionPolicy{Location: dubai, VATRate: decimal.Zero})

	result, err := engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Days)
	assert.Equal(t, "300.00", result.Amount.StringFixed(2))
	assert.Zero(t, result.VATDays)
	assert.Empty(t, store.kindEntries(models.RecognitionKindVAT))
}

func TestRecognize_FailureRollsBackContract(t *testing.T) {
	boom := errors.New("insert failed")
	store := &fakeLedger{
		failOn: func(kind models.RecognitionKind, day int) error {
			if kind == models.RecognitionKindVAT && day == 3 {
				return boom
			}
			return nil
		},
	}
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())

	result, err := engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 5))
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Processed)
	assert.Empty(t, store.entries)

	store.failOn = nil
	result, err = engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Days)
	assert.Equal(t, 5, result.VATDays)
}

func TestRecognize_RepairsVATBehindRevenue(t *testing.T) {
	store := &fakeLedger{}
	store.seed("contract-1", models.RecognitionKindRevenue, 5, "95.24")
	store.seed("contract-1", models.RecognitionKindVAT, 3, "4.76")
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())

	result, err := engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)
	assert.Zero(t, result.Days)
	assert.True(t, result.Amount.IsZero())
	assert.Equal(t, 2, result.VATDays)
	assert.Equal(t, "9.52", result.VATAmount.StringFixed(2))

	vat := store.kindEntries(models.RecognitionKindVAT)
	require.Len(t, vat, 5)
	assert.Equal(t, 4, vat[3].DayNumber)
}

func TestRecognize_ResolverFailure(t *testing.T) {
	store := &fakeLedger{}
	resolverErr := errors.New("no entity")
	engine := NewRevenueRecognitionService(store, &fakeResolver{err: resolverErr}, testPolicy())

	_, err := engine.Recognize(context.Background(), tenDayContract(), day(2025, 1, 5))
	assert.ErrorIs(t, err, resolverErr)
	assert.False(t, IsSkip(err))
	assert.Zero(t, store.locks)
	assert.Empty(t, store.entries)
}

func TestPreview_DoesNotPost(t *testing.T) {
	store := &fakeLedger{}
	store.seed("contract-1", models.RecognitionKindRevenue, 2, "95.24")
	store.seed("contract-1", models.RecognitionKindVAT, 2, "4.76")
	engine := NewRevenueRecognitionService(store, &fakeResolver{}, testPolicy())

	schedule, err := engine.Preview(context.Background(), tenDayContract(), day(2025, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, 3, len(schedule.Revenue))
	assert.Equal(t, "285.72", schedule.RevenueTotal().StringFixed(2))
	assert.Equal(t, "14.28", schedule.VATTotal().StringFixed(2))
	assert.Len(t, store.entries, 4)
}
