package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository defines the interface for ledger and recognition data access
type LedgerRepository interface {
	FindOrCreateReportingPeriod(ctx context.Context, entityID string, year int) (*models.ReportingPeriod, error)
	CreateTransaction(ctx context.Context, txn *models.LedgerTransaction) error
	FindTransaction(ctx context.Context, id string) (*models.LedgerTransaction, error)
	AccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	CountRecognized(ctx context.Context, contractID string, kind models.RecognitionKind) (int, error)
	CreateRecognitionEntry(ctx context.Context, entry *models.RecognitionEntry) error
	FindRecognitionEntries(ctx context.Context, contractID string) ([]models.RecognitionEntry, error)
	LockContract(ctx context.Context, contractID string) error
}

// ledgerRepository handles database operations for the general ledger
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// FindOrCreateReportingPeriod returns the entity's period for year, opening it if missing
func (r *ledgerRepository) FindOrCreateReportingPeriod(ctx context.Context, entityID string, year int) (*models.ReportingPeriod, error) {
	period := &models.ReportingPeriod{
		EntityID:     entityID,
		CalendarYear: year,
		Status:       models.PeriodStatusOpen,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "calendar_year"}},
			DoNothing: true,
		}).
		Create(period).Error
	if err != nil {
		return nil, err
	}

	var existing models.ReportingPeriod
	err = r.db.WithContext(ctx).
		Where("entity_id = ? AND calendar_year = ?", entityID, year).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// CreateTransaction writes the transaction and its line items in one (nested) transaction
func (r *ledgerRepository) CreateTransaction(ctx context.Context, txn *models.LedgerTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("LineItems").Create(txn).Error; err != nil {
			return err
		}
		for i := range txn.LineItems {
			txn.LineItems[i].TransactionID = txn.ID
		}
		return tx.Create(&txn.LineItems).Error
	})
}

func (r *ledgerRepository) FindTransaction(ctx context.Context, id string) (*models.LedgerTransaction, error) {
	var txn models.LedgerTransaction
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("credited ASC")
		}).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// AccountBalance returns debits minus credits posted to an account
func (r *ledgerRepository) AccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var items []models.LineItem
	err := r.db.WithContext(ctx).
		Select("amount", "credited").
		Where("account_id = ?", accountID).
		Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, item := range items {
		if item.Credited {
			balance = balance.Sub(item.Amount)
		} else {
			balance = balance.Add(item.Amount)
		}
	}
	return balance, nil
}

// CountRecognized counts the days already recognised for a contract and kind
func (r *ledgerRepository) CountRecognized(ctx context.Context, contractID string, kind models.RecognitionKind) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RecognitionEntry{}).
		Where("contract_id = ? AND kind = ?", contractID, kind).
		Count(&count).Error
	return int(count), err
}

// CreateRecognitionEntry inserts an entry; the unique (contract_id, kind, day_number)
// index rejects a day that was already recognised.
func (r *ledgerRepository) CreateRecognitionEntry(ctx context.Context, entry *models.RecognitionEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindRecognitionEntries(ctx context.Context, contractID string) ([]models.RecognitionEntry, error) {
	var entries []models.RecognitionEntry
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("kind ASC, day_number ASC").
		Find(&entries).Error
	return entries, err
}

// LockContract takes a transaction-scoped advisory lock on the contract.
// It must run inside the transaction that does the posting. Databases other
// than Postgres rely on the unique recognition index alone.
func (r *ledgerRepository) LockContract(ctx context.Context, contractID string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", contractID).Error
}
