package repository

import (
	"context"

	"github.com/sjperalta/fintera-rentals/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository defines the interface for ledger account data access
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEntityAndCode(ctx context.Context, entityID, code string) (*models.Account, error)
	FirstOrCreate(ctx context.Context, account *models.Account) (*models.Account, error)
	ListByEntity(ctx context.Context, entityID string) ([]models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEntityAndCode(ctx context.Context, entityID, code string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("entity_id = ? AND code = ?", entityID, code).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FirstOrCreate inserts the account unless (entity_id, code) already exists,
// then returns the stored row. Concurrent callers converge on the same account.
func (r *accountRepository) FirstOrCreate(ctx context.Context, account *models.Account) (*models.Account, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(account).Error
	if err != nil {
		return nil, err
	}
	return r.FindByEntityAndCode(ctx, account.EntityID, account.Code)
}

func (r *accountRepository) ListByEntity(ctx context.Context, entityID string) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("code ASC").
		Find(&accounts).Error
	return accounts, err
}
