package repository

import (
	"context"
	"strings"

	"github.com/sjperalta/fintera-rentals/internal/models"
	"gorm.io/gorm"
)

// ContractRepository defines the interface for contract data access
type ContractRepository interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	FindActive(ctx context.Context, contractID string) ([]models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error)
}

// ContractQuery extends ListQuery with contract-specific filters
type ContractQuery struct {
	*ListQuery
	Status   string
	EntityID string
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).
		Preload("Entity").
		Preload("Branch").
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindActive returns every active contract, or only contractID when it is set.
// Entity and Branch are preloaded for account resolution.
func (r *contractRepository) FindActive(ctx context.Context, contractID string) ([]models.Contract, error) {
	var contracts []models.Contract
	db := r.db.WithContext(ctx).
		Preload("Entity").
		Preload("Branch").
		Where("status = ?", models.ContractStatusActive)
	if contractID != "" {
		db = db.Where("id = ?", contractID)
	}
	err := db.Order("contract_number ASC").Find(&contracts).Error
	return contracts, err
}

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Omit("Entity", "Branch").Save(contract).Error
}

func (r *contractRepository) List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contract{})

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.EntityID != "" {
		db = db.Where("entity_id = ?", query.EntityID)
	}
	if query.Search != "" {
		db = db.Where("LOWER(contract_number) LIKE ?", "%"+strings.ToLower(query.Search)+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("start_date DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&contracts).Error
	return contracts, total, err
}
