package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
)

// ContractAccounts are the four accounts a contract posts recognition to
type ContractAccounts struct {
	Deposits      *models.Account // debit side of revenue
	RentalIncome  *models.Account // credit side of revenue
	VATCollection *models.Account // debit side of VAT
	VATPayable    *models.Account // credit side of VAT
}

// AccountResolver maps business account kinds to ledger accounts of an entity,
// creating the default chart entry the first time a kind is needed.
type AccountResolver struct {
	accounts repository.AccountRepository

	mu    sync.RWMutex
	cache map[string]*models.Account
}

// NewAccountResolver creates a resolver backed by the account repository
func NewAccountResolver(accounts repository.AccountRepository) *AccountResolver {
	return &AccountResolver{
		accounts: accounts,
		cache:    make(map[string]*models.Account),
	}
}

// Resolve returns the entity's account for kind
func (r *AccountResolver) Resolve(ctx context.Context, entity *models.Entity, kind models.AccountKind) (*models.Account, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: entity is missing", ErrAccountResolution)
	}
	currency := entity.DefaultCurrency()
	if currency == "" {
		return nil, fmt.Errorf("%w: entity %s has no currency", ErrAccountResolution, entity.ID)
	}
	tmpl, ok := models.DefaultChart[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown account kind %q", ErrAccountResolution, kind)
	}

	key := entity.ID + "/" + tmpl.Code
	if account := r.cached(key); account != nil {
		return account, nil
	}

	account, err := r.accounts.FirstOrCreate(ctx, &models.Account{
		EntityID:     entity.ID,
		Code:         tmpl.Code,
		Name:         tmpl.Name,
		AccountType:  tmpl.AccountType,
		CurrencyCode: currency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrAccountResolution, kind, tmpl.Code, err)
	}

	r.store(key, account)
	return account, nil
}

// ResolveForContract returns the accounts for a contract. Branch account
// overrides take precedence over the entity defaults.
func (r *AccountResolver) ResolveForContract(ctx context.Context, contract *models.Contract) (*ContractAccounts, error) {
	if contract.Entity == nil {
		return nil, fmt.Errorf("%w: contract %s has no entity", ErrAccountResolution, contract.ContractNumber)
	}
	entity := contract.Entity

	var overrides struct{ deposits, vatCollection, vatPayable *string }
	if b := contract.Branch; b != nil {
		overrides.deposits = b.DepositsAccountID
		overrides.vatCollection = b.VATCollectionAccountID
		overrides.vatPayable = b.VATPayableAccountID
	}

	var (
		accounts ContractAccounts
		err      error
	)
	if accounts.Deposits, err = r.resolveOverride(ctx, entity, overrides.deposits, models.AccountKindCustomerDeposits); err != nil {
		return nil, err
	}
	if accounts.RentalIncome, err = r.Resolve(ctx, entity, models.AccountKindRentalIncome); err != nil {
		return nil, err
	}
	if accounts.VATCollection, err = r.resolveOverride(ctx, entity, overrides.vatCollection, models.AccountKindVATCollection); err != nil {
		return nil, err
	}
	if accounts.VATPayable, err = r.resolveOverride(ctx, entity, overrides.vatPayable, models.AccountKindVATPayable); err != nil {
		return nil, err
	}
	return &accounts, nil
}

func (r *AccountResolver) resolveOverride(ctx context.Context, entity *models.Entity, accountID *string, kind models.AccountKind) (*models.Account, error) {
	if accountID == nil || *accountID == "" {
		return r.Resolve(ctx, entity, kind)
	}

	key := "id/" + *accountID
	if account := r.cached(key); account != nil {
		return account, nil
	}

	account, err := r.accounts.FindByID(ctx, *accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: branch %s account %s: %w", ErrAccountResolution, kind, *accountID, err)
	}
	if account.EntityID != entity.ID {
		return nil, fmt.Errorf("%w: branch %s account %s belongs to another entity", ErrAccountResolution, kind, *accountID)
	}

	r.store(key, account)
	return account, nil
}

func (r *AccountResolver) cached(key string) *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[key]
}

func (r *AccountResolver) store(key string, account *models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = account
}
