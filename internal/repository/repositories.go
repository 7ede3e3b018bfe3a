package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	db       *gorm.DB
	Contract ContractRepository
	Ledger   LedgerRepository
	Account  AccountRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		Contract: NewContractRepository(db),
		Ledger:   NewLedgerRepository(db),
		Account:  NewAccountRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls back everything fn wrote.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB returns the underlying connection
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
