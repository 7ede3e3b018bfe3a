package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity is the reporting entity that owns a chart of accounts
type Entity struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	CurrencyCode *string   `gorm:"size:3" json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Entity
func (Entity) TableName() string {
	return "entities"
}

func (e *Entity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DefaultCurrency returns the entity currency code, or "" when not configured
func (e *Entity) DefaultCurrency() string {
	if e.CurrencyCode == nil {
		return ""
	}
	return *e.CurrencyCode
}

// Branch is a rental branch. The optional account ids override the entity
// defaults when recognising revenue for contracts of this branch.
type Branch struct {
	ID                     string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID               string    `gorm:"type:uuid;not null;index" json:"entity_id"`
	Name                   string    `gorm:"size:255;not null" json:"name"`
	DepositsAccountID      *string   `gorm:"type:uuid" json:"deposits_account_id"`
	VATCollectionAccountID *string   `gorm:"type:uuid;column:vat_collection_account_id" json:"vat_collection_account_id"`
	VATPayableAccountID    *string   `gorm:"type:uuid;column:vat_payable_account_id" json:"vat_payable_account_id"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName specifies the table name for Branch
func (Branch) TableName() string {
	return "branches"
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
