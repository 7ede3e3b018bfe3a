package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a general ledger account
type Account struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_entity_code,priority:1" json:"entity_id"`
	Code         string    `gorm:"size:20;not null;uniqueIndex:idx_accounts_entity_code,priority:2" json:"code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	AccountType  string    `gorm:"size:40;not null;index" json:"account_type"`
	CurrencyCode string    `gorm:"size:3;not null" json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Account type constants
const (
	AccountTypeOperatingRevenue = "operating_revenue"
	AccountTypeCurrentLiability = "current_liability"
	AccountTypeCurrentAsset     = "current_asset"
)

// AccountKind names the business role an account plays in recognition postings
type AccountKind string

const (
	AccountKindRentalIncome     AccountKind = "rental_income"
	AccountKindCustomerDeposits AccountKind = "customer_deposits"
	AccountKindVATCollection    AccountKind = "vat_collection"
	AccountKindVATPayable       AccountKind = "vat_payable"
)

// AccountTemplate describes the default chart entry created for a kind
type AccountTemplate struct {
	Code        string
	Name        string
	AccountType string
}

// DefaultChart maps each kind to its stable chart-of-accounts entry
var DefaultChart = map[AccountKind]AccountTemplate{
	AccountKindRentalIncome:     {Code: "4001", Name: "Rental Revenue", AccountType: AccountTypeOperatingRevenue},
	AccountKindCustomerDeposits: {Code: "2102", Name: "Customer Deposits - Unearned Revenue", AccountType: AccountTypeCurrentLiability},
	AccountKindVATCollection:    {Code: "2103", Name: "VAT Collection", AccountType: AccountTypeCurrentLiability},
	AccountKindVATPayable:       {Code: "2200", Name: "VAT Payable", AccountType: AccountTypeCurrentLiability},
}
