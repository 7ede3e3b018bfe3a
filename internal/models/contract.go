package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract represents a vehicle rental contract
type Contract struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	ContractNumber string          `gorm:"size:50;not null;uniqueIndex" json:"contract_number"`
	EntityID       *string         `gorm:"type:uuid;index" json:"entity_id"`
	BranchID       *string         `gorm:"type:uuid;index" json:"branch_id"`
	VehicleID      *string         `gorm:"type:uuid;index" json:"vehicle_id"`
	CustomerID     *string         `gorm:"type:uuid;index" json:"customer_id"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null" json:"end_date"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	TotalDays      int             `gorm:"not null;default:1" json:"total_days"`
	IsVATInclusive *bool           `gorm:"column:is_vat_inclusive;default:true" json:"is_vat_inclusive"`
	Currency       string          `gorm:"size:3;default:AED;not null" json:"currency"`
	Status         string          `gorm:"size:20;default:draft;index" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Entity *Entity `gorm:"foreignKey:EntityID" json:"entity,omitempty"`
	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
}

// TableName specifies the table name for Contract
func (Contract) TableName() string {
	return "contracts"
}

// BeforeCreate assigns a UUID when none was provided
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Contract status constants
const (
	ContractStatusDraft     = "draft"
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusVoid      = "void"
)

// MayActivate returns true if contract can transition to active
func (c *Contract) MayActivate() bool {
	return c.Status == ContractStatusDraft
}

// MayComplete returns true if contract can be completed
func (c *Contract) MayComplete() bool {
	return c.Status == ContractStatusActive
}

// MayVoid returns true if contract can be voided
func (c *Contract) MayVoid() bool {
	return c.Status == ContractStatusDraft || c.Status == ContractStatusActive
}

// IsActive reports whether the contract is eligible for revenue recognition
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// VATInclusive reports whether TotalAmount already contains VAT. Unset means inclusive.
func (c *Contract) VATInclusive() bool {
	if c.IsVATInclusive == nil {
		return true
	}
	return *c.IsVATInclusive
}

// BillableDays returns TotalDays, never less than one
func (c *Contract) BillableDays() int {
	if c.TotalDays < 1 {
		return 1
	}
	return c.TotalDays
}

// DailyRate is the per-day money unit used for recognition, rounded to cents
func (c *Contract) DailyRate() decimal.Decimal {
	return c.TotalAmount.Div(decimal.NewFromInt(int64(c.BillableDays()))).Round(2)
}

// ContractResponse is the JSON response format for contracts
type ContractResponse struct {
	ID             string          `json:"id"`
	ContractNumber string          `json:"contract_number"`
	EntityID       *string         `json:"entity_id"`
	BranchID       *string         `json:"branch_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalDays      int             `json:"total_days"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	IsVATInclusive bool            `json:"is_vat_inclusive"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToResponse converts Contract to ContractResponse
func (c *Contract) ToResponse() ContractResponse {
	return ContractResponse{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		EntityID:       c.EntityID,
		BranchID:       c.BranchID,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		TotalAmount:    c.TotalAmount,
		TotalDays:      c.TotalDays,
		DailyRate:      c.DailyRate(),
		IsVATInclusive: c.VATInclusive(),
		Currency:       c.Currency,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
