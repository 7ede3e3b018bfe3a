package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerTransaction is a double-entry journal transaction
type LedgerTransaction struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID          string     `gorm:"type:uuid;not null;index" json:"entity_id"`
	ReportingPeriodID string     `gorm:"type:uuid;not null;index" json:"reporting_period_id"`
	TransactionType   string     `gorm:"size:4;not null;default:JN" json:"transaction_type"`
	TransactionDate   time.Time  `gorm:"type:date;not null;index" json:"transaction_date"`
	Narration         string     `gorm:"size:500;not null;index" json:"narration"`
	CurrencyCode      string     `gorm:"size:3;not null" json:"currency_code"`
	CreatedAt         time.Time  `json:"created_at"`
	LineItems         []LineItem `gorm:"foreignKey:TransactionID" json:"line_items,omitempty"`
}

// TableName specifies the table name for LedgerTransaction
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

func (t *LedgerTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Transaction type constants
const (
	TransactionTypeJournal = "JN"
)

// IsBalanced reports whether debits equal credits and both sides are non-zero
func (t *LedgerTransaction) IsBalanced() bool {
	debits, credits := decimal.Zero, decimal.Zero
	for _, item := range t.LineItems {
		if item.Credited {
			credits = credits.Add(item.Amount)
		} else {
			debits = debits.Add(item.Amount)
		}
	}
	return debits.IsPositive() && debits.Equal(credits)
}

// LineItem is one side of a ledger transaction
type LineItem struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID string          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	AccountID     string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Credited      bool            `gorm:"not null" json:"credited"`
	Narration     string          `gorm:"size:500" json:"narration"`
}

// TableName specifies the table name for LineItem
func (LineItem) TableName() string {
	return "line_items"
}

func (l *LineItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ReportingPeriod is an annual accounting period of an entity
type ReportingPeriod struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_reporting_periods_entity_year,priority:1" json:"entity_id"`
	CalendarYear int       `gorm:"not null;uniqueIndex:idx_reporting_periods_entity_year,priority:2" json:"calendar_year"`
	Status       string    `gorm:"size:10;not null;default:open" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReportingPeriod
func (ReportingPeriod) TableName() string {
	return "reporting_periods"
}

func (p *ReportingPeriod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Reporting period status constants
const (
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
)

// IsOpen returns true if transactions may be posted into the period
func (p *ReportingPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}
