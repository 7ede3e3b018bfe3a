package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecognitionKind distinguishes revenue from VAT recognition
type RecognitionKind string

const (
	RecognitionKindRevenue RecognitionKind = "revenue"
	RecognitionKindVAT     RecognitionKind = "vat"
)

// RecognitionKinds lists kinds in posting order
var RecognitionKinds = []RecognitionKind{RecognitionKindRevenue, RecognitionKindVAT}

// RecognitionEntry records that one day of a contract has been recognised for a kind.
// (contract_id, kind, day_number) is unique; day numbers are contiguous from 1.
type RecognitionEntry struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID      string          `gorm:"type:uuid;not null;uniqueIndex:idx_recognition_day,priority:1" json:"contract_id"`
	Kind            RecognitionKind `gorm:"size:10;not null;uniqueIndex:idx_recognition_day,priority:2" json:"kind"`
	DayNumber       int             `gorm:"not null;uniqueIndex:idx_recognition_day,priority:3" json:"day_number"`
	RecognitionDate time.Time       `gorm:"type:date;not null" json:"recognition_date"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	TransactionID   string          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RecognitionEntry) TableName() string {
	return "recognition_entries"
}

func (e *RecognitionEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Narration builds the ledger narration for a recognised day
func (k RecognitionKind) Narration(contractNumber string, dayNumber int) string {
	switch k {
	case RecognitionKindVAT:
		return fmt.Sprintf("VAT recognition for Contract %s - Day %d", contractNumber, dayNumber)
	default:
		return fmt.Sprintf("Revenue recognition for Contract %s - Day %d", contractNumber, dayNumber)
	}
}

// RecognitionEntryResponse is the JSON response format for recognition entries
type RecognitionEntryResponse struct {
	ID              string          `json:"id"`
	Kind            RecognitionKind `json:"kind"`
	DayNumber       int             `json:"day_number"`
	RecognitionDate string          `json:"recognition_date"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionID   string          `json:"transaction_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToResponse converts RecognitionEntry to RecognitionEntryResponse
func (e *RecognitionEntry) ToResponse() RecognitionEntryResponse {
	return RecognitionEntryResponse{
		ID:              e.ID,
		Kind:            e.Kind,
		DayNumber:       e.DayNumber,
		RecognitionDate: e.RecognitionDate.Format("2006-01-02"),
		Amount:          e.Amount,
		TransactionID:   e.TransactionID,
		CreatedAt:       e.CreatedAt,
	}
}
