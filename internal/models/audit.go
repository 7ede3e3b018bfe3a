package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:100;not null" json:"actor"` // user email, "scheduler" or "cli"
	Action    string    `gorm:"size:50;not null" json:"action"` // RECOGNIZE, ACTIVATE, COMPLETE, VOID
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Contract, RecognitionRun
	EntityID  string    `gorm:"size:64" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionRecognize = "RECOGNIZE"
	AuditActionActivate  = "ACTIVATE"
	AuditActionComplete  = "COMPLETE"
	AuditActionVoid      = "VOID"
)
