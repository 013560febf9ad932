package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	UserID    *uint     `gorm:"index" json:"user_id"` // nil for system-initiated actions
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, ADJUST, ALLOCATE, BATCH_RUN
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Invoice, Payment, Adjustment
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
