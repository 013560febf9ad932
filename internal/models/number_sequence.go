package models

import (
	"time"
)

// NumberSequence is a per-tenant counter backing invoice and receipt number
// generation. Rows are advanced with an atomic upsert (see
// repository.SequenceRepository), never with a read-then-write, so two
// concurrent callers can never observe the same value.
type NumberSequence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;uniqueIndex:idx_sequences_scope" json:"tenant_id"`
	Scope     string    `gorm:"size:15;not null;uniqueIndex:idx_sequences_scope" json:"scope"`
	Key       string    `gorm:"size:40;not null;uniqueIndex:idx_sequences_scope" json:"key"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for NumberSequence
func (NumberSequence) TableName() string {
	return "number_sequences"
}

// Sequence scope constants. The key is the year-month (YYYYMM) for invoice
// and advance-receipt scopes, and the anchoring invoice number for
// per-invoice receipt scopes.
const (
	SequenceScopeInvoice    = "invoice"
	SequenceScopeReceipt    = "receipt"
	SequenceScopeReceiptAdv = "receipt_adv"
)
