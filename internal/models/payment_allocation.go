package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAllocation records the portion of one payment applied to one
// invoice. Rows are written once and never mutated; together they form the
// audit trail of how every invoice reached its paid state.
type PaymentAllocation struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TenantID  uint            `gorm:"not null;index" json:"tenant_id"`
	PaymentID uint            `gorm:"not null;index" json:"payment_id"`
	InvoiceID uint            `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`

	// Associations
	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// TableName specifies the table name for PaymentAllocation
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// AllocationResponse is the JSON response format for allocations, joined
// with invoice and payment identifiers for ledger display.
type AllocationResponse struct {
	ID            uint            `json:"id"`
	PaymentID     uint            `json:"payment_id"`
	InvoiceID     uint            `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse converts PaymentAllocation to AllocationResponse
func (a *PaymentAllocation) ToResponse() AllocationResponse {
	resp := AllocationResponse{
		ID:        a.ID,
		PaymentID: a.PaymentID,
		InvoiceID: a.InvoiceID,
		Amount:    a.Amount,
		CreatedAt: a.CreatedAt,
	}

	if a.Invoice != nil {
		resp.InvoiceNumber = a.Invoice.InvoiceNumber
	}
	if a.Payment != nil {
		resp.ReceiptNumber = a.Payment.ReceiptNumber
	}

	return resp
}
