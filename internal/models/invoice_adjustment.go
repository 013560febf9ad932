package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceAdjustment is the immutable audit record of a manual change to an
// invoice after issuance. The Amount is always a positive magnitude; the
// direction of the delta is determined by the adjustment type.
type InvoiceAdjustment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TenantID        uint            `gorm:"not null;index" json:"tenant_id"`
	InvoiceID       uint            `gorm:"not null;index" json:"invoice_id"`
	AdjustmentType  string          `gorm:"size:15;not null" json:"adjustment_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason          string          `gorm:"type:text;not null" json:"reason"`
	AppliedByUserID uint            `gorm:"not null" json:"applied_by_user_id"`
	AppliedAt       time.Time       `gorm:"not null;index" json:"applied_at"`
	Notes           *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	// Associations
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// TableName specifies the table name for InvoiceAdjustment
func (InvoiceAdjustment) TableName() string {
	return "invoice_adjustments"
}

// Adjustment type constants
const (
	AdjustmentTypeDiscount   = "discount"
	AdjustmentTypeLateFee    = "late_fee"
	AdjustmentTypeManualEdit = "manual_edit"
	AdjustmentTypeRefund     = "refund"
	AdjustmentTypeWriteoff   = "writeoff"
)

// IsReduction returns true for adjustment types that remove value from the
// invoice total and accumulate into the invoice's adjustments field.
func (a *InvoiceAdjustment) IsReduction() bool {
	switch a.AdjustmentType {
	case AdjustmentTypeDiscount, AdjustmentTypeWriteoff, AdjustmentTypeRefund:
		return true
	}
	return false
}

// AdjustmentResponse is the JSON response format for adjustments
type AdjustmentResponse struct {
	ID              uint            `json:"id"`
	InvoiceID       uint            `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	AdjustmentType  string          `json:"adjustment_type"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	AppliedByUserID uint            `json:"applied_by_user_id"`
	AppliedAt       time.Time       `json:"applied_at"`
	Notes           *string         `json:"notes,omitempty"`
}

// ToResponse converts InvoiceAdjustment to AdjustmentResponse
func (a *InvoiceAdjustment) ToResponse() AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:              a.ID,
		InvoiceID:       a.InvoiceID,
		AdjustmentType:  a.AdjustmentType,
		Amount:          a.Amount,
		Reason:          a.Reason,
		AppliedByUserID: a.AppliedByUserID,
		AppliedAt:       a.AppliedAt,
		Notes:           a.Notes,
	}

	if a.Invoice != nil {
		resp.InvoiceNumber = a.Invoice.InvoiceNumber
	}

	return resp
}
