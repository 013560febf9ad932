package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents one funds-received event for a student. A payment is
// never tied to a single invoice directly; the link is the allocation rows.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TenantID          uint            `gorm:"not null;index:idx_payments_tenant_student;uniqueIndex:idx_payments_tenant_receipt" json:"tenant_id"`
	StudentID         uint            `gorm:"not null;index:idx_payments_tenant_student" json:"student_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method            string          `gorm:"size:20;not null" json:"method"`
	TransactionNumber *string         `gorm:"size:60" json:"transaction_number,omitempty"`
	ReceiptNumber     string          `gorm:"size:40;not null;uniqueIndex:idx_payments_tenant_receipt" json:"receipt_number"`
	Reference         string          `gorm:"size:36;not null" json:"reference"`
	ReceivedByUserID  *uint           `gorm:"index" json:"received_by_user_id,omitempty"`
	Source            string          `gorm:"size:10;default:manual;not null" json:"source"`
	PaymentDate       time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Status            string          `gorm:"size:12;default:completed;not null;index" json:"status"`
	Notes             *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Associations
	Student     Student             `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Allocations []PaymentAllocation `gorm:"foreignKey:PaymentID" json:"allocations,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment method constants
const (
	PaymentMethodCash          = "cash"
	PaymentMethodBankTransfer  = "bank_transfer"
	PaymentMethodCard          = "card"
	PaymentMethodCheque        = "cheque"
	PaymentMethodCreditBalance = "credit_balance"
)

// Payment status constants
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusVoided    = "voided"
)

// Payment source constants. SourceSystem marks rows written by the billing
// engine itself (credit application during batch invoicing) rather than a
// cashier, so ReceivedByUserID stays nil instead of a magic user id.
const (
	PaymentSourceManual = "manual"
	PaymentSourceSystem = "system"
)

// MayRefund returns true if the payment can transition to refunded
func (p *Payment) MayRefund() bool {
	return p.Status == PaymentStatusCompleted
}

// MayVoid returns true if the payment can be voided
func (p *Payment) MayVoid() bool {
	return p.Status == PaymentStatusCompleted
}

// RequiresTransactionNumber returns true for methods that must carry an
// external transaction reference.
func (p *Payment) RequiresTransactionNumber() bool {
	return p.Method == PaymentMethodBankTransfer
}

// IsSystem returns true for synthetic payments recorded by the billing engine.
func (p *Payment) IsSystem() bool {
	return p.Source == PaymentSourceSystem
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID                uint            `json:"id"`
	StudentID         uint            `json:"student_id"`
	StudentName       string          `json:"student_name,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	TransactionNumber *string         `json:"transaction_number,omitempty"`
	ReceiptNumber     string          `json:"receipt_number"`
	Reference         string          `json:"reference"`
	ReceivedByUserID  *uint           `json:"received_by_user_id,omitempty"`
	Source            string          `json:"source"`
	PaymentDate       time.Time       `json:"payment_date"`
	Status            string          `json:"status"`
	Notes             *string         `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID,
		StudentID:         p.StudentID,
		Amount:            p.Amount,
		Method:            p.Method,
		TransactionNumber: p.TransactionNumber,
		ReceiptNumber:     p.ReceiptNumber,
		Reference:         p.Reference,
		ReceivedByUserID:  p.ReceivedByUserID,
		Source:            p.Source,
		PaymentDate:       p.PaymentDate,
		Status:            p.Status,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
	}

	if p.Student.ID != 0 {
		resp.StudentName = p.Student.FullName
	}

	return resp
}
