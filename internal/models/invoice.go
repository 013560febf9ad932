package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents one billing obligation for one student covering a period.
// Invoices are never physically deleted; corrections reference the original
// via ParentInvoiceID.
type Invoice struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TenantID           uint            `gorm:"not null;index:idx_invoices_tenant_student;uniqueIndex:idx_invoices_tenant_number" json:"tenant_id"`
	StudentID          uint            `gorm:"not null;index:idx_invoices_tenant_student" json:"student_id"`
	InvoiceNumber      string          `gorm:"size:30;not null;uniqueIndex:idx_invoices_tenant_number" json:"invoice_number"`
	InvoiceType        string          `gorm:"size:20;default:monthly;not null;index" json:"invoice_type"`
	BillingPeriodStart time.Time       `gorm:"type:date;not null;index" json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `gorm:"type:date;not null" json:"billing_period_end"`
	IssueDate          time.Time       `gorm:"type:date;not null;index" json:"issue_date"`
	DueDate            time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount"`
	LateFee            decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"late_fee"`
	Adjustments        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"adjustments"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	AmountPaid         decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"amount_paid"`
	BalanceDue         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_due"`
	Status             string          `gorm:"size:10;default:sent;not null;index" json:"status"`
	ParentInvoiceID    *uint           `gorm:"index" json:"parent_invoice_id,omitempty"`
	Notes              *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedByUserID    *uint           `json:"created_by_user_id,omitempty"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// A partial unique index on (tenant_id, student_id, billing_period_start)
	// WHERE invoice_type = 'monthly' backs the batch idempotency guard; it is
	// created in database.Migrate since gorm tags cannot express the predicate.
	Student     Student             `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Allocations []PaymentAllocation `gorm:"foreignKey:InvoiceID" json:"allocations,omitempty"`
	Audit       []InvoiceAdjustment `gorm:"foreignKey:InvoiceID" json:"adjustment_records,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice type constants
const (
	InvoiceTypeMonthly    = "monthly"
	InvoiceTypeProrated   = "prorated"
	InvoiceTypeCustom     = "custom"
	InvoiceTypeMultiMonth = "multi_month"
	InvoiceTypeAdjustment = "adjustment"
)

// Invoice status constants. Status is always derived, never set directly.
const (
	InvoiceStatusSent    = "sent"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// DeriveInvoiceStatus is the single source of truth for invoice status:
// paid when nothing is owed, partial when some amount has been received,
// overdue when unpaid past the due date, sent otherwise.
func DeriveInvoiceStatus(total, amountPaid decimal.Decimal, dueDate, now time.Time) string {
	balance := total.Sub(amountPaid)
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return InvoiceStatusPartial
	case now.After(dueDate):
		return InvoiceStatusOverdue
	default:
		return InvoiceStatusSent
	}
}

// RecalcDerived recomputes BalanceDue and Status from Total and AmountPaid.
// Every mutation path (allocation, adjustment) must call this before saving.
func (i *Invoice) RecalcDerived(now time.Time) {
	balance := i.Total.Sub(i.AmountPaid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	i.BalanceDue = balance
	i.Status = DeriveInvoiceStatus(i.Total, i.AmountPaid, i.DueDate, now)
}

// AppendNote appends a line to the invoice notes, creating them if absent.
func (i *Invoice) AppendNote(note string) {
	if note == "" {
		return
	}
	if i.Notes == nil || *i.Notes == "" {
		i.Notes = &note
		return
	}
	combined := *i.Notes + "\n" + note
	i.Notes = &combined
}

// IsOpen returns true if the invoice still carries a balance.
func (i *Invoice) IsOpen() bool {
	return i.BalanceDue.GreaterThan(decimal.Zero)
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID                 uint            `json:"id"`
	StudentID          uint            `json:"student_id"`
	StudentName        string          `json:"student_name,omitempty"`
	InvoiceNumber      string          `json:"invoice_number"`
	InvoiceType        string          `json:"invoice_type"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
	IssueDate          time.Time       `json:"issue_date"`
	DueDate            time.Time       `json:"due_date"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	LateFee            decimal.Decimal `json:"late_fee"`
	Adjustments        decimal.Decimal `json:"adjustments"`
	Total              decimal.Decimal `json:"total"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	BalanceDue         decimal.Decimal `json:"balance_due"`
	Status             string          `json:"status"`
	ParentInvoiceID    *uint           `json:"parent_invoice_id,omitempty"`
	Notes              *string         `json:"notes,omitempty"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	resp := InvoiceResponse{
		ID:                 i.ID,
		StudentID:          i.StudentID,
		InvoiceNumber:      i.InvoiceNumber,
		InvoiceType:        i.InvoiceType,
		BillingPeriodStart: i.BillingPeriodStart,
		BillingPeriodEnd:   i.BillingPeriodEnd,
		IssueDate:          i.IssueDate,
		DueDate:            i.DueDate,
		Subtotal:           i.Subtotal,
		Discount:           i.Discount,
		LateFee:            i.LateFee,
		Adjustments:        i.Adjustments,
		Total:              i.Total,
		AmountPaid:         i.AmountPaid,
		BalanceDue:         i.BalanceDue,
		Status:             i.Status,
		ParentInvoiceID:    i.ParentInvoiceID,
		Notes:              i.Notes,
	}

	if i.Student.ID != 0 {
		resp.StudentName = i.Student.FullName
	}

	return resp
}
