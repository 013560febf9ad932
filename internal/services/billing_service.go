package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/jobs"
	"github.com/usamapuri/frontbench-api/internal/models"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"github.com/usamapuri/frontbench-api/internal/statemachine"
	"github.com/usamapuri/frontbench-api/pkg/logger"
	"gorm.io/gorm"
)

// PaymentMeta carries the cashier-facing details of a funds-received event.
type PaymentMeta struct {
	Method            string
	TransactionNumber *string
	PaymentDate       time.Time
	ReceivedBy        uint
	Notes             *string
}

// AdvancePaymentResult is returned by ProcessAdvancePayment.
type AdvancePaymentResult struct {
	Payment         models.Payment      `json:"payment"`
	Allocations     []InvoiceAllocation `json:"allocations"`
	RemainingCredit decimal.Decimal     `json:"remaining_credit"`
}

// PartialPaymentResult is returned by ProcessPartialPayment.
type PartialPaymentResult struct {
	Payment    models.Payment  `json:"payment"`
	Invoice    models.Invoice  `json:"invoice"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// AdjustmentResult is returned by ApplyInvoiceAdjustment.
type AdjustmentResult struct {
	Adjustment models.InvoiceAdjustment `json:"adjustment"`
	Invoice    models.Invoice           `json:"invoice"`
	Outcome    AdjustmentOutcome        `json:"outcome"`
}

// LedgerSummary aggregates a student's financial position.
type LedgerSummary struct {
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`
}

// StudentLedger is the consolidated read-only view of a student's account.
type StudentLedger struct {
	Summary     LedgerSummary              `json:"summary"`
	Invoices    []models.Invoice           `json:"invoices"`
	Payments    []models.Payment           `json:"payments"`
	Allocations []models.PaymentAllocation `json:"allocations"`
	Adjustments []models.InvoiceAdjustment `json:"adjustments"`
}

// BillingService orchestrates invoice generation, payment processing,
// adjustments and ledger assembly. Every mutating operation runs in a
// single database transaction with invoice rows locked for update, so the
// ledger never observes a payment without its allocations.
type BillingService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	audit   *AuditService
	worker  *jobs.Worker
	dueDays int
}

// NewBillingService creates a new billing service
func NewBillingService(db *gorm.DB, repos *repository.Repositories, audit *AuditService, worker *jobs.Worker, dueDays int) *BillingService {
	if dueDays <= 0 {
		dueDays = 7
	}
	return &BillingService{
		db:      db,
		repos:   repos,
		audit:   audit,
		worker:  worker,
		dueDays: dueDays,
	}
}

// GenerateMonthlyInvoices creates one monthly invoice per student with
// active enrollments for the calendar month containing targetDate. Students
// already billed for that period are silently skipped, which makes the
// batch safe to re-run. Existing student credit is consumed into the new
// invoice as a synthetic credit_balance payment plus allocation, so the
// ledger always explains how the invoice reached its paid amount.
func (s *BillingService) GenerateMonthlyInvoices(ctx context.Context, tenantID uint, targetDate time.Time, actorID uint) ([]models.Invoice, error) {
	if targetDate.IsZero() {
		targetDate = time.Now()
	}
	periodStart, periodEnd := monthPeriod(targetDate)

	students, err := s.repos.Directory.StudentsWithActiveEnrollments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load students with active enrollments: %w", err)
	}

	created := make([]models.Invoice, 0, len(students))
	skipped := 0

	for i := range students {
		student := &students[i]

		totalFee := decimal.Zero
		for _, e := range student.Enrollments {
			totalFee = totalFee.Add(e.Subject.BaseFee)
		}
		if !totalFee.GreaterThan(decimal.Zero) {
			continue
		}

		var invoice *models.Invoice
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			inv, err := s.billStudentForPeriod(ctx, s.repos.WithTx(tx), tenantID, student.ID, totalFee, periodStart, periodEnd, targetDate, actorID)
			if err != nil {
				return err
			}
			invoice = inv
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("bill student %d: %w", student.ID, err)
		}
		if invoice == nil {
			skipped++
			continue
		}
		created = append(created, *invoice)
	}

	logger.Info("Monthly invoice batch completed",
		"tenant_id", tenantID,
		"period_start", periodStart.Format("2006-01-02"),
		"created", len(created),
		"skipped", skipped,
	)

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, tenantID, actorID, "BATCH_RUN", "Invoice", 0,
			fmt.Sprintf("Monthly batch for %s: %d invoices created, %d students already billed",
				periodStart.Format("2006-01"), len(created), skipped), "", "")
	})

	return created, nil
}

// billStudentForPeriod creates one monthly invoice for the student unless
// the period is already billed, in which case it returns nil without
// touching anything. Must run inside a transaction.
func (s *BillingService) billStudentForPeriod(ctx context.Context, txRepos *repository.Repositories, tenantID, studentID uint, fee decimal.Decimal, periodStart, periodEnd, issueDate time.Time, actorID uint) (*models.Invoice, error) {
	exists, err := txRepos.Invoice.ExistsMonthlyForPeriod(ctx, tenantID, studentID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if exists {
		return nil, nil
	}

	return s.createInvoiceWithCredit(ctx, txRepos, tenantID, studentID, invoiceDraft{
		invoiceType: models.InvoiceTypeMonthly,
		periodStart: periodStart,
		periodEnd:   periodEnd,
		issueDate:   issueDate,
		subtotal:    fee,
		createdBy:   actorID,
	})
}

// invoiceDraft carries the parameters of a new invoice before numbering and
// credit application.
type invoiceDraft struct {
	invoiceType string
	periodStart time.Time
	periodEnd   time.Time
	issueDate   time.Time
	subtotal    decimal.Decimal
	notes       string
	createdBy   uint
}

// createInvoiceWithCredit creates an invoice and consumes any unallocated
// student credit against it, up to the invoice total. Must run inside a
// transaction.
func (s *BillingService) createInvoiceWithCredit(ctx context.Context, txRepos *repository.Repositories, tenantID, studentID uint, draft invoiceDraft) (*models.Invoice, error) {
	numbering := NewNumberingService(txRepos.Sequence)

	number, err := numbering.NextInvoiceNumber(ctx, tenantID, draft.issueDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &models.Invoice{
		TenantID:           tenantID,
		StudentID:          studentID,
		InvoiceNumber:      number,
		InvoiceType:        draft.invoiceType,
		BillingPeriodStart: draft.periodStart,
		BillingPeriodEnd:   draft.periodEnd,
		IssueDate:          draft.issueDate,
		DueDate:            draft.issueDate.AddDate(0, 0, s.dueDays),
		Subtotal:           draft.subtotal,
		Total:              draft.subtotal,
		AmountPaid:         decimal.Zero,
		BalanceDue:         draft.subtotal,
		Status:             models.InvoiceStatusSent,
	}
	if draft.createdBy != 0 {
		inv.CreatedByUserID = &draft.createdBy
	}
	inv.AppendNote(draft.notes)

	credit, err := txRepos.Payment.StudentCredit(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("compute student credit: %w", err)
	}
	applied := decimal.Min(credit, inv.Total)

	if err := txRepos.Invoice.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	if applied.GreaterThan(decimal.Zero) {
		receiptNumber, err := numbering.NextReceiptNumber(ctx, tenantID, inv.InvoiceNumber)
		if err != nil {
			return nil, err
		}

		note := fmt.Sprintf("credit balance applied to %s", inv.InvoiceNumber)
		creditPayment := &models.Payment{
			TenantID:      tenantID,
			StudentID:     studentID,
			Amount:        applied,
			Method:        models.PaymentMethodCreditBalance,
			ReceiptNumber: receiptNumber,
			Reference:     uuid.NewString(),
			Source:        models.PaymentSourceSystem,
			PaymentDate:   draft.issueDate,
			Status:        models.PaymentStatusCompleted,
			Notes:         &note,
		}
		if err := txRepos.Payment.Create(ctx, creditPayment); err != nil {
			return nil, fmt.Errorf("create credit application payment: %w", err)
		}

		allocation := &models.PaymentAllocation{
			TenantID:  tenantID,
			PaymentID: creditPayment.ID,
			InvoiceID: inv.ID,
			Amount:    applied,
		}
		if err := txRepos.Payment.CreateAllocation(ctx, allocation); err != nil {
			return nil, fmt.Errorf("create credit application allocation: %w", err)
		}

		inv.AmountPaid = inv.AmountPaid.Add(applied)
		inv.AppendNote(fmt.Sprintf("applied credit balance of %s", applied.StringFixed(2)))
		inv.RecalcDerived(now)
		if err := txRepos.Invoice.Update(ctx, inv); err != nil {
			return nil, fmt.Errorf("update invoice after credit application: %w", err)
		}
	}

	return inv, nil
}

// ProcessAdvancePayment records a payment that is not anchored to any single
// invoice, distributes it across the student's open invoices oldest first,
// and reports whatever is left as unallocated credit. A student with no
// open invoices simply accrues credit; that is not an error.
func (s *BillingService) ProcessAdvancePayment(ctx context.Context, tenantID, studentID uint, amount decimal.Decimal, meta PaymentMeta, ip, userAgent string) (*AdvancePaymentResult, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if err := validatePaymentMeta(&meta); err != nil {
		return nil, err
	}

	var result *AdvancePaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		if _, err := txRepos.Directory.FindStudent(ctx, tenantID, studentID); err != nil {
			return notFoundOr(err, "load student")
		}

		numbering := NewNumberingService(txRepos.Sequence)
		receiptNumber, err := numbering.NextAdvanceReceiptNumber(ctx, tenantID, meta.PaymentDate)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			TenantID:          tenantID,
			StudentID:         studentID,
			Amount:            amount,
			Method:            meta.Method,
			TransactionNumber: meta.TransactionNumber,
			ReceiptNumber:     receiptNumber,
			Reference:         uuid.NewString(),
			Source:            models.PaymentSourceManual,
			PaymentDate:       meta.PaymentDate,
			Status:            models.PaymentStatusCompleted,
			Notes:             meta.Notes,
		}
		if meta.ReceivedBy != 0 {
			payment.ReceivedByUserID = &meta.ReceivedBy
		}
		if err := txRepos.Payment.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		invoices, err := txRepos.Invoice.FindOpenByStudentForUpdate(ctx, tenantID, studentID)
		if err != nil {
			return fmt.Errorf("load open invoices: %w", err)
		}

		outcome := AllocateOldestFirst(amount, invoices)
		now := time.Now()

		for _, alloc := range outcome.Allocations {
			allocation := &models.PaymentAllocation{
				TenantID:  tenantID,
				PaymentID: payment.ID,
				InvoiceID: alloc.InvoiceID,
				Amount:    alloc.Amount,
			}
			if err := txRepos.Payment.CreateAllocation(ctx, allocation); err != nil {
				return fmt.Errorf("create allocation for invoice %s: %w", alloc.InvoiceNumber, err)
			}

			inv := &invoices[invoiceIndexByID(invoices, alloc.InvoiceID)]
			inv.AmountPaid = inv.AmountPaid.Add(alloc.Amount)
			inv.RecalcDerived(now)
			if err := txRepos.Invoice.Update(ctx, inv); err != nil {
				return fmt.Errorf("update invoice %s: %w", alloc.InvoiceNumber, err)
			}
		}

		result = &AdvancePaymentResult{
			Payment:         *payment,
			Allocations:     outcome.Allocations,
			RemainingCredit: outcome.Remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, tenantID, meta.ReceivedBy, "ALLOCATE", "Payment", result.Payment.ID,
			fmt.Sprintf("Advance payment %s of %s: %d invoice(s) covered, %s left as credit",
				result.Payment.ReceiptNumber, amount.StringFixed(2),
				len(result.Allocations), result.RemainingCredit.StringFixed(2)), ip, userAgent)
	})

	return result, nil
}

// ProcessPartialPayment records a payment against exactly one invoice.
// The amount must not exceed the invoice's balance due; the request is
// rejected before any record is written, never silently clamped.
func (s *BillingService) ProcessPartialPayment(ctx context.Context, tenantID, invoiceID uint, amount decimal.Decimal, meta PaymentMeta, ip, userAgent string) (*PartialPaymentResult, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if err := validatePaymentMeta(&meta); err != nil {
		return nil, err
	}

	var result *PartialPaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.applyPartialPayment(ctx, s.repos.WithTx(tx), tenantID, invoiceID, amount, meta)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, tenantID, meta.ReceivedBy, "ALLOCATE", "Payment", result.Payment.ID,
			fmt.Sprintf("Partial payment %s of %s against %s, new balance %s",
				result.Payment.ReceiptNumber, amount.StringFixed(2),
				result.Invoice.InvoiceNumber, result.NewBalance.StringFixed(2)), ip, userAgent)
	})

	return result, nil
}

// applyPartialPayment records the payment, its allocation and the updated
// invoice against a locked invoice row. The over-balance check runs against
// the locked balance so two concurrent payments cannot both pass it. Must
// run inside a transaction.
func (s *BillingService) applyPartialPayment(ctx context.Context, txRepos *repository.Repositories, tenantID, invoiceID uint, amount decimal.Decimal, meta PaymentMeta) (*PartialPaymentResult, error) {
	invoice, err := txRepos.Invoice.FindByIDForUpdate(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, notFoundOr(err, "load invoice")
	}

	if amount.GreaterThan(invoice.BalanceDue) {
		return nil, fmt.Errorf("%w: balance due is %s, got %s",
			ErrAmountExceedsBalance, invoice.BalanceDue.StringFixed(2), amount.StringFixed(2))
	}

	numbering := NewNumberingService(txRepos.Sequence)
	receiptNumber, err := numbering.NextReceiptNumber(ctx, tenantID, invoice.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		TenantID:          tenantID,
		StudentID:         invoice.StudentID,
		Amount:            amount,
		Method:            meta.Method,
		TransactionNumber: meta.TransactionNumber,
		ReceiptNumber:     receiptNumber,
		Reference:         uuid.NewString(),
		Source:            models.PaymentSourceManual,
		PaymentDate:       meta.PaymentDate,
		Status:            models.PaymentStatusCompleted,
		Notes:             meta.Notes,
	}
	if meta.ReceivedBy != 0 {
		payment.ReceivedByUserID = &meta.ReceivedBy
	}
	if err := txRepos.Payment.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	allocation := &models.PaymentAllocation{
		TenantID:  tenantID,
		PaymentID: payment.ID,
		InvoiceID: invoice.ID,
		Amount:    amount,
	}
	if err := txRepos.Payment.CreateAllocation(ctx, allocation); err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}

	invoice.AmountPaid = invoice.AmountPaid.Add(amount)
	invoice.RecalcDerived(time.Now())
	if err := txRepos.Invoice.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	return &PartialPaymentResult{
		Payment:    *payment,
		Invoice:    *invoice,
		NewBalance: invoice.BalanceDue,
	}, nil
}

// GenerateProRatedInvoice creates an invoice covering the remainder of the
// month for an enrollment starting mid-cycle. Existing credit is consumed
// the same way the monthly batch does it.
func (s *BillingService) GenerateProRatedInvoice(ctx context.Context, tenantID, studentID uint, enrollmentDate time.Time, isFullMonth bool, actorID uint) (*models.Invoice, error) {
	enrollments, err := s.repos.Directory.ActiveEnrollments(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, ErrNoActiveEnrollments
	}

	monthlyFee := decimal.Zero
	for _, e := range enrollments {
		monthlyFee = monthlyFee.Add(e.Subject.BaseFee)
	}

	prorated := ProrateMonthlyFee(monthlyFee, enrollmentDate, isFullMonth)
	_, periodEnd := monthPeriod(enrollmentDate)

	var invoice *models.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.createInvoiceWithCredit(ctx, s.repos.WithTx(tx), tenantID, studentID, invoiceDraft{
			invoiceType: models.InvoiceTypeProrated,
			periodStart: enrollmentDate,
			periodEnd:   periodEnd,
			issueDate:   enrollmentDate,
			subtotal:    prorated.Fee,
			notes:       prorated.Note,
			createdBy:   actorID,
		})
		if err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// ApplyInvoiceAdjustment applies a manual delta to an invoice and records
// the immutable audit row that explains it.
func (s *BillingService) ApplyInvoiceAdjustment(ctx context.Context, tenantID, invoiceID uint, input AdjustmentInput, ip, userAgent string) (*AdjustmentResult, error) {
	var result *AdjustmentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		invoice, err := txRepos.Invoice.FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return notFoundOr(err, "load invoice")
		}

		now := time.Now()
		outcome, err := applyAdjustment(invoice, input, now)
		if err != nil {
			return err
		}

		record := &models.InvoiceAdjustment{
			TenantID:        tenantID,
			InvoiceID:       invoice.ID,
			AdjustmentType:  input.Type,
			Amount:          input.Amount,
			Reason:          input.Reason,
			AppliedByUserID: input.AppliedBy,
			AppliedAt:       now,
			Notes:           input.Notes,
		}
		if err := txRepos.Adjustment.Create(ctx, record); err != nil {
			return fmt.Errorf("create adjustment record: %w", err)
		}

		if err := txRepos.Invoice.Update(ctx, invoice); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		result = &AdjustmentResult{
			Adjustment: *record,
			Invoice:    *invoice,
			Outcome:    outcome,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, tenantID, input.AppliedBy, "ADJUST", "Invoice", invoiceID,
			fmt.Sprintf("%s of %s applied to %s: %s",
				input.Type, input.Amount.StringFixed(2),
				result.Invoice.InvoiceNumber, input.Reason), ip, userAgent)
	})

	return result, nil
}

// ReversePayment refunds or voids a completed payment and backs its
// allocations out of the affected invoices. The allocation rows stay on
// record for the audit trail; only the invoice paid amounts move.
func (s *BillingService) ReversePayment(ctx context.Context, tenantID, paymentID uint, action, reason string, actorID uint, ip, userAgent string) (*models.Payment, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var payment *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		p, err := txRepos.Payment.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return notFoundOr(err, "load payment")
		}
		if p.IsSystem() {
			return fmt.Errorf("%w: credit applications cannot be reversed directly", ErrInvalidState)
		}

		machine := statemachine.NewPaymentFSM(p)
		switch action {
		case "refund":
			err = machine.Refund(ctx)
		case "void":
			err = machine.Void(ctx)
		default:
			return fmt.Errorf("%w: unknown reversal action %q", ErrInvalidState, action)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		allocations, err := txRepos.Payment.FindAllocationsByPayment(ctx, tenantID, p.ID)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}

		now := time.Now()
		for i := range allocations {
			invoice, err := txRepos.Invoice.FindByIDForUpdate(ctx, tenantID, allocations[i].InvoiceID)
			if err != nil {
				return notFoundOr(err, "load allocated invoice")
			}
			invoice.AmountPaid = invoice.AmountPaid.Sub(allocations[i].Amount)
			invoice.AppendNote(fmt.Sprintf("payment %s %sed: %s", p.ReceiptNumber, action, reason))
			invoice.RecalcDerived(now)
			if err := txRepos.Invoice.Update(ctx, invoice); err != nil {
				return fmt.Errorf("update invoice: %w", err)
			}
		}

		note := reason
		if p.Notes != nil && *p.Notes != "" {
			note = *p.Notes + "; " + reason
		}
		p.Notes = &note
		if err := txRepos.Payment.Update(ctx, p); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, tenantID, actorID, "REVERSE", "Payment", payment.ID,
			fmt.Sprintf("Payment %s %sed: %s", payment.ReceiptNumber, action, reason), ip, userAgent)
	})

	return payment, nil
}

// GetStudentLedger assembles the consolidated read-only view of a student's
// account. Students with no billing history yield empty collections and a
// zero summary rather than an error.
func (s *BillingService) GetStudentLedger(ctx context.Context, tenantID, studentID uint) (*StudentLedger, error) {
	if _, err := s.repos.Directory.FindStudent(ctx, tenantID, studentID); err != nil {
		return nil, notFoundOr(err, "load student")
	}

	invoices, err := s.repos.Invoice.FindByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	payments, err := s.repos.Payment.FindByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	allocations, err := s.repos.Payment.FindAllocationsByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}
	adjustments, err := s.repos.Adjustment.FindByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}
	credit, err := s.repos.Payment.StudentCredit(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("compute credit: %w", err)
	}

	summary := LedgerSummary{
		TotalInvoiced:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		CreditBalance:    credit,
	}
	for i := range invoices {
		summary.TotalInvoiced = summary.TotalInvoiced.Add(invoices[i].Total)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(invoices[i].BalanceDue)
	}
	for i := range payments {
		if payments[i].Status == models.PaymentStatusCompleted {
			summary.TotalPaid = summary.TotalPaid.Add(payments[i].Amount)
		}
	}

	return &StudentLedger{
		Summary:     summary,
		Invoices:    invoices,
		Payments:    payments,
		Allocations: allocations,
		Adjustments: adjustments,
	}, nil
}

// GetInvoice returns one invoice with its adjustment history.
func (s *BillingService) GetInvoice(ctx context.Context, tenantID, invoiceID uint) (*models.Invoice, []models.InvoiceAdjustment, error) {
	invoice, err := s.repos.Invoice.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, notFoundOr(err, "load invoice")
	}
	adjustments, err := s.repos.Adjustment.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("load adjustments: %w", err)
	}
	return invoice, adjustments, nil
}

// ListInvoices returns a filtered, paginated invoice page.
func (s *BillingService) ListInvoices(ctx context.Context, tenantID uint, query *repository.InvoiceQuery) ([]models.Invoice, int64, error) {
	return s.repos.Invoice.List(ctx, tenantID, query)
}

// ListPayments returns a filtered, paginated payment page.
func (s *BillingService) ListPayments(ctx context.Context, tenantID uint, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.repos.Payment.List(ctx, tenantID, query)
}

// GetPaymentAllocations returns a payment with its allocation breakdown.
func (s *BillingService) GetPaymentAllocations(ctx context.Context, tenantID, paymentID uint) (*models.Payment, []models.PaymentAllocation, error) {
	payment, err := s.repos.Payment.FindByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, nil, notFoundOr(err, "load payment")
	}
	allocations, err := s.repos.Payment.FindAllocationsByPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load allocations: %w", err)
	}
	return payment, allocations, nil
}

// GetStudentCredit returns the student's unallocated overpayment.
func (s *BillingService) GetStudentCredit(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
	return s.repos.Payment.StudentCredit(ctx, tenantID, studentID)
}

// RunDueSchedules generates invoices for every active billing schedule that
// has come due and advances its next billing date. Invoked by the job
// scheduler; each schedule is processed in its own transaction so one
// failure does not block the rest.
func (s *BillingService) RunDueSchedules(ctx context.Context, asOf time.Time) (int, error) {
	schedules, err := s.repos.Schedule.FindDue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("load due schedules: %w", err)
	}

	billed := 0
	for i := range schedules {
		schedule := &schedules[i]
		periodStart := schedule.NextBillingDate

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepos := s.repos.WithTx(tx)

			schedule.Advance()
			periodEnd := schedule.NextBillingDate.AddDate(0, 0, -1)

			if _, err := s.createInvoiceWithCredit(ctx, txRepos, schedule.TenantID, schedule.StudentID, invoiceDraft{
				invoiceType: models.InvoiceTypeCustom,
				periodStart: periodStart,
				periodEnd:   periodEnd,
				issueDate:   asOf,
				subtotal:    schedule.Amount,
				notes:       fmt.Sprintf("recurring %s billing", schedule.Frequency),
			}); err != nil {
				return err
			}

			return txRepos.Schedule.Update(ctx, schedule)
		})
		if err != nil {
			logger.Error("Failed to bill schedule", "schedule_id", schedule.ID, "error", err)
			continue
		}
		billed++
	}

	return billed, nil
}

// RefreshOverdueInvoices flips unpaid invoices past their due date to
// overdue. Invoked hourly by the job scheduler.
func (s *BillingService) RefreshOverdueInvoices(ctx context.Context) (int64, error) {
	return s.repos.Invoice.MarkOverdue(ctx, time.Now())
}

// validatePaymentMeta checks the payment method and its requirements,
// defaulting the payment date to today.
func validatePaymentMeta(meta *PaymentMeta) error {
	switch meta.Method {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodCheque:
	case models.PaymentMethodBankTransfer:
		if meta.TransactionNumber == nil || *meta.TransactionNumber == "" {
			return ErrTransactionNumRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, meta.Method)
	}

	if meta.PaymentDate.IsZero() {
		meta.PaymentDate = time.Now()
	}
	return nil
}

// notFoundOr maps gorm's record-not-found onto the service sentinel and
// wraps anything else.
func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// invoiceIndexByID returns the index of the invoice with the given id.
// The allocator only emits ids taken from the same slice, so the lookup
// always succeeds.
func invoiceIndexByID(invoices []models.Invoice, id uint) int {
	for i := range invoices {
		if invoices[i].ID == id {
			return i
		}
	}
	return 0
}
