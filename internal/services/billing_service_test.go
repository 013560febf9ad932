package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/usamapuri/frontbench-api/internal/models"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"gorm.io/gorm"
)

// Mock InvoiceRepository (embedding to avoid implementing all methods)
type mockInvoiceRepository struct {
	repository.InvoiceRepository
	mockFindByID               func(ctx context.Context, tenantID, id uint) (*models.Invoice, error)
	mockFindByIDForUpdate      func(ctx context.Context, tenantID, id uint) (*models.Invoice, error)
	mockFindByStudent          func(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error)
	mockExistsMonthlyForPeriod func(ctx context.Context, tenantID, studentID uint, periodStart time.Time) (bool, error)
	mockCreate                 func(ctx context.Context, invoice *models.Invoice) error
	mockUpdate                 func(ctx context.Context, invoice *models.Invoice) error
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, tenantID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
	if m.mockFindByIDForUpdate != nil {
		return m.mockFindByIDForUpdate(ctx, tenantID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvoiceRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error) {
	if m.mockFindByStudent != nil {
		return m.mockFindByStudent(ctx, tenantID, studentID)
	}
	return nil, nil
}

func (m *mockInvoiceRepository) ExistsMonthlyForPeriod(ctx context.Context, tenantID, studentID uint, periodStart time.Time) (bool, error) {
	if m.mockExistsMonthlyForPeriod != nil {
		return m.mockExistsMonthlyForPeriod(ctx, tenantID, studentID, periodStart)
	}
	return false, nil
}

func (m *mockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, invoice)
	}
	return nil
}

func (m *mockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, invoice)
	}
	return nil
}

// Mock PaymentRepository
type mockPaymentRepository struct {
	repository.PaymentRepository
	mockFindByStudent            func(ctx context.Context, tenantID, studentID uint) ([]models.Payment, error)
	mockFindAllocationsByStudent func(ctx context.Context, tenantID, studentID uint) ([]models.PaymentAllocation, error)
	mockStudentCredit            func(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error)
	mockCreate                   func(ctx context.Context, payment *models.Payment) error
	mockCreateAllocation         func(ctx context.Context, allocation *models.PaymentAllocation) error
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, payment)
	}
	return nil
}

func (m *mockPaymentRepository) CreateAllocation(ctx context.Context, allocation *models.PaymentAllocation) error {
	if m.mockCreateAllocation != nil {
		return m.mockCreateAllocation(ctx, allocation)
	}
	return nil
}

func (m *mockPaymentRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Payment, error) {
	if m.mockFindByStudent != nil {
		return m.mockFindByStudent(ctx, tenantID, studentID)
	}
	return nil, nil
}

func (m *mockPaymentRepository) FindAllocationsByStudent(ctx context.Context, tenantID, studentID uint) ([]models.PaymentAllocation, error) {
	if m.mockFindAllocationsByStudent != nil {
		return m.mockFindAllocationsByStudent(ctx, tenantID, studentID)
	}
	return nil, nil
}

func (m *mockPaymentRepository) StudentCredit(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
	if m.mockStudentCredit != nil {
		return m.mockStudentCredit(ctx, tenantID, studentID)
	}
	return decimal.Zero, nil
}

// Mock AdjustmentRepository
type mockAdjustmentRepository struct {
	repository.AdjustmentRepository
	mockFindByStudent func(ctx context.Context, tenantID, studentID uint) ([]models.InvoiceAdjustment, error)
}

func (m *mockAdjustmentRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.InvoiceAdjustment, error) {
	if m.mockFindByStudent != nil {
		return m.mockFindByStudent(ctx, tenantID, studentID)
	}
	return nil, nil
}

// Mock DirectoryRepository
type mockDirectoryRepository struct {
	repository.DirectoryRepository
	mockFindStudent func(ctx context.Context, tenantID, studentID uint) (*models.Student, error)
}

func (m *mockDirectoryRepository) FindStudent(ctx context.Context, tenantID, studentID uint) (*models.Student, error) {
	if m.mockFindStudent != nil {
		return m.mockFindStudent(ctx, tenantID, studentID)
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService(repos *repository.Repositories) *BillingService {
	return NewBillingService(nil, repos, nil, nil, 7)
}

func existingStudent(id uint) *mockDirectoryRepository {
	return &mockDirectoryRepository{
		mockFindStudent: func(ctx context.Context, tenantID, studentID uint) (*models.Student, error) {
			return &models.Student{ID: id, TenantID: tenantID, FullName: "Ayesha Khan"}, nil
		},
	}
}

func TestGetStudentLedger_EmptyHistory(t *testing.T) {
	repos := &repository.Repositories{
		Invoice:    &mockInvoiceRepository{},
		Payment:    &mockPaymentRepository{},
		Adjustment: &mockAdjustmentRepository{},
		Directory:  existingStudent(7),
	}

	ledger, err := newTestService(repos).GetStudentLedger(context.Background(), 1, 7)

	assert.NoError(t, err)
	assert.Empty(t, ledger.Invoices)
	assert.Empty(t, ledger.Payments)
	assert.Empty(t, ledger.Allocations)
	assert.Empty(t, ledger.Adjustments)
	assert.True(t, ledger.Summary.TotalInvoiced.IsZero())
	assert.True(t, ledger.Summary.TotalPaid.IsZero())
	assert.True(t, ledger.Summary.TotalOutstanding.IsZero())
	assert.True(t, ledger.Summary.CreditBalance.IsZero())
}

func TestGetStudentLedger_SummaryTotals(t *testing.T) {
	now := time.Now()
	invoices := []models.Invoice{
		{ID: 1, Total: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(5000), BalanceDue: decimal.Zero, DueDate: now},
		{ID: 2, Total: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(2000), BalanceDue: decimal.NewFromInt(3000), DueDate: now},
	}
	payments := []models.Payment{
		{ID: 1, Amount: decimal.NewFromInt(5000), Status: models.PaymentStatusCompleted},
		{ID: 2, Amount: decimal.NewFromInt(2000), Status: models.PaymentStatusCompleted},
		{ID: 3, Amount: decimal.NewFromInt(900), Status: models.PaymentStatusVoided},
	}

	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockFindByStudent: func(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error) {
				return invoices, nil
			},
		},
		Payment: &mockPaymentRepository{
			mockFindByStudent: func(ctx context.Context, tenantID, studentID uint) ([]models.Payment, error) {
				return payments, nil
			},
			mockStudentCredit: func(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
				return decimal.NewFromInt(200), nil
			},
		},
		Adjustment: &mockAdjustmentRepository{},
		Directory:  existingStudent(7),
	}

	ledger, err := newTestService(repos).GetStudentLedger(context.Background(), 1, 7)

	assert.NoError(t, err)
	assert.True(t, ledger.Summary.TotalInvoiced.Equal(decimal.NewFromInt(10000)))
	assert.True(t, ledger.Summary.TotalOutstanding.Equal(decimal.NewFromInt(3000)))
	// Voided payments never count toward money received.
	assert.True(t, ledger.Summary.TotalPaid.Equal(decimal.NewFromInt(7000)))
	assert.True(t, ledger.Summary.CreditBalance.Equal(decimal.NewFromInt(200)))
}

func TestGetStudentLedger_UnknownStudent(t *testing.T) {
	repos := &repository.Repositories{
		Directory: &mockDirectoryRepository{},
	}

	_, err := newTestService(repos).GetStudentLedger(context.Background(), 1, 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStudentCredit_Passthrough(t *testing.T) {
	repos := &repository.Repositories{
		Payment: &mockPaymentRepository{
			mockStudentCredit: func(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
				assert.Equal(t, uint(1), tenantID)
				assert.Equal(t, uint(7), studentID)
				return decimal.NewFromInt(450), nil
			},
		},
	}

	credit, err := newTestService(repos).GetStudentCredit(context.Background(), 1, 7)

	assert.NoError(t, err)
	assert.True(t, credit.Equal(decimal.NewFromInt(450)))
}

func TestGetInvoice_NotFound(t *testing.T) {
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{},
	}

	_, _, err := newTestService(repos).GetInvoice(context.Background(), 1, 42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidatePaymentMeta_MethodRules(t *testing.T) {
	meta := PaymentMeta{Method: models.PaymentMethodCash}
	assert.NoError(t, validatePaymentMeta(&meta))
	assert.False(t, meta.PaymentDate.IsZero(), "payment date defaults to today")

	meta = PaymentMeta{Method: models.PaymentMethodBankTransfer}
	assert.ErrorIs(t, validatePaymentMeta(&meta), ErrTransactionNumRequired)

	txn := "TXN-1001"
	meta = PaymentMeta{Method: models.PaymentMethodBankTransfer, TransactionNumber: &txn}
	assert.NoError(t, validatePaymentMeta(&meta))

	meta = PaymentMeta{Method: "bitcoin"}
	assert.ErrorIs(t, validatePaymentMeta(&meta), ErrUnknownPaymentMethod)

	// credit_balance is reserved for system rows, never accepted from callers.
	meta = PaymentMeta{Method: models.PaymentMethodCreditBalance}
	assert.ErrorIs(t, validatePaymentMeta(&meta), ErrUnknownPaymentMethod)
}

func TestProcessPartialPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(&repository.Repositories{})

	_, err := svc.ProcessPartialPayment(context.Background(), 1, 1, decimal.Zero,
		PaymentMeta{Method: models.PaymentMethodCash}, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.ProcessAdvancePayment(context.Background(), 1, 1, decimal.NewFromInt(-50),
		PaymentMeta{Method: models.PaymentMethodCash}, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApplyPartialPayment_RejectsAmountOverBalance(t *testing.T) {
	paymentsCreated := 0
	invoiceUpdates := 0
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockFindByIDForUpdate: func(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
				return &models.Invoice{
					ID: id, TenantID: tenantID, StudentID: 7,
					InvoiceNumber: "INV-2025040001",
					Total:         decimal.NewFromInt(5000),
					AmountPaid:    decimal.NewFromInt(4500),
					BalanceDue:    decimal.NewFromInt(500),
					DueDate:       time.Now().AddDate(0, 0, 7),
					Status:        models.InvoiceStatusPartial,
				}, nil
			},
			mockUpdate: func(ctx context.Context, invoice *models.Invoice) error {
				invoiceUpdates++
				return nil
			},
		},
		Payment: &mockPaymentRepository{
			mockCreate: func(ctx context.Context, payment *models.Payment) error {
				paymentsCreated++
				return nil
			},
		},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	_, err := svc.applyPartialPayment(context.Background(), repos, 1, 10, decimal.NewFromInt(600),
		PaymentMeta{Method: models.PaymentMethodCash, PaymentDate: time.Now()})

	assert.ErrorIs(t, err, ErrAmountExceedsBalance)
	// Rejected before anything is written, never silently clamped.
	assert.Zero(t, paymentsCreated)
	assert.Zero(t, invoiceUpdates)
}

func TestApplyPartialPayment_SettlesInvoiceAtExactBalance(t *testing.T) {
	var createdPayment *models.Payment
	var createdAllocation *models.PaymentAllocation
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockFindByIDForUpdate: func(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
				return &models.Invoice{
					ID: id, TenantID: tenantID, StudentID: 7,
					InvoiceNumber: "INV-2025040001",
					Total:         decimal.NewFromInt(5000),
					AmountPaid:    decimal.NewFromInt(4500),
					BalanceDue:    decimal.NewFromInt(500),
					DueDate:       time.Now().AddDate(0, 0, 7),
					Status:        models.InvoiceStatusPartial,
				}, nil
			},
		},
		Payment: &mockPaymentRepository{
			mockCreate: func(ctx context.Context, payment *models.Payment) error {
				payment.ID = 21
				createdPayment = payment
				return nil
			},
			mockCreateAllocation: func(ctx context.Context, allocation *models.PaymentAllocation) error {
				createdAllocation = allocation
				return nil
			},
		},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	result, err := svc.applyPartialPayment(context.Background(), repos, 1, 10, decimal.NewFromInt(500),
		PaymentMeta{Method: models.PaymentMethodCash, PaymentDate: time.Now(), ReceivedBy: 3})

	assert.NoError(t, err)
	assert.True(t, result.NewBalance.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, result.Invoice.Status)
	assert.Equal(t, "RCP-INV-2025040001-01", createdPayment.ReceiptNumber)
	assert.Equal(t, models.PaymentSourceManual, createdPayment.Source)
	assert.Equal(t, uint(21), createdAllocation.PaymentID)
	assert.True(t, createdAllocation.Amount.Equal(decimal.NewFromInt(500)))
}

func TestBillStudentForPeriod_SecondRunCreatesNothing(t *testing.T) {
	billed := make(map[string]bool)
	invoicesCreated := 0
	periodKey := func(studentID uint, periodStart time.Time) string {
		return fmt.Sprintf("%d/%s", studentID, periodStart.Format("2006-01"))
	}

	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockExistsMonthlyForPeriod: func(ctx context.Context, tenantID, studentID uint, periodStart time.Time) (bool, error) {
				return billed[periodKey(studentID, periodStart)], nil
			},
			mockCreate: func(ctx context.Context, invoice *models.Invoice) error {
				invoice.ID = 1
				billed[periodKey(invoice.StudentID, invoice.BillingPeriodStart)] = true
				invoicesCreated++
				return nil
			},
		},
		Payment:  &mockPaymentRepository{},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	periodStart := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	fee := decimal.NewFromInt(8000)

	first, err := svc.billStudentForPeriod(context.Background(), repos, 1, 7, fee, periodStart, periodEnd, periodStart, 1)
	assert.NoError(t, err)
	assert.NotNil(t, first)
	assert.Equal(t, models.InvoiceTypeMonthly, first.InvoiceType)

	second, err := svc.billStudentForPeriod(context.Background(), repos, 1, 7, fee, periodStart, periodEnd, periodStart, 1)
	assert.NoError(t, err)
	assert.Nil(t, second, "already billed period is skipped")
	assert.Equal(t, 1, invoicesCreated)

	// A different month is a fresh period.
	mayStart := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	third, err := svc.billStudentForPeriod(context.Background(), repos, 1, 7, fee, mayStart, mayStart.AddDate(0, 1, -1), mayStart, 1)
	assert.NoError(t, err)
	assert.NotNil(t, third)
	assert.Equal(t, 2, invoicesCreated)
}

func TestCreateInvoiceWithCredit_ConsumesExistingCredit(t *testing.T) {
	var createdPayment *models.Payment
	var createdAllocation *models.PaymentAllocation
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockCreate: func(ctx context.Context, invoice *models.Invoice) error {
				invoice.ID = 42
				return nil
			},
		},
		Payment: &mockPaymentRepository{
			mockStudentCredit: func(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
				return decimal.NewFromInt(3000), nil
			},
			mockCreate: func(ctx context.Context, payment *models.Payment) error {
				payment.ID = 9
				createdPayment = payment
				return nil
			},
			mockCreateAllocation: func(ctx context.Context, allocation *models.PaymentAllocation) error {
				createdAllocation = allocation
				return nil
			},
		},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	issue := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.createInvoiceWithCredit(context.Background(), repos, 1, 7, invoiceDraft{
		invoiceType: models.InvoiceTypeMonthly,
		periodStart: issue,
		periodEnd:   issue.AddDate(0, 1, -1),
		issueDate:   issue,
		subtotal:    decimal.NewFromInt(8000),
	})

	assert.NoError(t, err)
	// The invoice total is untouched; credit lands in the paid amount.
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(8000)))
	assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(3000)))
	assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, models.InvoiceStatusPartial, inv.Status)

	// Credit arrives as a system payment fully allocated to the new invoice.
	assert.Equal(t, models.PaymentMethodCreditBalance, createdPayment.Method)
	assert.Equal(t, models.PaymentSourceSystem, createdPayment.Source)
	assert.Nil(t, createdPayment.ReceivedByUserID)
	assert.True(t, createdPayment.Amount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, uint(42), createdAllocation.InvoiceID)
	assert.Equal(t, uint(9), createdAllocation.PaymentID)
	assert.True(t, createdAllocation.Amount.Equal(decimal.NewFromInt(3000)))
}

func TestCreateInvoiceWithCredit_CreditCappedAtTotal(t *testing.T) {
	var createdPayment *models.Payment
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{
			mockCreate: func(ctx context.Context, invoice *models.Invoice) error {
				invoice.ID = 42
				return nil
			},
		},
		Payment: &mockPaymentRepository{
			mockStudentCredit: func(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
				return decimal.NewFromInt(10000), nil
			},
			mockCreate: func(ctx context.Context, payment *models.Payment) error {
				createdPayment = payment
				return nil
			},
		},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	issue := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.createInvoiceWithCredit(context.Background(), repos, 1, 7, invoiceDraft{
		invoiceType: models.InvoiceTypeMonthly,
		periodStart: issue,
		periodEnd:   issue.AddDate(0, 1, -1),
		issueDate:   issue,
		subtotal:    decimal.NewFromInt(8000),
	})

	assert.NoError(t, err)
	assert.True(t, createdPayment.Amount.Equal(decimal.NewFromInt(8000)), "only the invoice total is consumed")
	assert.True(t, inv.BalanceDue.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestCreateInvoiceWithCredit_NoCreditNoSystemPayment(t *testing.T) {
	paymentsCreated := 0
	repos := &repository.Repositories{
		Invoice: &mockInvoiceRepository{},
		Payment: &mockPaymentRepository{
			mockCreate: func(ctx context.Context, payment *models.Payment) error {
				paymentsCreated++
				return nil
			},
		},
		Sequence: newMockSequenceRepository(),
	}
	svc := newTestService(repos)

	issue := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.createInvoiceWithCredit(context.Background(), repos, 1, 7, invoiceDraft{
		invoiceType: models.InvoiceTypeMonthly,
		periodStart: issue,
		periodEnd:   issue.AddDate(0, 1, -1),
		issueDate:   issue,
		subtotal:    decimal.NewFromInt(8000),
	})

	assert.NoError(t, err)
	assert.Zero(t, paymentsCreated)
	assert.Equal(t, models.InvoiceStatusSent, inv.Status)
	assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(8000)))
}
