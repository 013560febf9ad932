package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment and allocation data
// access. Allocations are the join entity between payments and invoices and
// are only ever created, never mutated.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, tenantID, id uint) (*models.Payment, error)
	FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Payment, error)
	CreateAllocation(ctx context.Context, allocation *models.PaymentAllocation) error
	FindAllocationsByStudent(ctx context.Context, tenantID, studentID uint) ([]models.PaymentAllocation, error)
	FindAllocationsByPayment(ctx context.Context, tenantID, paymentID uint) ([]models.PaymentAllocation, error)
	// StudentCredit computes the student's unallocated overpayment:
	// max(0, sum(payments) - sum(allocations)). Credit is derived, never stored.
	StudentCredit(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error)
	List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Payment, int64, error)
	FindCompletedByPeriod(ctx context.Context, tenantID uint, year, month int) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", payment.TenantID).
		Save(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, tenantID, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) CreateAllocation(ctx context.Context, allocation *models.PaymentAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *paymentRepository) FindAllocationsByStudent(ctx context.Context, tenantID, studentID uint) ([]models.PaymentAllocation, error) {
	var allocations []models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payment_allocations.tenant_id = ? AND payments.student_id = ?", tenantID, studentID).
		Preload("Invoice").
		Preload("Payment").
		Order("payment_allocations.created_at ASC, payment_allocations.id ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *paymentRepository) FindAllocationsByPayment(ctx context.Context, tenantID, paymentID uint) ([]models.PaymentAllocation, error) {
	var allocations []models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Preload("Invoice").
		Order("id ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *paymentRepository) StudentCredit(ctx context.Context, tenantID, studentID uint) (decimal.Decimal, error) {
	var result struct {
		Credit decimal.Decimal
	}

	// Only manual payments add to the credit pool; system payments are the
	// engine consuming credit and arrive fully allocated, so counting their
	// allocations (but not their amounts) is what makes applied credit drain.
	// Voided and refunded payments no longer count on either side.
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE((
			SELECT SUM(p.amount) FROM payments p
			WHERE p.tenant_id = ? AND p.student_id = ? AND p.status = ? AND p.source = ?
		), 0) - COALESCE((
			SELECT SUM(a.amount) FROM payment_allocations a
			JOIN payments p ON p.id = a.payment_id
			WHERE a.tenant_id = ? AND p.student_id = ? AND p.status = ?
		), 0) AS credit`,
		tenantID, studentID, models.PaymentStatusCompleted, models.PaymentSourceManual,
		tenantID, studentID, models.PaymentStatusCompleted).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}

	if result.Credit.IsNegative() {
		return decimal.Zero, nil
	}
	return result.Credit, nil
}

func (r *paymentRepository) List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("tenant_id = ?", tenantID)

	if status := query.Filters["status"]; status != "" {
		db = db.Where("status = ?", status)
	}
	if method := query.Filters["method"]; method != "" {
		db = db.Where("method = ?", method)
	}
	if query.Search != "" {
		db = db.Where("receipt_number ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.PerPage
	err := db.Preload("Student").
		Order("payment_date DESC, id DESC").
		Limit(query.PerPage).
		Offset(offset).
		Find(&payments).Error

	return payments, total, err
}

func (r *paymentRepository) FindCompletedByPeriod(ctx context.Context, tenantID uint, year, month int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND EXTRACT(YEAR FROM payment_date) = ? AND EXTRACT(MONTH FROM payment_date) = ?",
			tenantID, models.PaymentStatusCompleted, year, month).
		Preload("Student").
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
