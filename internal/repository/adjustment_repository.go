package repository

import (
	"context"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
)

// AdjustmentRepository defines the interface for invoice adjustment records.
// Adjustments are append-only; there is deliberately no update or delete.
type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment *models.InvoiceAdjustment) error
	FindByInvoice(ctx context.Context, tenantID, invoiceID uint) ([]models.InvoiceAdjustment, error)
	FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.InvoiceAdjustment, error)
}

type adjustmentRepository struct {
	db *gorm.DB
}

// NewAdjustmentRepository creates a new adjustment repository
func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adjustment *models.InvoiceAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *adjustmentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uint) ([]models.InvoiceAdjustment, error) {
	var adjustments []models.InvoiceAdjustment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("applied_at ASC, id ASC").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *adjustmentRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.InvoiceAdjustment, error) {
	var adjustments []models.InvoiceAdjustment
	err := r.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.id = invoice_adjustments.invoice_id").
		Where("invoice_adjustments.tenant_id = ? AND invoices.student_id = ?", tenantID, studentID).
		Preload("Invoice").
		Order("invoice_adjustments.applied_at ASC, invoice_adjustments.id ASC").
		Find(&adjustments).Error
	return adjustments, err
}
