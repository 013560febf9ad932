package repository

import (
	"context"
	"errors"
	"time"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository defines the interface for invoice data access. Every
// method is scoped by tenant id; a missing tenant filter would cross the
// multi-tenancy boundary, so none of these methods accept a zero tenant.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, tenantID, id uint) (*models.Invoice, error)
	// FindByIDForUpdate locks the row for the remainder of the surrounding
	// transaction so concurrent payments cannot both read the same balance.
	FindByIDForUpdate(ctx context.Context, tenantID, id uint) (*models.Invoice, error)
	FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error)
	// FindOpenByStudentForUpdate returns the student's invoices that still
	// carry a balance, oldest issue date first (invoice number breaks ties),
	// locked for allocation.
	FindOpenByStudentForUpdate(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error)
	ExistsMonthlyForPeriod(ctx context.Context, tenantID, studentID uint, periodStart time.Time) (bool, error)
	List(ctx context.Context, tenantID uint, query *InvoiceQuery) ([]models.Invoice, int64, error)
	// MarkOverdue flips still-unpaid sent invoices past their due date to
	// overdue. Runs across tenants; the status change is per-row and does
	// not touch any monetary field.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// InvoiceQuery extends ListQuery with invoice-specific filters
type InvoiceQuery struct {
	*ListQuery
	StudentID   uint
	Status      string
	InvoiceType string
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", invoice.TenantID).
		Save(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("issue_date ASC, invoice_number ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) FindOpenByStudentForUpdate(ctx context.Context, tenantID, studentID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND student_id = ? AND balance_due > 0", tenantID, studentID).
		Order("issue_date ASC, invoice_number ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ExistsMonthlyForPeriod(ctx context.Context, tenantID, studentID uint, periodStart time.Time) (bool, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Select("id").
		Where("tenant_id = ? AND student_id = ? AND invoice_type = ? AND billing_period_start = ?",
			tenantID, studentID, models.InvoiceTypeMonthly, periodStart).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *invoiceRepository) List(ctx context.Context, tenantID uint, query *InvoiceQuery) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("tenant_id = ?", tenantID)

	if query.StudentID > 0 {
		db = db.Where("student_id = ?", query.StudentID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.InvoiceType != "" {
		db = db.Where("invoice_type = ?", query.InvoiceType)
	}
	if query.Search != "" {
		db = db.Where("invoice_number ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "issue_date"
	if query.SortBy != "" {
		switch query.SortBy {
		case "issue_date", "due_date", "total", "balance_due", "invoice_number", "created_at":
			sortBy = query.SortBy
		}
	}
	sortDir := "desc"
	if query.SortDir == "asc" {
		sortDir = "asc"
	}

	offset := (query.Page - 1) * query.PerPage
	err := db.Preload("Student").
		Order(sortBy + " " + sortDir).
		Limit(query.PerPage).
		Offset(offset).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now).
		Update("status", models.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}
