package repository

import (
	"context"
	"time"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
)

// ScheduleRepository defines the interface for recurring billing schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.BillingSchedule) error
	Update(ctx context.Context, schedule *models.BillingSchedule) error
	FindByID(ctx context.Context, tenantID, id uint) (*models.BillingSchedule, error)
	FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.BillingSchedule, error)
	// FindDue returns active schedules across all tenants whose next billing
	// date is on or before asOf. The schedule runner bills each in its own
	// tenant scope.
	FindDue(ctx context.Context, asOf time.Time) ([]models.BillingSchedule, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.BillingSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *models.BillingSchedule) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", schedule.TenantID).
		Save(schedule).Error
}

func (r *scheduleRepository) FindByID(ctx context.Context, tenantID, id uint) (*models.BillingSchedule, error) {
	var schedule models.BillingSchedule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&schedule, id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindByStudent(ctx context.Context, tenantID, studentID uint) ([]models.BillingSchedule, error) {
	var schedules []models.BillingSchedule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("next_billing_date ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) FindDue(ctx context.Context, asOf time.Time) ([]models.BillingSchedule, error) {
	var schedules []models.BillingSchedule
	err := r.db.WithContext(ctx).
		Where("active = true AND next_billing_date <= ?", asOf).
		Preload("Enrollment.Subject").
		Order("tenant_id ASC, next_billing_date ASC").
		Find(&schedules).Error
	return schedules, err
}
