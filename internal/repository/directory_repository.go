package repository

import (
	"context"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
)

// DirectoryRepository is the billing core's read-only view of the school
// directory: students, subjects and enrollments. The surrounding system
// owns their lifecycle; billing only reads fee data from them.
type DirectoryRepository interface {
	FindStudent(ctx context.Context, tenantID, studentID uint) (*models.Student, error)
	ActiveEnrollments(ctx context.Context, tenantID, studentID uint) ([]models.Enrollment, error)
	// StudentsWithActiveEnrollments returns every student the monthly batch
	// should bill, with enrollments and subjects preloaded.
	StudentsWithActiveEnrollments(ctx context.Context, tenantID uint) ([]models.Student, error)
	FindTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindStudent(ctx context.Context, tenantID, studentID uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&student, studentID).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *directoryRepository) ActiveEnrollments(ctx context.Context, tenantID, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND active = true", tenantID, studentID).
		Preload("Subject").
		Order("id ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *directoryRepository) StudentsWithActiveEnrollments(ctx context.Context, tenantID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = true", tenantID).
		Where("EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = students.id AND e.tenant_id = students.tenant_id AND e.active = true)").
		Preload("Enrollments", "active = true").
		Preload("Enrollments.Subject").
		Order("id ASC").
		Find(&students).Error
	return students, err
}

func (r *directoryRepository) FindTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("subdomain = ? AND active = true", subdomain).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
