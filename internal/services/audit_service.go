package services

import (
	"context"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry. A zero userID marks a system-initiated action
// (scheduled batches, credit application).
func (s *AuditService) Log(ctx context.Context, tenantID, userID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	var actor *uint
	if userID != 0 {
		actor = &userID
	}
	logEntry := &models.AuditLog{
		TenantID:  tenantID,
		UserID:    actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	return s.db.WithContext(ctx).Create(logEntry).Error
}

// List retrieves a tenant's audit logs, newest first
func (s *AuditService) List(ctx context.Context, tenantID uint, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
