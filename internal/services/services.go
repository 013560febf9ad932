package services

import (
	"github.com/usamapuri/frontbench-api/internal/config"
	"github.com/usamapuri/frontbench-api/internal/jobs"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Billing *BillingService
	Report  *ReportService
	Audit   *AuditService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	billingSvc := NewBillingService(db, repos, auditSvc, worker, cfg.BillingDueDays)

	return &Services{
		Billing: billingSvc,
		Report:  NewReportService(billingSvc, repos),
		Audit:   auditSvc,
	}
}
