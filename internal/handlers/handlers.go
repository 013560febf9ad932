package handlers

import (
	"github.com/usamapuri/frontbench-api/internal/jobs"
	"github.com/usamapuri/frontbench-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Invoice *InvoiceHandler
	Payment *PaymentHandler
	Ledger  *LedgerHandler
	Report  *ReportHandler
	Audit   *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(worker),
		Invoice: NewInvoiceHandler(svcs.Billing),
		Payment: NewPaymentHandler(svcs.Billing),
		Ledger:  NewLedgerHandler(svcs.Billing),
		Report:  NewReportHandler(svcs.Report),
		Audit:   NewAuditHandler(svcs.Audit),
	}
}
