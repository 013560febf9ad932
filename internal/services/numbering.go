package services

import (
	"context"
	"fmt"
	"time"

	"github.com/usamapuri/frontbench-api/internal/models"
	"github.com/usamapuri/frontbench-api/internal/repository"
)

// NumberingService issues invoice and receipt numbers. Every number comes
// from an atomic per-(tenant, scope, key) counter, so numbers are unique and
// gapless per scope even under concurrent batch runs and payments.
type NumberingService struct {
	seqRepo repository.SequenceRepository
}

// NewNumberingService creates a new numbering service
func NewNumberingService(seqRepo repository.SequenceRepository) *NumberingService {
	return &NumberingService{seqRepo: seqRepo}
}

// NextInvoiceNumber returns the next INV-{YYYY}{MM}{seq} number for the
// month containing at. The sequence restarts each calendar month.
func (s *NumberingService) NextInvoiceNumber(ctx context.Context, tenantID uint, at time.Time) (string, error) {
	yearMonth := at.Format("200601")
	n, err := s.seqRepo.Next(ctx, tenantID, models.SequenceScopeInvoice, yearMonth)
	if err != nil {
		return "", fmt.Errorf("reserve invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%s%04d", yearMonth, n), nil
}

// NextReceiptNumber returns the next RCP-{invoiceNumber}-{seq} number for a
// payment anchored to one invoice. Multiple partial payments against the
// same invoice each get their own suffix.
func (s *NumberingService) NextReceiptNumber(ctx context.Context, tenantID uint, invoiceNumber string) (string, error) {
	n, err := s.seqRepo.Next(ctx, tenantID, models.SequenceScopeReceipt, invoiceNumber)
	if err != nil {
		return "", fmt.Errorf("reserve receipt number: %w", err)
	}
	return fmt.Sprintf("RCP-%s-%02d", invoiceNumber, n), nil
}

// NextAdvanceReceiptNumber returns the next RCP-ADV-{YYYY}{MM}{seq} number
// for a payment not anchored to any single invoice.
func (s *NumberingService) NextAdvanceReceiptNumber(ctx context.Context, tenantID uint, at time.Time) (string, error) {
	yearMonth := at.Format("200601")
	n, err := s.seqRepo.Next(ctx, tenantID, models.SequenceScopeReceiptAdv, yearMonth)
	if err != nil {
		return "", fmt.Errorf("reserve advance receipt number: %w", err)
	}
	return fmt.Sprintf("RCP-ADV-%s%04d", yearMonth, n), nil
}
