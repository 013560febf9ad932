package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/usamapuri/frontbench-api/internal/models"
)

func openInvoice(id uint, number string, balance int64) models.Invoice {
	b := decimal.NewFromInt(balance)
	return models.Invoice{
		ID:            id,
		InvoiceNumber: number,
		Total:         b,
		BalanceDue:    b,
	}
}

func TestAllocateOldestFirst_SpansInvoices(t *testing.T) {
	invoices := []models.Invoice{
		openInvoice(1, "INV-2025010001", 1000),
		openInvoice(2, "INV-2025020001", 2000),
		openInvoice(3, "INV-2025030001", 500),
	}

	outcome := AllocateOldestFirst(decimal.NewFromInt(2500), invoices)

	assert.Len(t, outcome.Allocations, 2)
	assert.Equal(t, uint(1), outcome.Allocations[0].InvoiceID)
	assert.True(t, outcome.Allocations[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, uint(2), outcome.Allocations[1].InvoiceID)
	assert.True(t, outcome.Allocations[1].Amount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, outcome.TotalAllocated.Equal(decimal.NewFromInt(2500)))
	assert.True(t, outcome.Remaining.IsZero())

	// The third invoice is untouched.
	assert.True(t, outcome.Allocations[1].BalanceAfter.Equal(decimal.NewFromInt(500)))
}

func TestAllocateOldestFirst_OverpaymentLeavesRemainder(t *testing.T) {
	invoices := []models.Invoice{
		openInvoice(1, "INV-2025010001", 1000),
		openInvoice(2, "INV-2025020001", 2000),
	}

	outcome := AllocateOldestFirst(decimal.NewFromInt(3500), invoices)

	assert.Len(t, outcome.Allocations, 2)
	assert.True(t, outcome.TotalAllocated.Equal(decimal.NewFromInt(3000)))
	assert.True(t, outcome.Remaining.Equal(decimal.NewFromInt(500)))
}

func TestAllocateOldestFirst_NoOpenInvoices(t *testing.T) {
	outcome := AllocateOldestFirst(decimal.NewFromInt(1000), nil)

	assert.Empty(t, outcome.Allocations)
	assert.True(t, outcome.TotalAllocated.IsZero())
	assert.True(t, outcome.Remaining.Equal(decimal.NewFromInt(1000)))
}

func TestAllocateOldestFirst_SkipsSettledInvoices(t *testing.T) {
	settled := openInvoice(1, "INV-2025010001", 0)
	invoices := []models.Invoice{
		settled,
		openInvoice(2, "INV-2025020001", 800),
	}

	outcome := AllocateOldestFirst(decimal.NewFromInt(500), invoices)

	assert.Len(t, outcome.Allocations, 1)
	assert.Equal(t, uint(2), outcome.Allocations[0].InvoiceID)
	assert.True(t, outcome.Allocations[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, outcome.Allocations[0].BalanceAfter.Equal(decimal.NewFromInt(300)))
}

func TestAllocateOldestFirst_NeverExceedsInvoiceBalance(t *testing.T) {
	invoices := []models.Invoice{
		openInvoice(1, "INV-2025010001", 300),
	}

	outcome := AllocateOldestFirst(decimal.NewFromInt(10000), invoices)

	assert.Len(t, outcome.Allocations, 1)
	assert.True(t, outcome.Allocations[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.True(t, outcome.Remaining.Equal(decimal.NewFromInt(9700)))
}

func TestAllocateOldestFirst_DoesNotMutateInput(t *testing.T) {
	invoices := []models.Invoice{
		openInvoice(1, "INV-2025010001", 1000),
	}

	_ = AllocateOldestFirst(decimal.NewFromInt(400), invoices)

	assert.True(t, invoices[0].BalanceDue.Equal(decimal.NewFromInt(1000)))
}
