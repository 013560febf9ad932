package services

import (
	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/models"
)

// InvoiceAllocation is one slice of a payment applied to one invoice.
type InvoiceAllocation struct {
	InvoiceID     uint            `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// AllocationOutcome is the result of distributing a payment across invoices.
type AllocationOutcome struct {
	Allocations    []InvoiceAllocation
	TotalAllocated decimal.Decimal
	Remaining      decimal.Decimal
}

// AllocateOldestFirst distributes amount across the given invoices in order,
// never exceeding an invoice's balance due, and returns what is left over.
// Callers must pass invoices already ordered oldest issue date first (the
// repository's open-invoice query guarantees that, with invoice number as
// the deterministic tie-break). Invoices with no balance are skipped.
//
// Pure function: the passed invoices are not mutated.
func AllocateOldestFirst(amount decimal.Decimal, invoices []models.Invoice) AllocationOutcome {
	outcome := AllocationOutcome{
		Allocations:    []InvoiceAllocation{},
		TotalAllocated: decimal.Zero,
		Remaining:      amount,
	}

	for i := range invoices {
		if !outcome.Remaining.GreaterThan(decimal.Zero) {
			break
		}

		inv := &invoices[i]
		if !inv.BalanceDue.GreaterThan(decimal.Zero) {
			continue
		}

		slice := decimal.Min(outcome.Remaining, inv.BalanceDue)
		outcome.Allocations = append(outcome.Allocations, InvoiceAllocation{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        slice,
			BalanceBefore: inv.BalanceDue,
			BalanceAfter:  inv.BalanceDue.Sub(slice),
		})
		outcome.TotalAllocated = outcome.TotalAllocated.Add(slice)
		outcome.Remaining = outcome.Remaining.Sub(slice)
	}

	return outcome
}
