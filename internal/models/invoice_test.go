package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveInvoiceStatus(t *testing.T) {
	now := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 7)
	past := now.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		total   int64
		paid    int64
		dueDate time.Time
		want    string
	}{
		{"unpaid before due date", 5000, 0, future, InvoiceStatusSent},
		{"unpaid past due date", 5000, 0, past, InvoiceStatusOverdue},
		{"partially paid", 5000, 2000, future, InvoiceStatusPartial},
		{"partially paid past due stays partial", 5000, 2000, past, InvoiceStatusPartial},
		{"fully paid", 5000, 5000, future, InvoiceStatusPaid},
		{"overpaid", 5000, 6000, future, InvoiceStatusPaid},
		{"paid past due stays paid", 5000, 5000, past, InvoiceStatusPaid},
		{"zero total", 0, 0, future, InvoiceStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveInvoiceStatus(decimal.NewFromInt(tt.total), decimal.NewFromInt(tt.paid), tt.dueDate, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecalcDerived_ClampsNegativeBalance(t *testing.T) {
	now := time.Now()
	inv := &Invoice{
		Total:      decimal.NewFromInt(5000),
		AmountPaid: decimal.NewFromInt(5200),
		DueDate:    now.AddDate(0, 0, 7),
	}

	inv.RecalcDerived(now)

	assert.True(t, inv.BalanceDue.IsZero())
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestAppendNote(t *testing.T) {
	inv := &Invoice{}

	inv.AppendNote("")
	assert.Nil(t, inv.Notes)

	inv.AppendNote("first line")
	assert.Equal(t, "first line", *inv.Notes)

	inv.AppendNote("second line")
	assert.Equal(t, "first line\nsecond line", *inv.Notes)
}

func TestIsOpen(t *testing.T) {
	inv := &Invoice{BalanceDue: decimal.NewFromInt(100)}
	assert.True(t, inv.IsOpen())

	inv.BalanceDue = decimal.Zero
	assert.False(t, inv.IsOpen())
}
