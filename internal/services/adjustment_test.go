package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/usamapuri/frontbench-api/internal/models"
)

func invoiceWith(total, paid int64, dueDate time.Time) *models.Invoice {
	inv := &models.Invoice{
		InvoiceNumber: "INV-2025010001",
		Subtotal:      decimal.NewFromInt(total),
		Total:         decimal.NewFromInt(total),
		AmountPaid:    decimal.NewFromInt(paid),
		Adjustments:   decimal.Zero,
		LateFee:       decimal.Zero,
		DueDate:       dueDate,
	}
	inv.RecalcDerived(dueDate.AddDate(0, 0, -1))
	return inv
}

func TestApplyAdjustment_Discount(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeDiscount,
		Amount: decimal.NewFromInt(500),
		Reason: "sibling discount",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.Equal(decimal.NewFromInt(4500)))
	assert.True(t, outcome.NewBalanceDue.Equal(decimal.NewFromInt(4500)))
	assert.True(t, inv.Adjustments.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, models.InvoiceStatusSent, outcome.NewStatus)
}

func TestApplyAdjustment_DiscountBelowPaidAmountSettles(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 4800, now.AddDate(0, 0, 7))

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeDiscount,
		Amount: decimal.NewFromInt(500),
		Reason: "fee waiver",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.Equal(decimal.NewFromInt(4500)))
	// Paid 4800 against a 4500 total: settled, balance clamps to zero.
	assert.True(t, outcome.NewBalanceDue.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, outcome.NewStatus)
}

func TestApplyAdjustment_LateFeeReopensPaidInvoice(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 5000, now.AddDate(0, 0, -3))
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeLateFee,
		Amount: decimal.NewFromInt(200),
		Reason: "late payment penalty",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.Equal(decimal.NewFromInt(5200)))
	assert.True(t, outcome.NewBalanceDue.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.InvoiceStatusPartial, outcome.NewStatus)
	assert.True(t, inv.LateFee.Equal(decimal.NewFromInt(200)))
	// Late fees accumulate separately from reductions.
	assert.True(t, inv.Adjustments.IsZero())
}

func TestApplyAdjustment_ManualEditSetsNewTotal(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeManualEdit,
		Amount: decimal.NewFromInt(4000),
		Reason: "negotiated fee",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.Equal(decimal.NewFromInt(4000)))
	// The 1000 removed is folded into the adjustments field so the invoice
	// still reconciles against its subtotal.
	assert.True(t, inv.Adjustments.Equal(decimal.NewFromInt(1000)))
}

func TestApplyAdjustment_ManualEditCanRaiseTotal(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeManualEdit,
		Amount: decimal.NewFromInt(6000),
		Reason: "extra subject added",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.Equal(decimal.NewFromInt(6000)))
	assert.True(t, inv.Adjustments.Equal(decimal.NewFromInt(-1000)))
}

func TestApplyAdjustment_WriteoffSettles(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(800, 0, now.AddDate(0, 0, -30))

	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeWriteoff,
		Amount: decimal.NewFromInt(800),
		Reason: "student withdrawn, balance unrecoverable",
	}, now)

	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, outcome.NewStatus)
}

func TestApplyAdjustment_ReasonRequired(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	_, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeDiscount,
		Amount: decimal.NewFromInt(500),
	}, now)

	assert.ErrorIs(t, err, ErrReasonRequired)
	// The invoice is untouched on rejection.
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(5000)))
}

func TestApplyAdjustment_RejectsNonPositiveAmounts(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	_, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeDiscount,
		Amount: decimal.Zero,
		Reason: "zero discount",
	}, now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeLateFee,
		Amount: decimal.NewFromInt(-100),
		Reason: "negative fee",
	}, now)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApplyAdjustment_UnknownType(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	_, err := applyAdjustment(inv, AdjustmentInput{
		Type:   "rebate",
		Amount: decimal.NewFromInt(100),
		Reason: "unknown",
	}, now)

	assert.ErrorIs(t, err, ErrUnknownAdjustmentType)
}

func TestApplyAdjustment_AppendsReasonToNotes(t *testing.T) {
	now := time.Now()
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

	_, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeDiscount,
		Amount: decimal.NewFromInt(500),
		Reason: "sibling discount",
	}, now)

	assert.NoError(t, err)
	assert.NotNil(t, inv.Notes)
	assert.Contains(t, *inv.Notes, "sibling discount")
}

func TestApplyAdjustment_RejectsReductionBeyondTotal(t *testing.T) {
	now := time.Now()

	for _, adjType := range []string{
		models.AdjustmentTypeDiscount,
		models.AdjustmentTypeWriteoff,
		models.AdjustmentTypeRefund,
	} {
		inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))

		_, err := applyAdjustment(inv, AdjustmentInput{
			Type:   adjType,
			Amount: decimal.NewFromInt(6000),
			Reason: "account closure",
		}, now)

		assert.ErrorIs(t, err, ErrInvalidAmount, adjType)
		// A total can never go negative; the invoice stays untouched.
		assert.True(t, inv.Total.Equal(decimal.NewFromInt(5000)), adjType)
		assert.True(t, inv.Adjustments.IsZero(), adjType)
	}

	// Writing off the full remaining total is still fine.
	inv := invoiceWith(5000, 0, now.AddDate(0, 0, 7))
	outcome, err := applyAdjustment(inv, AdjustmentInput{
		Type:   models.AdjustmentTypeWriteoff,
		Amount: decimal.NewFromInt(5000),
		Reason: "account closure",
	}, now)
	assert.NoError(t, err)
	assert.True(t, outcome.NewTotal.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, outcome.NewStatus)
}
