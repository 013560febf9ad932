package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/models"
)

// AdjustmentInput carries a manual change to an invoice.
type AdjustmentInput struct {
	Type      string
	Amount    decimal.Decimal
	Reason    string
	AppliedBy uint
	Notes     *string
}

// AdjustmentOutcome reports the invoice's recomputed money fields after an
// adjustment. Callers needing the full invoice row re-fetch it.
type AdjustmentOutcome struct {
	NewTotal      decimal.Decimal `json:"new_total"`
	NewBalanceDue decimal.Decimal `json:"new_balance_due"`
	NewStatus     string          `json:"new_status"`
}

// applyAdjustment mutates the invoice's money fields according to the
// adjustment type and recomputes balance and status. Sign rules:
//
//   - discount, writeoff, refund: total decreases by amount; the cumulative
//     adjustments field grows by amount (it tracks value removed). A
//     reduction larger than the current total is rejected; a stored
//     negative total is never valid.
//   - late_fee: total and the late-fee field increase by amount; the
//     adjustments field is untouched.
//   - manual_edit: amount is the new total; the delta (old minus new) is
//     folded into the adjustments field so totals still reconcile.
//
// A late fee on a fully paid invoice reopens it (paid -> partial); a
// discount below the amount already paid keeps it paid.
func applyAdjustment(inv *models.Invoice, in AdjustmentInput, now time.Time) (AdjustmentOutcome, error) {
	if in.Reason == "" {
		return AdjustmentOutcome{}, ErrReasonRequired
	}
	if in.Amount.IsNegative() {
		return AdjustmentOutcome{}, ErrInvalidAmount
	}

	switch in.Type {
	case models.AdjustmentTypeDiscount, models.AdjustmentTypeWriteoff, models.AdjustmentTypeRefund:
		if !in.Amount.GreaterThan(decimal.Zero) {
			return AdjustmentOutcome{}, ErrInvalidAmount
		}
		if in.Amount.GreaterThan(inv.Total) {
			return AdjustmentOutcome{}, fmt.Errorf("%w: %s exceeds invoice total %s",
				ErrInvalidAmount, in.Amount.StringFixed(2), inv.Total.StringFixed(2))
		}
		inv.Total = inv.Total.Sub(in.Amount)
		inv.Adjustments = inv.Adjustments.Add(in.Amount)
	case models.AdjustmentTypeLateFee:
		if !in.Amount.GreaterThan(decimal.Zero) {
			return AdjustmentOutcome{}, ErrInvalidAmount
		}
		inv.Total = inv.Total.Add(in.Amount)
		inv.LateFee = inv.LateFee.Add(in.Amount)
	case models.AdjustmentTypeManualEdit:
		delta := inv.Total.Sub(in.Amount)
		inv.Total = in.Amount
		inv.Adjustments = inv.Adjustments.Add(delta)
	default:
		return AdjustmentOutcome{}, fmt.Errorf("%w: %s", ErrUnknownAdjustmentType, in.Type)
	}

	inv.AppendNote(in.Reason)
	inv.RecalcDerived(now)

	return AdjustmentOutcome{
		NewTotal:      inv.Total,
		NewBalanceDue: inv.BalanceDue,
		NewStatus:     inv.Status,
	}, nil
}
