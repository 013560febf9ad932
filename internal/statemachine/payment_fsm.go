package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/usamapuri/frontbench-api/internal/models"
)

// PaymentFSM wraps a payment with its state machine. Payments are born
// completed; the only transitions are the reversal paths, and both are
// terminal. Allocations of a refunded or voided payment stay on record but
// stop counting toward invoice balances and student credit.
type PaymentFSM struct {
	payment *models.Payment
	fsm     *fsm.FSM
}

// NewPaymentFSM creates a new payment state machine
func NewPaymentFSM(payment *models.Payment) *PaymentFSM {
	pfsm := &PaymentFSM{
		payment: payment,
	}

	pfsm.fsm = fsm.NewFSM(
		payment.Status,
		fsm.Events{
			// completed → refunded (money returned to the payer)
			{Name: "refund", Src: []string{models.PaymentStatusCompleted}, Dst: models.PaymentStatusRefunded},

			// completed → voided (recorded in error, no money moved back)
			{Name: "void", Src: []string{models.PaymentStatusCompleted}, Dst: models.PaymentStatusVoided},
		},
		fsm.Callbacks{},
	)

	return pfsm
}

// Refund transitions payment to refunded state
func (p *PaymentFSM) Refund(ctx context.Context) error {
	if !p.payment.MayRefund() {
		return fmt.Errorf("payment cannot be refunded in current state: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "refund"); err != nil {
		return fmt.Errorf("failed to refund payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Void transitions payment to voided state
func (p *PaymentFSM) Void(ctx context.Context) error {
	if !p.payment.MayVoid() {
		return fmt.Errorf("payment cannot be voided in current state: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "void"); err != nil {
		return fmt.Errorf("failed to void payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Current returns the current state
func (p *PaymentFSM) Current() string {
	return p.fsm.Current()
}

// Can checks if a transition is possible
func (p *PaymentFSM) Can(event string) bool {
	return p.fsm.Can(event)
}
