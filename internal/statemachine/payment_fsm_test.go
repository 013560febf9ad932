package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/usamapuri/frontbench-api/internal/models"
)

func TestPaymentFSM_Refund(t *testing.T) {
	payment := &models.Payment{Status: models.PaymentStatusCompleted}
	machine := NewPaymentFSM(payment)

	assert.True(t, machine.Can("refund"))
	assert.NoError(t, machine.Refund(context.Background()))
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
}

func TestPaymentFSM_Void(t *testing.T) {
	payment := &models.Payment{Status: models.PaymentStatusCompleted}
	machine := NewPaymentFSM(payment)

	assert.NoError(t, machine.Void(context.Background()))
	assert.Equal(t, models.PaymentStatusVoided, payment.Status)
}

func TestPaymentFSM_ReversalsAreTerminal(t *testing.T) {
	payment := &models.Payment{Status: models.PaymentStatusRefunded}
	machine := NewPaymentFSM(payment)

	assert.False(t, machine.Can("void"))
	assert.False(t, machine.Can("refund"))
	assert.Error(t, machine.Void(context.Background()))
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)

	voided := &models.Payment{Status: models.PaymentStatusVoided}
	assert.Error(t, NewPaymentFSM(voided).Refund(context.Background()))
	assert.Equal(t, models.PaymentStatusVoided, voided.Status)
}
