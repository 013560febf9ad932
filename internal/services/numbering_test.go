package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/usamapuri/frontbench-api/internal/models"
)

// Mock SequenceRepository
type mockSequenceRepository struct {
	counters map[string]int64
	calls    []string
}

func newMockSequenceRepository() *mockSequenceRepository {
	return &mockSequenceRepository{counters: make(map[string]int64)}
}

func (m *mockSequenceRepository) Next(ctx context.Context, tenantID uint, scope, key string) (int64, error) {
	id := scope + "/" + key
	m.counters[id]++
	m.calls = append(m.calls, id)
	return m.counters[id], nil
}

func TestNextInvoiceNumber_Format(t *testing.T) {
	seq := newMockSequenceRepository()
	svc := NewNumberingService(seq)

	at := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	first, err := svc.NextInvoiceNumber(context.Background(), 1, at)
	assert.NoError(t, err)
	assert.Equal(t, "INV-2025010001", first)

	second, err := svc.NextInvoiceNumber(context.Background(), 1, at)
	assert.NoError(t, err)
	assert.Equal(t, "INV-2025010002", second)
}

func TestNextInvoiceNumber_RestartsEachMonth(t *testing.T) {
	seq := newMockSequenceRepository()
	svc := NewNumberingService(seq)

	january := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	february := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	jan, _ := svc.NextInvoiceNumber(context.Background(), 1, january)
	feb, _ := svc.NextInvoiceNumber(context.Background(), 1, february)

	assert.Equal(t, "INV-2025010001", jan)
	assert.Equal(t, "INV-2025020001", feb)
}

func TestNextReceiptNumber_ScopedToInvoice(t *testing.T) {
	seq := newMockSequenceRepository()
	svc := NewNumberingService(seq)

	first, err := svc.NextReceiptNumber(context.Background(), 1, "INV-2025010001")
	assert.NoError(t, err)
	assert.Equal(t, "RCP-INV-2025010001-01", first)

	second, err := svc.NextReceiptNumber(context.Background(), 1, "INV-2025010001")
	assert.NoError(t, err)
	assert.Equal(t, "RCP-INV-2025010001-02", second)

	// A different invoice starts its own suffix sequence.
	other, err := svc.NextReceiptNumber(context.Background(), 1, "INV-2025010002")
	assert.NoError(t, err)
	assert.Equal(t, "RCP-INV-2025010002-01", other)
}

func TestNextAdvanceReceiptNumber_Format(t *testing.T) {
	seq := newMockSequenceRepository()
	svc := NewNumberingService(seq)

	at := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	number, err := svc.NextAdvanceReceiptNumber(context.Background(), 1, at)
	assert.NoError(t, err)
	assert.Equal(t, "RCP-ADV-2025030001", number)

	assert.Equal(t, []string{models.SequenceScopeReceiptAdv + "/202503"}, seq.calls)
}
