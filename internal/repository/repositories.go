package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Invoice    InvoiceRepository
	Payment    PaymentRepository
	Adjustment AdjustmentRepository
	Sequence   SequenceRepository
	Directory  DirectoryRepository
	Schedule   ScheduleRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Invoice:    NewInvoiceRepository(db),
		Payment:    NewPaymentRepository(db),
		Adjustment: NewAdjustmentRepository(db),
		Sequence:   NewSequenceRepository(db),
		Directory:  NewDirectoryRepository(db),
		Schedule:   NewScheduleRepository(db),
	}
}

// WithTx returns a set of repositories bound to the given transaction.
// Services use this inside db.Transaction so a multi-step ledger mutation
// (payment + allocations + invoice updates) commits or rolls back as one.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
