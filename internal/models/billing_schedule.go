package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingSchedule defines a recurring billing obligation for one enrollment.
// The schedule only drives invoice creation; payment flows never mutate it.
type BillingSchedule struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TenantID        uint            `gorm:"not null;index:idx_schedules_tenant_next" json:"tenant_id"`
	StudentID       uint            `gorm:"not null;index" json:"student_id"`
	EnrollmentID    uint            `gorm:"not null;index" json:"enrollment_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Frequency       string          `gorm:"size:12;default:monthly;not null" json:"frequency"`
	NextBillingDate time.Time       `gorm:"type:date;not null;index:idx_schedules_tenant_next" json:"next_billing_date"`
	Active          bool            `gorm:"default:true;not null" json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Associations
	Student    Student    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
}

// TableName specifies the table name for BillingSchedule
func (BillingSchedule) TableName() string {
	return "billing_schedules"
}

// Schedule frequency constants
const (
	ScheduleFrequencyMonthly   = "monthly"
	ScheduleFrequencyQuarterly = "quarterly"
	ScheduleFrequencyTermly    = "termly"
)

// IsDue returns true when the schedule should produce an invoice.
func (s *BillingSchedule) IsDue(now time.Time) bool {
	return s.Active && !s.NextBillingDate.After(now)
}

// Advance moves NextBillingDate forward by one frequency interval.
func (s *BillingSchedule) Advance() {
	switch s.Frequency {
	case ScheduleFrequencyQuarterly:
		s.NextBillingDate = s.NextBillingDate.AddDate(0, 3, 0)
	case ScheduleFrequencyTermly:
		s.NextBillingDate = s.NextBillingDate.AddDate(0, 4, 0)
	default:
		s.NextBillingDate = s.NextBillingDate.AddDate(0, 1, 0)
	}
}
