package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// The directory models are the billing core's read-only view of the
// surrounding school system: who the students are and what they are
// enrolled in. Enrollment/student lifecycle management lives elsewhere.

// Tenant is one isolated school. Every billing row is scoped by tenant id;
// the filter is a security boundary, not an optimization.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Subdomain string    `gorm:"size:63;not null;uniqueIndex" json:"subdomain"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// Student represents an enrolled student
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	FullName  string    `gorm:"size:120;not null" json:"full_name"`
	RollNo    string    `gorm:"size:30" json:"roll_no"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Enrollments []Enrollment `gorm:"foreignKey:StudentID" json:"enrollments,omitempty"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// Subject is a billable course offering with a monthly base fee.
type Subject struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TenantID  uint            `gorm:"not null;index" json:"tenant_id"`
	Name      string          `gorm:"size:80;not null" json:"name"`
	BaseFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_fee"`
	Active    bool            `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "subjects"
}

// Enrollment links a student to a subject. Only active enrollments are
// picked up by the monthly batch and the pro-ration routine.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   uint      `gorm:"not null;index" json:"tenant_id"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	SubjectID  uint      `gorm:"not null;index" json:"subject_id"`
	EnrolledAt time.Time `gorm:"type:date;not null" json:"enrolled_at"`
	Active     bool      `gorm:"default:true;not null;index" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// User represents a staff member (bursar, admin) who records payments and
// adjustments. Authentication lives outside this service; the billing core
// only needs the identity for audit attribution.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	FullName  string    `gorm:"size:120;not null" json:"full_name"`
	Email     string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Role      string    `gorm:"size:20;default:bursar;not null" json:"role"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// User role constants
const (
	RoleAdmin  = "admin"
	RoleBursar = "bursar"
	RoleViewer = "viewer"
)
