package database

import (
	"fmt"
	"os"
	"time"

	pkgLogger "github.com/usamapuri/frontbench-api/pkg/logger"

	"github.com/usamapuri/frontbench-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // Improve performance
		PrepareStmt:            true, // Cache prepared statements
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate runs schema migrations for all billing models, plus the
// constraints gorm's struct tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Student{},
		&models.Subject{},
		&models.Enrollment{},
		&models.Invoice{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.InvoiceAdjustment{},
		&models.BillingSchedule{},
		&models.NumberSequence{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One monthly invoice per student per billing period. Partial index, so
	// prorated and custom invoices for the same period stay unaffected.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_monthly_once_per_period
		ON invoices (tenant_id, student_id, billing_period_start)
		WHERE invoice_type = 'monthly'`).Error; err != nil {
		return fmt.Errorf("create monthly idempotency index: %w", err)
	}

	return nil
}
