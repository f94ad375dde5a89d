package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-system/internal/database/models"
)

// PatientNumberSequence is the postgres sequence behind patient identifiers.
const PatientNumberSequence = "patient_number_seq"

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func MigrateReconciliationDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.InventoryItem{},
		&models.Product{},
		&models.StockMovement{},
		&models.SaleRecord{},
		&models.DailyReport{},
	)
}

func MigratePatientDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Patient{},
		&models.PaymentPlan{},
		&models.Payment{},
		&models.Counter{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		stmt := fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH 1 INCREMENT BY 1", PatientNumberSequence)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", PatientNumberSequence, err)
		}
	}

	return nil
}
