package models

import "time"

type PaymentFrequency string

const (
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
	FrequencyCustom   PaymentFrequency = "custom"
)

const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"
)

type Patient struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientNumber string    `gorm:"size:32;uniqueIndex;not null" json:"patient_number"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	Phone         *string   `gorm:"size:50" json:"phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PaymentPlan is an installment agreement. AmountPerInstallment and
// PaymentFrequency are nil for flexible plans.
type PaymentPlan struct {
	ID                   int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID            int64             `gorm:"not null;index" json:"patient_id"`
	TotalAmount          int64             `gorm:"not null" json:"total_amount"`
	AmountPerInstallment *int64            `json:"amount_per_installment,omitempty"`
	PaymentFrequency     *PaymentFrequency `gorm:"size:16" json:"payment_frequency,omitempty"`
	StartDate            time.Time         `gorm:"not null" json:"start_date"`
	Status               string            `gorm:"size:32;not null;default:'active';index" json:"status"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`

	Patient  *Patient  `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Payments []Payment `gorm:"foreignKey:PlanID" json:"payments,omitempty"`
}

type Payment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID    *int64    `gorm:"index" json:"plan_id,omitempty"`
	PatientID int64     `gorm:"not null;index" json:"patient_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Status    string    `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Counter backs the patient number sequence on databases without native sequences.
type Counter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}
