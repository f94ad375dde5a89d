// Package patients registers patients and reports on their payment plans.
package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-system/internal/aging"
	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/sequence"
)

type CreatePatientRequest struct {
	FullName string
	Phone    *string
}

// PlanAging pairs a plan, loaded with its patient and payments, with its
// aging at the time of the call.
type PlanAging struct {
	Plan  models.PaymentPlan
	Aging aging.Status
}

type Registry struct {
	db        *gorm.DB
	allocator *sequence.Allocator
	log       *zap.Logger
	now       func() time.Time
}

func NewRegistry(db *gorm.DB, log *zap.Logger) *Registry {
	return &Registry{
		db:        db,
		allocator: sequence.NewPatientAllocator(),
		log:       log,
		now:       time.Now,
	}
}

// CreatePatient allocates the patient number and inserts the patient in one
// transaction.
func (r *Registry) CreatePatient(ctx context.Context, req CreatePatientRequest) (*models.Patient, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, apperror.Validation("full_name", "is required")
	}

	patient := models.Patient{FullName: name}
	if req.Phone != nil {
		if phone := strings.TrimSpace(*req.Phone); phone != "" {
			patient.Phone = &phone
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := r.allocator.NextPatientNumber(tx)
		if err != nil {
			return err
		}
		patient.PatientNumber = number
		return tx.Create(&patient).Error
	})
	if err != nil {
		r.log.Error("failed to create patient", zap.Error(err))
		return nil, apperror.Persistence("create patient", err)
	}

	r.log.Info("patient created",
		zap.Int64("patient_id", patient.ID),
		zap.String("patient_number", patient.PatientNumber),
	)
	return &patient, nil
}

func (r *Registry) GetPlanStatus(ctx context.Context, planID int64) (*PlanAging, error) {
	var plan models.PaymentPlan
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Payments").
		First(&plan, planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment_plan", planID)
		}
		return nil, apperror.Persistence("get payment plan", err)
	}

	return &PlanAging{
		Plan:  plan,
		Aging: aging.Evaluate(plan, plan.Payments, r.now()),
	}, nil
}

// ListOverduePlans evaluates every active plan and keeps those behind schedule,
// in plan id order.
func (r *Registry) ListOverduePlans(ctx context.Context) ([]PlanAging, error) {
	var plans []models.PaymentPlan
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Payments").
		Where("status = ?", models.PlanStatusActive).
		Order("id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, apperror.Persistence("list payment plans", err)
	}

	now := r.now()
	overdue := make([]PlanAging, 0)
	for _, plan := range plans {
		st := aging.Evaluate(plan, plan.Payments, now)
		if st.OverdueAmount > 0 {
			overdue = append(overdue, PlanAging{Plan: plan, Aging: st})
		}
	}
	return overdue, nil
}
