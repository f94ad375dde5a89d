package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/notify"
	"clinic-system/internal/patients"
	proto "clinic-system/proto/patient"
)

const (
	PATIENT_CACHE_PREFIX = "patient:"
	OVERDUE_CACHE_KEY    = PATIENT_CACHE_PREFIX + "overdue-plans"
)

type PatientHandler struct {
	proto.UnimplementedPatientServiceServer
	registry   *patients.Registry
	redis      *redis.Client
	notifier   notify.Notifier
	log        *zap.Logger
	overdueTTL time.Duration
}

func NewPatientHandler(registry *patients.Registry, redisClient *redis.Client, notifier notify.Notifier, log *zap.Logger, overdueTTL time.Duration) *PatientHandler {
	return &PatientHandler{
		registry:   registry,
		redis:      redisClient,
		notifier:   notifier,
		log:        log,
		overdueTTL: overdueTTL,
	}
}

// -- MODEL TO PROTO --
func patientToProto(p *models.Patient) *proto.Patient {
	if p == nil {
		return nil
	}
	return &proto.Patient{
		ID:            p.ID,
		PatientNumber: p.PatientNumber,
		FullName:      p.FullName,
		Phone:         p.Phone,
		CreatedAt:     p.CreatedAt,
	}
}

func planToProto(pa patients.PlanAging) *proto.PlanStatus {
	out := &proto.PlanStatus{
		PlanID:              pa.Plan.ID,
		PatientID:           pa.Plan.PatientID,
		Patient:             patientToProto(pa.Plan.Patient),
		Status:              pa.Plan.Status,
		TotalAmount:         pa.Plan.TotalAmount,
		Scheduled:           pa.Aging.Scheduled,
		ElapsedDays:         pa.Aging.ElapsedDays,
		ElapsedInstallments: pa.Aging.ElapsedInstallments,
		ExpectedAmount:      pa.Aging.ExpectedAmount,
		TotalPaid:           pa.Aging.TotalPaid,
		OverdueAmount:       pa.Aging.OverdueAmount,
		RemainingAmount:     pa.Aging.RemainingAmount,
	}
	if pa.Plan.PaymentFrequency != nil {
		freq := string(*pa.Plan.PaymentFrequency)
		out.PaymentFrequency = &freq
	}
	return out
}

func (s *PatientHandler) CreatePatient(ctx context.Context, req *proto.CreatePatientRequest) (*proto.CreatePatientResponse, error) {
	patient, err := s.registry.CreatePatient(ctx, patients.CreatePatientRequest{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, err
	}
	return &proto.CreatePatientResponse{Patient: patientToProto(patient)}, nil
}

func (s *PatientHandler) GetPlanStatus(ctx context.Context, req *proto.GetPlanStatusRequest) (*proto.GetPlanStatusResponse, error) {
	if req.PlanID <= 0 {
		return nil, apperror.Validation("plan_id", "must be positive")
	}

	pa, err := s.registry.GetPlanStatus(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	return &proto.GetPlanStatusResponse{Plan: planToProto(*pa)}, nil
}

// ListOverduePlans serves the overdue list from cache unless a reminder sweep
// is requested, which always evaluates fresh and notifies each plan.
func (s *PatientHandler) ListOverduePlans(ctx context.Context, req *proto.ListOverduePlansRequest) (*proto.ListOverduePlansResponse, error) {
	if !req.Notify {
		if resp, ok := s.cachedOverdue(ctx); ok {
			return resp, nil
		}
	}

	plans, err := s.registry.ListOverduePlans(ctx)
	if err != nil {
		return nil, err
	}

	resp := &proto.ListOverduePlansResponse{Plans: make([]*proto.PlanStatus, 0, len(plans))}
	for _, pa := range plans {
		resp.Plans = append(resp.Plans, planToProto(pa))
	}
	s.cacheOverdue(ctx, resp)

	if req.Notify {
		for _, pa := range plans {
			if err := s.notifier.Notify(ctx, notify.NewEvent(notify.EventPlanOverdue, overdueReminder(pa))); err != nil {
				s.log.Warn("failed to publish overdue reminder",
					zap.Int64("plan_id", pa.Plan.ID),
					zap.Error(err),
				)
				continue
			}
			resp.Notified++
		}
		s.log.Info("overdue sweep finished",
			zap.Int("overdue", len(plans)),
			zap.Int("notified", resp.Notified),
		)
	}

	return resp, nil
}

func overdueReminder(pa patients.PlanAging) notify.OverdueReminder {
	reminder := notify.OverdueReminder{
		PlanID:        pa.Plan.ID,
		PatientID:     pa.Plan.PatientID,
		OverdueAmount: pa.Aging.OverdueAmount,
	}
	if p := pa.Plan.Patient; p != nil {
		reminder.PatientNumber = p.PatientNumber
		reminder.FullName = p.FullName
		reminder.Phone = p.Phone
	}
	return reminder
}

func (s *PatientHandler) cachedOverdue(ctx context.Context) (*proto.ListOverduePlansResponse, bool) {
	data, err := s.redis.Get(ctx, OVERDUE_CACHE_KEY).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache read failed", zap.String("key", OVERDUE_CACHE_KEY), zap.Error(err))
		}
		return nil, false
	}
	var resp proto.ListOverduePlansResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (s *PatientHandler) cacheOverdue(ctx context.Context, resp *proto.ListOverduePlansResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, OVERDUE_CACHE_KEY, data, s.overdueTTL).Err(); err != nil {
		s.log.Warn("cache write failed", zap.String("key", OVERDUE_CACHE_KEY), zap.Error(err))
	}
}
