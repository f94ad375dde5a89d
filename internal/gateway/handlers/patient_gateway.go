package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-system/internal/apperror"
	"clinic-system/internal/money"
	proto "clinic-system/proto/patient"
)

type PatientHTTPHandler struct {
	patientClient proto.PatientServiceClient
}

func NewPatientHTTPHandler(patientClient proto.PatientServiceClient) *PatientHTTPHandler {
	return &PatientHTTPHandler{
		patientClient: patientClient,
	}
}

type CreatePatientRequest struct {
	FullName string  `json:"full_name" binding:"required,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
}

type OverdueQuery struct {
	MinOverdue string `form:"min_overdue"`
}

// PlanStatusView adds display strings for the money fields.
type PlanStatusView struct {
	*proto.PlanStatus
	Formatted map[string]string `json:"formatted"`
}

func newPlanStatusView(p *proto.PlanStatus) PlanStatusView {
	return PlanStatusView{
		PlanStatus: p,
		Formatted: map[string]string{
			"total_amount":     money.FormatMinor(p.TotalAmount),
			"expected_amount":  money.FormatMinor(p.ExpectedAmount),
			"total_paid":       money.FormatMinor(p.TotalPaid),
			"overdue_amount":   money.FormatMinor(p.OverdueAmount),
			"remaining_amount": money.FormatMinor(p.RemainingAmount),
		},
	}
}

func (h *PatientHTTPHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, apperror.ReasonValidation, "Invalid request format: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.patientClient.CreatePatient(ctx, &proto.CreatePatientRequest{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Patient created successfully", resp.Patient))
}

func (h *PatientHTTPHandler) GetPlanStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.patientClient.GetPlanStatus(ctx, &proto.GetPlanStatusRequest{PlanID: id})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment plan status retrieved successfully", newPlanStatusView(resp.Plan)))
}

// ListOverduePlans accepts min_overdue as a decimal amount, e.g. "50.00". It
// never notifies anyone; see SendOverdueReminders.
func (h *PatientHTTPHandler) ListOverduePlans(c *gin.Context) {
	var q OverdueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, apperror.ReasonValidation, "Invalid query: "+err.Error())
		return
	}

	minOverdue, ok := parseMinOverdue(c, q.MinOverdue)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.patientClient.ListOverduePlans(ctx, &proto.ListOverduePlansRequest{})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Overdue payment plans retrieved successfully", overdueSummary(resp.Plans, minOverdue)))
}

// SendOverdueReminders evaluates every active plan fresh and hands each
// overdue one to the notifier.
func (h *PatientHTTPHandler) SendOverdueReminders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.patientClient.ListOverduePlans(ctx, &proto.ListOverduePlansRequest{Notify: true})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	summary := overdueSummary(resp.Plans, 0)
	summary["notified"] = resp.Notified
	c.JSON(http.StatusOK, successResponse("Overdue reminders sent", summary))
}

func parseMinOverdue(c *gin.Context, raw string) (int64, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := money.ParseMinor(raw)
	if err != nil || v < 0 {
		badRequest(c, apperror.ReasonValidation, "Invalid min_overdue")
		return 0, false
	}
	return v, true
}

func overdueSummary(plans []*proto.PlanStatus, minOverdue int64) gin.H {
	views := make([]PlanStatusView, 0, len(plans))
	var totalOverdue int64
	for _, p := range plans {
		if p.OverdueAmount < minOverdue {
			continue
		}
		views = append(views, newPlanStatusView(p))
		totalOverdue += p.OverdueAmount
	}

	return gin.H{
		"plans":                   views,
		"total_overdue":           totalOverdue,
		"total_overdue_formatted": money.FormatMinor(totalOverdue),
	}
}
