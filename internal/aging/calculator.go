// Package aging computes how far an installment plan is behind its schedule.
package aging

import (
	"time"

	"clinic-system/internal/database/models"
)

const secondsPerDay = 24 * 60 * 60

// PeriodDays is the installment period per frequency. Months are a flat 30 days.
var PeriodDays = map[models.PaymentFrequency]int64{
	models.FrequencyWeekly:   7,
	models.FrequencyBiweekly: 14,
	models.FrequencyMonthly:  30,
}

// Status is the full aging breakdown for one plan at one instant.
type Status struct {
	PlanID              int64 `json:"plan_id"`
	Scheduled           bool  `json:"scheduled"`
	ElapsedDays         int64 `json:"elapsed_days"`
	ElapsedInstallments int64 `json:"elapsed_installments"`
	ExpectedAmount      int64 `json:"expected_amount"`
	TotalPaid           int64 `json:"total_paid"`
	OverdueAmount       int64 `json:"overdue_amount"`
	RemainingAmount     int64 `json:"remaining_amount"`
}

// OverdueAmount is Evaluate(...).OverdueAmount.
func OverdueAmount(plan models.PaymentPlan, payments []models.Payment, now time.Time) int64 {
	return Evaluate(plan, payments, now).OverdueAmount
}

// Evaluate never fails: a plan without a computable fixed schedule is simply
// never overdue. Every payment counts toward TotalPaid whatever its status.
func Evaluate(plan models.PaymentPlan, payments []models.Payment, now time.Time) Status {
	st := Status{PlanID: plan.ID}

	for _, p := range payments {
		st.TotalPaid += p.Amount
	}
	if remaining := plan.TotalAmount - st.TotalPaid; remaining > 0 {
		st.RemainingAmount = remaining
	}

	st.ElapsedDays = daysBetween(now, plan.StartDate)

	if plan.AmountPerInstallment == nil || plan.PaymentFrequency == nil {
		return st
	}
	period, ok := PeriodDays[*plan.PaymentFrequency]
	if !ok {
		return st
	}

	st.Scheduled = true
	st.ElapsedInstallments = st.ElapsedDays / period
	st.ExpectedAmount = st.ElapsedInstallments * *plan.AmountPerInstallment
	if overdue := st.ExpectedAmount - st.TotalPaid; overdue > 0 {
		st.OverdueAmount = overdue
	}

	return st
}

// daysBetween counts whole days between a and b, in either order. It works on
// Unix seconds so spans beyond the range of time.Duration stay exact.
func daysBetween(a, b time.Time) int64 {
	if a.Before(b) {
		a, b = b, a
	}
	secs := a.Unix() - b.Unix()
	if a.Nanosecond() < b.Nanosecond() {
		secs--
	}
	return secs / secondsPerDay
}
