package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clinic-system/internal/database/models"
)

var now = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 { return &v }

func freqPtr(f models.PaymentFrequency) *models.PaymentFrequency { return &f }

func plan(installment *int64, freq *models.PaymentFrequency, startDaysAgo int) models.PaymentPlan {
	return models.PaymentPlan{
		ID:                   1,
		TotalAmount:          120000,
		AmountPerInstallment: installment,
		PaymentFrequency:     freq,
		StartDate:            now.AddDate(0, 0, -startDaysAgo),
	}
}

func paid(amounts ...int64) []models.Payment {
	payments := make([]models.Payment, 0, len(amounts))
	for _, a := range amounts {
		payments = append(payments, models.Payment{Amount: a, Status: "completed"})
	}
	return payments
}

func TestOverdueAmount(t *testing.T) {
	tests := []struct {
		name     string
		plan     models.PaymentPlan
		payments []models.Payment
		want     int64
	}{
		{
			name:     "monthly plan two periods in with partial payment",
			plan:     plan(int64Ptr(10000), freqPtr(models.FrequencyMonthly), 65),
			payments: paid(5000),
			want:     15000,
		},
		{
			name:     "weekly plan fully paid",
			plan:     plan(int64Ptr(2500), freqPtr(models.FrequencyWeekly), 21),
			payments: paid(2500, 2500, 2500),
			want:     0,
		},
		{
			name:     "biweekly plan with overpayment",
			plan:     plan(int64Ptr(4000), freqPtr(models.FrequencyBiweekly), 30),
			payments: paid(20000),
			want:     0,
		},
		{
			name:     "first period not yet elapsed",
			plan:     plan(int64Ptr(10000), freqPtr(models.FrequencyMonthly), 29),
			payments: nil,
			want:     0,
		},
		{
			name: "no installment amount",
			plan: plan(nil, freqPtr(models.FrequencyMonthly), 400),
			want: 0,
		},
		{
			name: "no frequency",
			plan: plan(int64Ptr(10000), nil, 400),
			want: 0,
		},
		{
			name: "custom frequency has no fixed period",
			plan: plan(int64Ptr(10000), freqPtr(models.FrequencyCustom), 400),
			want: 0,
		},
		{
			name: "start date in the future counts elapsed days in absolute value",
			plan: plan(int64Ptr(1000), freqPtr(models.FrequencyWeekly), -15),
			want: 2000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverdueAmount(tt.plan, tt.payments, now))
		})
	}
}

func TestEvaluate_CountsPaymentsOfAnyStatus(t *testing.T) {
	p := plan(int64Ptr(10000), freqPtr(models.FrequencyMonthly), 65)
	payments := []models.Payment{
		{Amount: 5000, Status: "completed"},
		{Amount: 3000, Status: "pending"},
		{Amount: 2000, Status: "failed"},
	}

	st := Evaluate(p, payments, now)

	assert.True(t, st.Scheduled)
	assert.Equal(t, int64(65), st.ElapsedDays)
	assert.Equal(t, int64(2), st.ElapsedInstallments)
	assert.Equal(t, int64(20000), st.ExpectedAmount)
	assert.Equal(t, int64(10000), st.TotalPaid)
	assert.Equal(t, int64(10000), st.OverdueAmount)
	assert.Equal(t, int64(110000), st.RemainingAmount)
}

func TestOverdueAmount_Monotonic(t *testing.T) {
	p := plan(int64Ptr(3000), freqPtr(models.FrequencyWeekly), 0)

	prev := int64(-1)
	for days := 0; days <= 120; days++ {
		p.StartDate = now.AddDate(0, 0, -days)
		got := OverdueAmount(p, paid(4000), now)
		assert.GreaterOrEqual(t, got, int64(0))
		assert.GreaterOrEqual(t, got, prev, "overdue must not shrink as days pass (day %d)", days)
		prev = got
	}

	p.StartDate = now.AddDate(0, 0, -90)
	prev = OverdueAmount(p, nil, now)
	for total := int64(0); total <= 50000; total += 1000 {
		got := OverdueAmount(p, paid(total), now)
		assert.GreaterOrEqual(t, got, int64(0))
		assert.LessOrEqual(t, got, prev, "overdue must not grow as payments grow (paid %d)", total)
		prev = got
	}
}

func TestEvaluate_ElapsedDaysBeyondDurationRange(t *testing.T) {
	tests := []struct {
		name         string
		start        time.Time
		days         int64
		installments int64
	}{
		{
			name:         "start centuries in the future",
			start:        time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC),
			days:         136308,
			installments: 4543,
		},
		{
			name:         "zero start date",
			start:        time.Time{},
			days:         739907,
			installments: 24663,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan(int64Ptr(10000), freqPtr(models.FrequencyMonthly), 0)
			p.StartDate = tt.start

			st := Evaluate(p, nil, now)
			assert.Equal(t, tt.days, st.ElapsedDays)
			assert.Equal(t, tt.installments, st.ElapsedInstallments)
			assert.Equal(t, tt.installments*10000, st.ExpectedAmount)
			assert.Positive(t, st.OverdueAmount)
		})
	}
}

func TestDaysBetween_IsSymmetricAndTruncates(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 500, time.UTC)

	assert.Equal(t, int64(0), daysBetween(start, start))
	assert.Equal(t, int64(0), daysBetween(start.Add(24*time.Hour-time.Nanosecond), start))
	assert.Equal(t, int64(1), daysBetween(start.Add(24*time.Hour), start))
	assert.Equal(t, int64(1), daysBetween(start, start.Add(24*time.Hour)))
	assert.Equal(t, int64(10), daysBetween(start, start.AddDate(0, 0, 10).Add(time.Hour)))
}
