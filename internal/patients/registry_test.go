package patients

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/testutil"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	r := NewRegistry(db, zap.NewNop())
	r.now = func() time.Time { return fixedNow }
	return r, db
}

func int64Ptr(v int64) *int64 { return &v }

func freqPtr(f models.PaymentFrequency) *models.PaymentFrequency { return &f }

func seedPlan(t *testing.T, db *gorm.DB, patient models.Patient, plan models.PaymentPlan, payments ...int64) models.PaymentPlan {
	t.Helper()
	plan.PatientID = patient.ID
	require.NoError(t, db.Create(&plan).Error)
	for _, amount := range payments {
		require.NoError(t, db.Create(&models.Payment{
			PlanID:    &plan.ID,
			PatientID: patient.ID,
			Amount:    amount,
			Status:    "completed",
		}).Error)
	}
	return plan
}

func TestCreatePatient(t *testing.T) {
	r, _ := setup(t)
	phone := " 0812-555-0100 "

	first, err := r.CreatePatient(context.Background(), CreatePatientRequest{FullName: "Ana Putri", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "#FDM000001", first.PatientNumber)
	require.NotNil(t, first.Phone)
	assert.Equal(t, "0812-555-0100", *first.Phone)

	second, err := r.CreatePatient(context.Background(), CreatePatientRequest{FullName: "Budi"})
	require.NoError(t, err)
	assert.Equal(t, "#FDM000002", second.PatientNumber)
	assert.Nil(t, second.Phone)
}

func TestCreatePatient_RequiresName(t *testing.T) {
	r, db := setup(t)

	_, err := r.CreatePatient(context.Background(), CreatePatientRequest{FullName: "   "})
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "full_name", ve.Field)

	var n int64
	require.NoError(t, db.Model(&models.Patient{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreatePatient_ConcurrentNumbersAreUnique(t *testing.T) {
	r, _ := setup(t)
	pattern := regexp.MustCompile(`^#FDM\d{6}$`)

	const callers = 15
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.CreatePatient(context.Background(), CreatePatientRequest{FullName: "Walk-in"})
			if !assert.NoError(t, err) {
				return
			}
			assert.Regexp(t, pattern, p.PatientNumber)
			mu.Lock()
			numbers[p.PatientNumber] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, callers)
}

func TestGetPlanStatus(t *testing.T) {
	r, db := setup(t)
	patient := models.Patient{PatientNumber: "#FDM000010", FullName: "Citra"}
	require.NoError(t, db.Create(&patient).Error)

	plan := seedPlan(t, db, patient, models.PaymentPlan{
		TotalAmount:          120000,
		AmountPerInstallment: int64Ptr(10000),
		PaymentFrequency:     freqPtr(models.FrequencyMonthly),
		StartDate:            fixedNow.AddDate(0, 0, -65),
	}, 5000)

	got, err := r.GetPlanStatus(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), got.Aging.OverdueAmount)
	assert.Equal(t, int64(5000), got.Aging.TotalPaid)
	assert.Equal(t, int64(115000), got.Aging.RemainingAmount)
	require.NotNil(t, got.Plan.Patient)
	assert.Equal(t, "Citra", got.Plan.Patient.FullName)

	_, err = r.GetPlanStatus(context.Background(), 999)
	var nf *apperror.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "payment_plan", nf.Kind)
}

func TestListOverduePlans(t *testing.T) {
	r, db := setup(t)
	patient := models.Patient{PatientNumber: "#FDM000011", FullName: "Dewi"}
	require.NoError(t, db.Create(&patient).Error)

	behind := seedPlan(t, db, patient, models.PaymentPlan{
		TotalAmount:          30000,
		AmountPerInstallment: int64Ptr(5000),
		PaymentFrequency:     freqPtr(models.FrequencyWeekly),
		StartDate:            fixedNow.AddDate(0, 0, -21),
	}, 5000)
	seedPlan(t, db, patient, models.PaymentPlan{
		TotalAmount:          30000,
		AmountPerInstallment: int64Ptr(5000),
		PaymentFrequency:     freqPtr(models.FrequencyWeekly),
		StartDate:            fixedNow.AddDate(0, 0, -21),
	}, 5000, 5000, 5000)
	seedPlan(t, db, patient, models.PaymentPlan{
		TotalAmount: 50000,
		StartDate:   fixedNow.AddDate(0, -6, 0),
	})
	seedPlan(t, db, patient, models.PaymentPlan{
		TotalAmount:          30000,
		AmountPerInstallment: int64Ptr(5000),
		PaymentFrequency:     freqPtr(models.FrequencyWeekly),
		StartDate:            fixedNow.AddDate(0, 0, -70),
		Status:               models.PlanStatusCancelled,
	})

	plans, err := r.ListOverduePlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, behind.ID, plans[0].Plan.ID)
	assert.Equal(t, int64(10000), plans[0].Aging.OverdueAmount)
	require.NotNil(t, plans[0].Plan.Patient)
	assert.Equal(t, "#FDM000011", plans[0].Plan.Patient.PatientNumber)
}
