// Package sequence issues patient numbers from a persistent monotonic counter.
package sequence

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database"
	"clinic-system/internal/database/models"
)

const (
	PatientCounter = "patient_number"
	PatientPrefix  = "#FDM"
)

type Allocator struct {
	sequence string
	counter  string
}

func NewPatientAllocator() *Allocator {
	return &Allocator{
		sequence: database.PatientNumberSequence,
		counter:  PatientCounter,
	}
}

// Next fetches and increments the counter in one statement. On postgres it is a
// sequence, so a rolled back caller leaves a gap but never hands out a duplicate.
func (a *Allocator) Next(tx *gorm.DB) (int64, error) {
	var value int64

	if tx.Dialector.Name() == "postgres" {
		if err := tx.Raw("SELECT nextval(?::regclass)", a.sequence).Scan(&value).Error; err != nil {
			return 0, apperror.Persistence("allocate patient number", err)
		}
		return value, nil
	}

	// Counter row fallback: the UPDATE takes the write lock before the read.
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Counter{Name: a.counter}).Error
	if err != nil {
		return 0, apperror.Persistence("allocate patient number", err)
	}
	err = tx.Model(&models.Counter{}).
		Where("name = ?", a.counter).
		UpdateColumn("value", gorm.Expr("value + 1")).Error
	if err != nil {
		return 0, apperror.Persistence("allocate patient number", err)
	}
	err = tx.Model(&models.Counter{}).
		Select("value").
		Where("name = ?", a.counter).
		Scan(&value).Error
	if err != nil {
		return 0, apperror.Persistence("allocate patient number", err)
	}
	return value, nil
}

// NextPatientNumber allocates a number and formats it as a patient identifier.
func (a *Allocator) NextPatientNumber(tx *gorm.DB) (string, error) {
	n, err := a.Next(tx)
	if err != nil {
		return "", err
	}
	return FormatPatientNumber(n), nil
}

func FormatPatientNumber(n int64) string {
	return fmt.Sprintf("%s%06d", PatientPrefix, n)
}
