// Package sales materializes sale records for sold product lines.
package sales

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"clinic-system/internal/database/models"
)

type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Compute builds the sale record for quantity units of product. An unknown cost
// price counts as 0; a negative profit is a loss and is kept as-is.
func (r *Recorder) Compute(product *models.Product, quantity int64, asOf time.Time) models.SaleRecord {
	unitPrice := product.Price
	var costPrice int64
	if product.CostPrice != nil {
		costPrice = *product.CostPrice
	}

	return models.SaleRecord{
		ProductID:   product.ID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		CostPrice:   costPrice,
		TotalAmount: unitPrice * quantity,
		Profit:      (unitPrice - costPrice) * quantity,
		SaleDate:    asOf,
	}
}

// Record computes and appends the sale inside tx. Stock must already have been
// checked and decremented by the caller.
func (r *Recorder) Record(tx *gorm.DB, product *models.Product, quantity int64, asOf time.Time) (*models.SaleRecord, error) {
	sale := r.Compute(product, quantity, asOf)
	if err := tx.Create(&sale).Error; err != nil {
		return nil, fmt.Errorf("failed to create sale record for product %d: %w", product.ID, err)
	}
	return &sale, nil
}

// ListByDate returns the sale records whose sale date falls on day.
func (r *Recorder) ListByDate(ctx context.Context, db *gorm.DB, day time.Time) ([]models.SaleRecord, error) {
	start := Day(day)
	var records []models.SaleRecord
	err := db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", start, start.AddDate(0, 0, 1)).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Day truncates t to midnight UTC of its calendar date. Report and sale dates
// are stored in this form.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
