// Package stock implements the stock ledger over inventory items and products.
package stock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
)

type Kind string

const (
	KindInventoryItem Kind = "inventory_item"
	KindProduct       Kind = "product"
)

const ReasonDayClose = "day_close"

// Stocked is implemented by every model the ledger can decrement.
type Stocked interface {
	StockName() string
	StockLevel() int64
}

// Reference ties a movement to the business event that caused it.
type Reference struct {
	Reason string
	Date   time.Time
}

// Entry describes one successful decrement. Row is the locked model re-read
// after the write (*models.InventoryItem or *models.Product).
type Entry struct {
	Kind   Kind
	ID     int64
	Name   string
	Before int64
	After  int64
	Row    Stocked
}

type Ledger struct {
	now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// TryDecrement checks and decrements stock for one row. tx must be an open
// transaction: the row stays locked until it commits or rolls back.
func (l *Ledger) TryDecrement(tx *gorm.DB, kind Kind, id, quantity int64, ref Reference) (*Entry, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be greater than 0")
	}

	row, err := newRow(kind)
	if err != nil {
		return nil, err
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(string(kind), id)
		}
		return nil, fmt.Errorf("failed to lock %s %d: %w", kind, id, err)
	}

	before := row.StockLevel()
	if before < quantity {
		return nil, insufficient(kind, id, row, quantity)
	}

	target, _ := newRow(kind)
	result := tx.Model(target).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"updated_at":     l.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrement %s %d: %w", kind, id, result.Error)
	}
	if result.RowsAffected == 0 {
		// Guard lost against a concurrent writer; report what is there now.
		if err := tx.First(row, id).Error; err != nil {
			return nil, fmt.Errorf("failed to reload %s %d: %w", kind, id, err)
		}
		return nil, insufficient(kind, id, row, quantity)
	}

	if err := tx.First(row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload %s %d: %w", kind, id, err)
	}

	movement := models.StockMovement{
		Kind:          string(kind),
		ItemID:        id,
		Quantity:      -quantity,
		StockBefore:   before,
		StockAfter:    row.StockLevel(),
		Reason:        ref.Reason,
		ReferenceDate: ref.Date,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock movement record: %w", err)
	}

	return &Entry{
		Kind:   kind,
		ID:     id,
		Name:   row.StockName(),
		Before: before,
		After:  row.StockLevel(),
		Row:    row,
	}, nil
}

// LockRows locks the listed rows in ascending id order, duplicates collapsed.
// Missing ids are skipped and left for TryDecrement to report.
func (l *Ledger) LockRows(tx *gorm.DB, kind Kind, ids []int64) error {
	ordered := lockOrder(ids)
	if len(ordered) == 0 {
		return nil
	}

	var dest interface{}
	switch kind {
	case KindInventoryItem:
		dest = &[]models.InventoryItem{}
	case KindProduct:
		dest = &[]models.Product{}
	default:
		return apperror.Validation("kind", fmt.Sprintf("unknown stock kind %q", kind))
	}

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ordered).
		Order("id ASC").
		Find(dest).Error
	if err != nil {
		return fmt.Errorf("failed to lock %s rows: %w", kind, err)
	}
	return nil
}

func lockOrder(ids []int64) []int64 {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	return slices.Compact(ordered)
}

// ListLowStock returns inventory items at or below their reorder level, lowest first.
func (l *Ledger) ListLowStock(ctx context.Context, db *gorm.DB) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := db.WithContext(ctx).
		Where("stock_quantity <= reorder_level").
		Order("stock_quantity ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func newRow(kind Kind) (Stocked, error) {
	switch kind {
	case KindInventoryItem:
		return &models.InventoryItem{}, nil
	case KindProduct:
		return &models.Product{}, nil
	default:
		return nil, apperror.Validation("kind", fmt.Sprintf("unknown stock kind %q", kind))
	}
}

func insufficient(kind Kind, id int64, row Stocked, required int64) error {
	return &apperror.InsufficientStockError{
		Kind:      string(kind),
		ID:        id,
		Name:      row.StockName(),
		Available: row.StockLevel(),
		Required:  required,
	}
}
