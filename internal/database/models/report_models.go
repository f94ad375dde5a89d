package models

import (
	"time"

	"gorm.io/datatypes"
)

// SaleRecord is immutable once written. Totals are captured at sale time and are
// never recomputed from the product's current price.
type SaleRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	CostPrice   int64     `gorm:"not null" json:"cost_price"`
	TotalAmount int64     `gorm:"not null" json:"total_amount"`
	Profit      int64     `gorm:"not null" json:"profit"`
	SaleDate    time.Time `gorm:"not null;index" json:"sale_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type BalanceEntry struct {
	PaymentMethod string `json:"payment_method"`
	Amount        int64  `json:"amount"`
}

type InventoryUsage struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

type ProductSale struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// DailyReport is the append-only snapshot of one day close. The line-item
// snapshots hold exactly what the operator submitted.
type DailyReport struct {
	ID               int64                               `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportDate       time.Time                           `gorm:"not null;index" json:"report_date"`
	CheckedInCount   int64                               `gorm:"not null;default:0" json:"checked_in_count"`
	NewPatientsCount int64                               `gorm:"not null;default:0" json:"new_patients_count"`
	TotalPayments    int64                               `gorm:"not null;default:0" json:"total_payments"`
	TotalExpenses    int64                               `gorm:"not null;default:0" json:"total_expenses"`
	Balances         datatypes.JSONSlice[BalanceEntry]   `gorm:"not null" json:"balances"`
	InventoryUsed    datatypes.JSONSlice[InventoryUsage] `gorm:"not null" json:"inventory_used"`
	ProductsSold     datatypes.JSONSlice[ProductSale]    `gorm:"not null" json:"products_sold"`
	AdditionalNote   *string                             `gorm:"type:text" json:"additional_note,omitempty"`
	SubmittedBy      string                              `gorm:"size:255;not null" json:"submitted_by"`
	CreatedAt        time.Time                           `json:"created_at"`
}

// NetAmount is payments minus expenses for the day.
func (r *DailyReport) NetAmount() int64 {
	return r.TotalPayments - r.TotalExpenses
}

func (r *DailyReport) BalancesTotal() int64 {
	var total int64
	for _, b := range r.Balances {
		total += b.Amount
	}
	return total
}
