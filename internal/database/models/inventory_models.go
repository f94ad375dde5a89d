package models

import "time"

// InventoryItem is a clinical consumable. It is used up by treatments, never sold.
type InventoryItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	StockQuantity int64     `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	ReorderLevel  int64     `gorm:"not null;default:0" json:"reorder_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (i *InventoryItem) StockName() string { return i.Name }

func (i *InventoryItem) StockLevel() int64 { return i.StockQuantity }

// Product is a retail good sold over the counter. Prices are integer minor units.
type Product struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	StockQuantity int64     `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Price         int64     `gorm:"not null;default:0" json:"price"`
	CostPrice     *int64    `json:"cost_price,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Product) StockName() string { return p.Name }

func (p *Product) StockLevel() int64 { return p.StockQuantity }

// StockMovement is the audit trail of every ledger change, written in the same
// transaction as the change itself.
type StockMovement struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind          string    `gorm:"size:32;not null;index:idx_movement_item,priority:1" json:"kind"`
	ItemID        int64     `gorm:"not null;index:idx_movement_item,priority:2" json:"item_id"`
	Quantity      int64     `gorm:"not null" json:"quantity"`
	StockBefore   int64     `gorm:"not null" json:"stock_before"`
	StockAfter    int64     `gorm:"not null" json:"stock_after"`
	Reason        string    `gorm:"size:64;not null" json:"reason"`
	ReferenceDate time.Time `gorm:"index" json:"reference_date"`
	CreatedAt     time.Time `json:"created_at"`
}
