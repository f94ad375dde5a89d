package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/testutil"
)

var closeRef = Reference{Reason: ReasonDayClose, Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}

func TestTryDecrement_Product(t *testing.T) {
	db := testutil.NewTestDB(t)
	product := models.Product{Name: "Toothbrush", StockQuantity: 20, Price: 1500}
	require.NoError(t, db.Create(&product).Error)

	var entry *Entry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = NewLedger().TryDecrement(tx, KindProduct, product.ID, 3, closeRef)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "Toothbrush", entry.Name)
	assert.Equal(t, int64(20), entry.Before)
	assert.Equal(t, int64(17), entry.After)
	locked, ok := entry.Row.(*models.Product)
	require.True(t, ok)
	assert.Equal(t, int64(1500), locked.Price)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, int64(17), reloaded.StockQuantity)

	var movements []models.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, string(KindProduct), movements[0].Kind)
	assert.Equal(t, int64(-3), movements[0].Quantity)
	assert.Equal(t, int64(20), movements[0].StockBefore)
	assert.Equal(t, int64(17), movements[0].StockAfter)
	assert.Equal(t, ReasonDayClose, movements[0].Reason)
}

func TestTryDecrement_ExactStockReachesZero(t *testing.T) {
	db := testutil.NewTestDB(t)
	item := models.InventoryItem{Name: "Gauze", StockQuantity: 4}
	require.NoError(t, db.Create(&item).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewLedger().TryDecrement(tx, KindInventoryItem, item.ID, 4, closeRef)
		return err
	})
	require.NoError(t, err)

	var reloaded models.InventoryItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	assert.Equal(t, int64(0), reloaded.StockQuantity)
}

func TestTryDecrement_Failures(t *testing.T) {
	db := testutil.NewTestDB(t)
	gloves := models.InventoryItem{Name: "Gloves", StockQuantity: 5}
	require.NoError(t, db.Create(&gloves).Error)

	tests := []struct {
		name     string
		kind     Kind
		id       int64
		quantity int64
		check    func(t *testing.T, err error)
	}{
		{
			name: "insufficient", kind: KindInventoryItem, id: gloves.ID, quantity: 10,
			check: func(t *testing.T, err error) {
				var is *apperror.InsufficientStockError
				require.ErrorAs(t, err, &is)
				assert.Equal(t, "Gloves", is.Name)
				assert.Equal(t, int64(5), is.Available)
				assert.Equal(t, int64(10), is.Required)
			},
		},
		{
			name: "missing item", kind: KindInventoryItem, id: 999, quantity: 1,
			check: func(t *testing.T, err error) {
				var nf *apperror.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, int64(999), nf.ID)
				assert.Equal(t, string(KindInventoryItem), nf.Kind)
			},
		},
		{
			name: "missing product", kind: KindProduct, id: gloves.ID, quantity: 1,
			check: func(t *testing.T, err error) {
				var nf *apperror.NotFoundError
				require.ErrorAs(t, err, &nf)
			},
		},
		{
			name: "zero quantity", kind: KindInventoryItem, id: gloves.ID, quantity: 0,
			check: func(t *testing.T, err error) {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
			},
		},
		{
			name: "unknown kind", kind: Kind("equipment"), id: gloves.ID, quantity: 1,
			check: func(t *testing.T, err error) {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "kind", ve.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := NewLedger().TryDecrement(tx, tt.kind, tt.id, tt.quantity, closeRef)
				return err
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	var reloaded models.InventoryItem
	require.NoError(t, db.First(&reloaded, gloves.ID).Error)
	assert.Equal(t, int64(5), reloaded.StockQuantity)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

// A writer that drains stock after the row was read but before the guarded
// UPDATE runs must turn the decrement into InsufficientStock, not a negative level.
func TestTryDecrement_GuardedUpdateLosesRace(t *testing.T) {
	db := testutil.NewTestDB(t)
	gloves := models.InventoryItem{Name: "Gloves", StockQuantity: 10}
	require.NoError(t, db.Create(&gloves).Error)

	drained := false
	err := db.Callback().Update().Before("gorm:update").Register("test:drain_stock", func(tx *gorm.DB) {
		if drained || tx.Statement.Table != "inventory_items" {
			return
		}
		drained = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE inventory_items SET stock_quantity = ? WHERE id = ?", 1, gloves.ID).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := NewLedger().TryDecrement(tx, KindInventoryItem, gloves.ID, 5, closeRef)
		return err
	})
	require.True(t, drained)

	var is *apperror.InsufficientStockError
	require.ErrorAs(t, err, &is)
	assert.Equal(t, "Gloves", is.Name)
	assert.Equal(t, int64(1), is.Available)
	assert.Equal(t, int64(5), is.Required)

	var reloaded models.InventoryItem
	require.NoError(t, db.First(&reloaded, gloves.ID).Error)
	assert.Equal(t, int64(10), reloaded.StockQuantity, "the transaction rolls back as a whole")

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 7}, lockOrder([]int64{7, 3, 7, 1, 3}))
	assert.Empty(t, lockOrder(nil))

	ids := []int64{9, 2}
	lockOrder(ids)
	assert.Equal(t, []int64{9, 2}, ids, "input is left untouched")
}

func TestLockRows_LocksInAscendingIDOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	items := []models.InventoryItem{
		{Name: "Masks", StockQuantity: 50},
		{Name: "Gloves", StockQuantity: 10},
		{Name: "Gauze", StockQuantity: 4},
	}
	require.NoError(t, db.Create(&items).Error)

	var lockSQL string
	var lockVars []interface{}
	err := db.Callback().Query().After("gorm:query").Register("test:capture_lock", func(tx *gorm.DB) {
		if tx.Statement.Table == "inventory_items" {
			lockSQL = tx.Statement.SQL.String()
			lockVars = append([]interface{}(nil), tx.Statement.Vars...)
		}
	})
	require.NoError(t, err)

	missing := items[2].ID + 100
	err = db.Transaction(func(tx *gorm.DB) error {
		return NewLedger().LockRows(tx, KindInventoryItem, []int64{items[2].ID, missing, items[0].ID, items[2].ID})
	})
	require.NoError(t, err, "unknown ids are not an error")

	assert.Contains(t, lockSQL, "ORDER BY id ASC")
	assert.Equal(t, []interface{}{items[0].ID, items[2].ID, missing}, lockVars)
}

func TestLockRows_NothingToLock(t *testing.T) {
	db := testutil.NewTestDB(t)

	queried := false
	err := db.Callback().Query().Before("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		queried = true
	})
	require.NoError(t, err)

	require.NoError(t, NewLedger().LockRows(db, KindProduct, nil))
	assert.False(t, queried)

	var verr *apperror.ValidationError
	require.ErrorAs(t, NewLedger().LockRows(db, Kind("widget"), []int64{1}), &verr)
}

func TestListLowStock(t *testing.T) {
	db := testutil.NewTestDB(t)
	items := []models.InventoryItem{
		{Name: "Masks", StockQuantity: 50, ReorderLevel: 10},
		{Name: "Gloves", StockQuantity: 10, ReorderLevel: 10},
		{Name: "Anesthetic", StockQuantity: 2, ReorderLevel: 5},
	}
	require.NoError(t, db.Create(&items).Error)

	low, err := NewLedger().ListLowStock(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Anesthetic", low[0].Name)
	assert.Equal(t, "Gloves", low[1].Name)
}
