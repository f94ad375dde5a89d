// Package dayclose runs the end-of-day reconciliation: stock is consumed, sales
// are recorded and the daily report is written in a single transaction.
package dayclose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/sales"
	"clinic-system/internal/stock"
)

type Request struct {
	ReportDate       time.Time
	CheckedInCount   int64
	NewPatientsCount int64
	TotalPayments    int64
	TotalExpenses    int64
	Balances         []models.BalanceEntry
	InventoryUsed    []models.InventoryUsage
	ProductsSold     []models.ProductSale
	AdditionalNote   *string
	SubmittedBy      string
}

// Validate rejects malformed input before any row is touched. Zero quantities
// are allowed and skipped later.
func (r *Request) Validate() error {
	if r.ReportDate.IsZero() {
		return apperror.Validation("report_date", "is required")
	}
	if r.SubmittedBy == "" {
		return apperror.Validation("submitted_by", "is required")
	}

	counts := []struct {
		field string
		value int64
	}{
		{"checked_in_count", r.CheckedInCount},
		{"new_patients_count", r.NewPatientsCount},
		{"total_payments", r.TotalPayments},
		{"total_expenses", r.TotalExpenses},
	}
	for _, c := range counts {
		if c.value < 0 {
			return apperror.Validation(c.field, "must not be negative")
		}
	}

	for i, b := range r.Balances {
		if b.PaymentMethod == "" {
			return apperror.Validation(fmt.Sprintf("balances[%d].payment_method", i), "is required")
		}
	}
	for i, line := range r.InventoryUsed {
		if line.ItemID <= 0 {
			return apperror.Validation(fmt.Sprintf("inventory_used[%d].item_id", i), "must be positive")
		}
		if line.Quantity < 0 {
			return apperror.Validation(fmt.Sprintf("inventory_used[%d].quantity", i), "must not be negative")
		}
	}
	for i, line := range r.ProductsSold {
		if line.ProductID <= 0 {
			return apperror.Validation(fmt.Sprintf("products_sold[%d].product_id", i), "must be positive")
		}
		if line.Quantity < 0 {
			return apperror.Validation(fmt.Sprintf("products_sold[%d].quantity", i), "must not be negative")
		}
	}

	return nil
}

type Result struct {
	Report  models.DailyReport
	Sales   []models.SaleRecord
	Entries []stock.Entry
}

// TouchedItemIDs returns the inventory items whose stock changed.
func (r *Result) TouchedItemIDs() []int64 {
	ids := make([]int64, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Kind == stock.KindInventoryItem {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

type Service struct {
	db       *gorm.DB
	ledger   *stock.Ledger
	recorder *sales.Recorder
	log      *zap.Logger
	timeout  time.Duration
}

func NewService(db *gorm.DB, log *zap.Logger, timeout time.Duration) *Service {
	return &Service{
		db:       db,
		ledger:   stock.NewLedger(),
		recorder: sales.NewRecorder(),
		log:      log,
		timeout:  timeout,
	}
}

// CloseDay applies the whole close or nothing. Inventory lines are consumed
// first, then product lines, each in submission order; the first failing line
// aborts the transaction and its error is returned unchanged. Calling it twice
// with the same request consumes stock twice.
func (s *Service) CloseDay(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reportDate := sales.Day(req.ReportDate)
	ref := stock.Reference{Reason: stock.ReasonDayClose, Date: reportDate}

	var result Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockTouchedRows(tx, req); err != nil {
			return err
		}

		for _, line := range req.InventoryUsed {
			if line.Quantity == 0 {
				continue
			}
			entry, err := s.ledger.TryDecrement(tx, stock.KindInventoryItem, line.ItemID, line.Quantity, ref)
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, *entry)
		}

		for _, line := range req.ProductsSold {
			if line.Quantity == 0 {
				continue
			}
			entry, err := s.ledger.TryDecrement(tx, stock.KindProduct, line.ProductID, line.Quantity, ref)
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, *entry)

			product, ok := entry.Row.(*models.Product)
			if !ok {
				return fmt.Errorf("unexpected row type %T for product %d", entry.Row, line.ProductID)
			}
			sale, err := s.recorder.Record(tx, product, line.Quantity, reportDate)
			if err != nil {
				return err
			}
			result.Sales = append(result.Sales, *sale)
		}

		report := models.DailyReport{
			ReportDate:       reportDate,
			CheckedInCount:   req.CheckedInCount,
			NewPatientsCount: req.NewPatientsCount,
			TotalPayments:    req.TotalPayments,
			TotalExpenses:    req.TotalExpenses,
			Balances:         datatypes.NewJSONSlice(orEmpty(req.Balances)),
			InventoryUsed:    datatypes.NewJSONSlice(orEmpty(req.InventoryUsed)),
			ProductsSold:     datatypes.NewJSONSlice(orEmpty(req.ProductsSold)),
			AdditionalNote:   req.AdditionalNote,
			SubmittedBy:      req.SubmittedBy,
		}
		if err := tx.Create(&report).Error; err != nil {
			return fmt.Errorf("failed to create daily report: %w", err)
		}
		result.Report = report

		return nil
	})
	if err != nil {
		if apperror.IsDomain(err) {
			s.log.Info("day close rejected",
				zap.Time("report_date", reportDate),
				zap.String("submitted_by", req.SubmittedBy),
				zap.Error(err),
			)
			return nil, err
		}
		s.log.Error("day close failed",
			zap.Time("report_date", reportDate),
			zap.String("submitted_by", req.SubmittedBy),
			zap.Error(err),
		)
		return nil, apperror.Persistence("close day", err)
	}

	s.log.Info("day closed",
		zap.Int64("report_id", result.Report.ID),
		zap.Time("report_date", reportDate),
		zap.Int("stock_lines", len(result.Entries)),
		zap.Int("sales", len(result.Sales)),
	)

	return &result, nil
}

// lockTouchedRows takes every row lock up front in a fixed order (inventory
// items, then products, each by id) so overlapping closes queue instead of
// deadlocking. The ordered pass below still decides which error comes first.
func (s *Service) lockTouchedRows(tx *gorm.DB, req Request) error {
	itemIDs := make([]int64, 0, len(req.InventoryUsed))
	for _, line := range req.InventoryUsed {
		if line.Quantity > 0 {
			itemIDs = append(itemIDs, line.ItemID)
		}
	}
	productIDs := make([]int64, 0, len(req.ProductsSold))
	for _, line := range req.ProductsSold {
		if line.Quantity > 0 {
			productIDs = append(productIDs, line.ProductID)
		}
	}

	if err := s.ledger.LockRows(tx, stock.KindInventoryItem, itemIDs); err != nil {
		return err
	}
	return s.ledger.LockRows(tx, stock.KindProduct, productIDs)
}

func (s *Service) GetDailyReport(ctx context.Context, id int64) (*models.DailyReport, error) {
	var report models.DailyReport
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("daily_report", id)
		}
		return nil, apperror.Persistence("get daily report", err)
	}
	return &report, nil
}

// ListDailyReports returns every report filed for day, oldest first. Several
// reports may exist for the same date.
func (s *Service) ListDailyReports(ctx context.Context, day time.Time) ([]models.DailyReport, error) {
	start := sales.Day(day)
	var reports []models.DailyReport
	err := s.db.WithContext(ctx).
		Where("report_date >= ? AND report_date < ?", start, start.AddDate(0, 0, 1)).
		Order("id ASC").
		Find(&reports).Error
	if err != nil {
		return nil, apperror.Persistence("list daily reports", err)
	}
	return reports, nil
}

func (s *Service) ListSaleRecords(ctx context.Context, day time.Time) ([]models.SaleRecord, error) {
	records, err := s.recorder.ListByDate(ctx, s.db, day)
	if err != nil {
		return nil, apperror.Persistence("list sale records", err)
	}
	return records, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.ledger.ListLowStock(ctx, s.db)
	if err != nil {
		return nil, apperror.Persistence("list low stock", err)
	}
	return items, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
