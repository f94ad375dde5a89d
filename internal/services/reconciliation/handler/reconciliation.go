package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"clinic-system/internal/apperror"
	"clinic-system/internal/database/models"
	"clinic-system/internal/dayclose"
	"clinic-system/internal/notify"
	proto "clinic-system/proto/reconciliation"
)

const (
	RECONCILIATION_CACHE_PREFIX = "reconciliation:"
	REPORT_CACHE_PREFIX         = RECONCILIATION_CACHE_PREFIX + "report:"
	LOW_STOCK_CACHE_KEY         = RECONCILIATION_CACHE_PREFIX + "low-stock"
	LOW_STOCK_VERSION_KEY       = LOW_STOCK_CACHE_KEY + ":version"
	CACHE_TTL_LONG              = 2 * time.Hour
	PUBLISH_TIMEOUT             = 3 * time.Second
)

type ReconciliationHandler struct {
	proto.UnimplementedReconciliationServiceServer
	service     *dayclose.Service
	redis       *redis.Client
	notifier    notify.Notifier
	log         *zap.Logger
	lowStockTTL time.Duration
}

func NewReconciliationHandler(service *dayclose.Service, redisClient *redis.Client, notifier notify.Notifier, log *zap.Logger, lowStockTTL time.Duration) *ReconciliationHandler {
	return &ReconciliationHandler{
		service:     service,
		redis:       redisClient,
		notifier:    notifier,
		log:         log,
		lowStockTTL: lowStockTTL,
	}
}

// InvalidateReconciliationCaches drops cached reads that stock changes make stale.
// The low-stock list is bumped to a new version rather than deleted, so a read
// that started before the close cannot repopulate the live key.
func (s *ReconciliationHandler) InvalidateReconciliationCaches(ctx context.Context) {
	if err := s.redis.Incr(ctx, LOW_STOCK_VERSION_KEY).Err(); err != nil {
		s.log.Warn("failed to invalidate low stock cache", zap.Error(err))
	}
}

// lowStockCacheKey returns the key for the current low-stock version. It must
// be read before the list is queried.
func (s *ReconciliationHandler) lowStockCacheKey(ctx context.Context) (string, bool) {
	version, err := s.redis.Get(ctx, LOW_STOCK_VERSION_KEY).Int64()
	if err == redis.Nil {
		version = 0
	} else if err != nil {
		s.log.Warn("cache read failed", zap.String("key", LOW_STOCK_VERSION_KEY), zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("%s:v%d", LOW_STOCK_CACHE_KEY, version), true
}

// -- MODEL TO PROTO --
func reportToProto(r *models.DailyReport) *proto.DailyReport {
	out := &proto.DailyReport{
		ID:               r.ID,
		ReportDate:       r.ReportDate.Format(proto.DateLayout),
		CheckedInCount:   r.CheckedInCount,
		NewPatientsCount: r.NewPatientsCount,
		TotalPayments:    r.TotalPayments,
		TotalExpenses:    r.TotalExpenses,
		NetAmount:        r.NetAmount(),
		BalancesTotal:    r.BalancesTotal(),
		Balances:         make([]proto.BalanceEntry, 0, len(r.Balances)),
		InventoryUsed:    make([]proto.InventoryUsage, 0, len(r.InventoryUsed)),
		ProductsSold:     make([]proto.ProductSale, 0, len(r.ProductsSold)),
		AdditionalNote:   r.AdditionalNote,
		SubmittedBy:      r.SubmittedBy,
		CreatedAt:        r.CreatedAt,
	}
	for _, b := range r.Balances {
		out.Balances = append(out.Balances, proto.BalanceEntry{PaymentMethod: b.PaymentMethod, Amount: b.Amount})
	}
	for _, u := range r.InventoryUsed {
		out.InventoryUsed = append(out.InventoryUsed, proto.InventoryUsage{ItemID: u.ItemID, Quantity: u.Quantity})
	}
	for _, p := range r.ProductsSold {
		out.ProductsSold = append(out.ProductsSold, proto.ProductSale{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return out
}

func saleToProto(r models.SaleRecord) *proto.SaleRecord {
	return &proto.SaleRecord{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		CostPrice:   r.CostPrice,
		TotalAmount: r.TotalAmount,
		Profit:      r.Profit,
		SaleDate:    r.SaleDate.Format(proto.DateLayout),
	}
}

func itemToProto(i models.InventoryItem) *proto.InventoryItem {
	return &proto.InventoryItem{
		ID:            i.ID,
		Name:          i.Name,
		StockQuantity: i.StockQuantity,
		ReorderLevel:  i.ReorderLevel,
		UpdatedAt:     i.UpdatedAt,
	}
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperror.Validation(field, "is required")
	}
	t, err := time.Parse(proto.DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.Validation(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func closeDayRequest(req *proto.CloseDayRequest, reportDate time.Time) dayclose.Request {
	out := dayclose.Request{
		ReportDate:       reportDate,
		CheckedInCount:   req.CheckedInCount,
		NewPatientsCount: req.NewPatientsCount,
		TotalPayments:    req.TotalPayments,
		TotalExpenses:    req.TotalExpenses,
		Balances:         make([]models.BalanceEntry, 0, len(req.Balances)),
		InventoryUsed:    make([]models.InventoryUsage, 0, len(req.InventoryUsed)),
		ProductsSold:     make([]models.ProductSale, 0, len(req.ProductsSold)),
		AdditionalNote:   req.AdditionalNote,
		SubmittedBy:      req.SubmittedBy,
	}
	for _, b := range req.Balances {
		out.Balances = append(out.Balances, models.BalanceEntry{PaymentMethod: b.PaymentMethod, Amount: b.Amount})
	}
	for _, u := range req.InventoryUsed {
		out.InventoryUsed = append(out.InventoryUsed, models.InventoryUsage{ItemID: u.ItemID, Quantity: u.Quantity})
	}
	for _, p := range req.ProductsSold {
		out.ProductsSold = append(out.ProductsSold, models.ProductSale{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return out
}

func (s *ReconciliationHandler) CloseDay(ctx context.Context, req *proto.CloseDayRequest) (*proto.CloseDayResponse, error) {
	reportDate, err := parseDate("report_date", req.ReportDate)
	if err != nil {
		return nil, err
	}

	result, err := s.service.CloseDay(ctx, closeDayRequest(req, reportDate))
	if err != nil {
		return nil, err
	}

	// The close is committed; nothing below may fail the call.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PUBLISH_TIMEOUT)
	defer cancel()

	if touched := result.TouchedItemIDs(); len(touched) > 0 {
		s.log.Debug("inventory changed by day close", zap.Int64s("item_ids", touched))
		s.InvalidateReconciliationCaches(postCtx)
	}

	event := notify.NewEvent(notify.EventDayClosed, notify.DayClosed{
		ReportID:      result.Report.ID,
		ReportDate:    result.Report.ReportDate,
		SubmittedBy:   result.Report.SubmittedBy,
		TotalPayments: result.Report.TotalPayments,
		TotalExpenses: result.Report.TotalExpenses,
		SalesCount:    len(result.Sales),
	})
	if err := s.notifier.Notify(postCtx, event); err != nil {
		s.log.Warn("failed to publish day close event",
			zap.Int64("report_id", result.Report.ID),
			zap.Error(err),
		)
	}

	resp := &proto.CloseDayResponse{
		Report: reportToProto(&result.Report),
		Sales:  make([]*proto.SaleRecord, 0, len(result.Sales)),
	}
	for _, sale := range result.Sales {
		resp.Sales = append(resp.Sales, saleToProto(sale))
	}
	return resp, nil
}

func (s *ReconciliationHandler) GetDailyReport(ctx context.Context, req *proto.GetDailyReportRequest) (*proto.GetDailyReportResponse, error) {
	if req.ID <= 0 {
		return nil, apperror.Validation("id", "must be positive")
	}

	cacheKey := fmt.Sprintf("%s%d", REPORT_CACHE_PREFIX, req.ID)
	var cached proto.DailyReport
	if s.getCached(ctx, cacheKey, &cached) {
		return &proto.GetDailyReportResponse{Report: &cached}, nil
	}

	report, err := s.service.GetDailyReport(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	out := reportToProto(report)
	// Reports are append-only, so a cached copy never goes stale.
	s.setCached(ctx, cacheKey, out, CACHE_TTL_LONG)
	return &proto.GetDailyReportResponse{Report: out}, nil
}

func (s *ReconciliationHandler) ListDailyReports(ctx context.Context, req *proto.ListDailyReportsRequest) (*proto.ListDailyReportsResponse, error) {
	day, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	reports, err := s.service.ListDailyReports(ctx, day)
	if err != nil {
		return nil, err
	}

	resp := &proto.ListDailyReportsResponse{Reports: make([]*proto.DailyReport, 0, len(reports))}
	for i := range reports {
		resp.Reports = append(resp.Reports, reportToProto(&reports[i]))
	}
	return resp, nil
}

func (s *ReconciliationHandler) ListSaleRecords(ctx context.Context, req *proto.ListSaleRecordsRequest) (*proto.ListSaleRecordsResponse, error) {
	day, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	records, err := s.service.ListSaleRecords(ctx, day)
	if err != nil {
		return nil, err
	}

	resp := &proto.ListSaleRecordsResponse{Records: make([]*proto.SaleRecord, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, saleToProto(r))
	}
	return resp, nil
}

func (s *ReconciliationHandler) ListLowStock(ctx context.Context, req *proto.ListLowStockRequest) (*proto.ListLowStockResponse, error) {
	cacheKey, cacheable := s.lowStockCacheKey(ctx)
	if cacheable {
		var cached proto.ListLowStockResponse
		if s.getCached(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	items, err := s.service.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	resp := &proto.ListLowStockResponse{Items: make([]*proto.InventoryItem, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, itemToProto(item))
	}
	if cacheable {
		s.setCached(ctx, cacheKey, resp, s.lowStockTTL)
	}
	return resp, nil
}

// -- Cache helpers --
func (s *ReconciliationHandler) getCached(ctx context.Context, key string, dest interface{}) bool {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *ReconciliationHandler) setCached(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
