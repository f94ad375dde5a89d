package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-system/internal/apperror"
	"clinic-system/internal/gateway/middleware"
	"clinic-system/internal/money"
	proto "clinic-system/proto/reconciliation"
)

const requestTimeout = 15 * time.Second

type ReconciliationHTTPHandler struct {
	reconciliationClient proto.ReconciliationServiceClient
}

func NewReconciliationHTTPHandler(reconciliationClient proto.ReconciliationServiceClient) *ReconciliationHTTPHandler {
	return &ReconciliationHTTPHandler{
		reconciliationClient: reconciliationClient,
	}
}

// --- Request & Query Structs for Binding ---

type BalanceEntryRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,max=64"`
	Amount        int64  `json:"amount"`
}

type InventoryUsageRequest struct {
	ItemID   int64 `json:"item_id" binding:"required,gt=0"`
	Quantity int64 `json:"quantity" binding:"min=0"`
}

type ProductSaleRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int64 `json:"quantity" binding:"min=0"`
}

type CloseDayRequest struct {
	ReportDate       string                  `json:"report_date" binding:"required,datetime=2006-01-02"`
	CheckedInCount   int64                   `json:"checked_in_count" binding:"min=0"`
	NewPatientsCount int64                   `json:"new_patients_count" binding:"min=0"`
	TotalPayments    int64                   `json:"total_payments" binding:"min=0"`
	TotalExpenses    int64                   `json:"total_expenses" binding:"min=0"`
	Balances         []BalanceEntryRequest   `json:"balances" binding:"omitempty,dive"`
	InventoryUsed    []InventoryUsageRequest `json:"inventory_used" binding:"omitempty,dive"`
	ProductsSold     []ProductSaleRequest    `json:"products_sold" binding:"omitempty,dive"`
	AdditionalNote   *string                 `json:"additional_note" binding:"omitempty,max=2000"`
}

type DateQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// --- Views ---

// DailyReportView adds display strings for the money fields.
type DailyReportView struct {
	*proto.DailyReport
	Formatted map[string]string `json:"formatted"`
}

func newDailyReportView(r *proto.DailyReport) DailyReportView {
	return DailyReportView{
		DailyReport: r,
		Formatted: map[string]string{
			"total_payments": money.FormatMinor(r.TotalPayments),
			"total_expenses": money.FormatMinor(r.TotalExpenses),
			"net_amount":     money.FormatMinor(r.NetAmount),
			"balances_total": money.FormatMinor(r.BalancesTotal),
		},
	}
}

type SalesSummary struct {
	Count       int    `json:"count"`
	Quantity    int64  `json:"quantity"`
	TotalAmount int64  `json:"total_amount"`
	Profit      int64  `json:"profit"`
	TotalText   string `json:"total_amount_formatted"`
	ProfitText  string `json:"profit_formatted"`
}

func summarizeSales(records []*proto.SaleRecord) SalesSummary {
	var s SalesSummary
	for _, r := range records {
		s.Count++
		s.Quantity += r.Quantity
		s.TotalAmount += r.TotalAmount
		s.Profit += r.Profit
	}
	s.TotalText = money.FormatMinor(s.TotalAmount)
	s.ProfitText = money.FormatMinor(s.Profit)
	return s
}

// --- Day Close Handlers ---

func (h *ReconciliationHTTPHandler) CloseDay(c *gin.Context) {
	var req CloseDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, apperror.ReasonValidation, "Invalid request format: "+err.Error())
		return
	}

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Unauthenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	in := &proto.CloseDayRequest{
		ReportDate:       req.ReportDate,
		CheckedInCount:   req.CheckedInCount,
		NewPatientsCount: req.NewPatientsCount,
		TotalPayments:    req.TotalPayments,
		TotalExpenses:    req.TotalExpenses,
		Balances:         make([]proto.BalanceEntry, 0, len(req.Balances)),
		InventoryUsed:    make([]proto.InventoryUsage, 0, len(req.InventoryUsed)),
		ProductsSold:     make([]proto.ProductSale, 0, len(req.ProductsSold)),
		AdditionalNote:   req.AdditionalNote,
		SubmittedBy:      actor.Username,
	}
	for _, b := range req.Balances {
		in.Balances = append(in.Balances, proto.BalanceEntry{PaymentMethod: b.PaymentMethod, Amount: b.Amount})
	}
	for _, u := range req.InventoryUsed {
		in.InventoryUsed = append(in.InventoryUsed, proto.InventoryUsage{ItemID: u.ItemID, Quantity: u.Quantity})
	}
	for _, p := range req.ProductsSold {
		in.ProductsSold = append(in.ProductsSold, proto.ProductSale{ProductID: p.ProductID, Quantity: p.Quantity})
	}

	resp, err := h.reconciliationClient.CloseDay(ctx, in)
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Day closed successfully", gin.H{
		"report": newDailyReportView(resp.Report),
		"sales":  resp.Sales,
	}))
}

func (h *ReconciliationHTTPHandler) GetDailyReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.reconciliationClient.GetDailyReport(ctx, &proto.GetDailyReportRequest{ID: id})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Daily report retrieved successfully", newDailyReportView(resp.Report)))
}

func (h *ReconciliationHTTPHandler) ListDailyReports(c *gin.Context) {
	var q DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, apperror.ReasonValidation, "Invalid query: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.reconciliationClient.ListDailyReports(ctx, &proto.ListDailyReportsRequest{Date: q.Date})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	views := make([]DailyReportView, 0, len(resp.Reports))
	for _, r := range resp.Reports {
		views = append(views, newDailyReportView(r))
	}
	c.JSON(http.StatusOK, successResponse("Daily reports retrieved successfully", views))
}

func (h *ReconciliationHTTPHandler) ListSaleRecords(c *gin.Context) {
	var q DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, apperror.ReasonValidation, "Invalid query: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.reconciliationClient.ListSaleRecords(ctx, &proto.ListSaleRecordsRequest{Date: q.Date})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale records retrieved successfully", gin.H{
		"records": resp.Records,
		"summary": summarizeSales(resp.Records),
	}))
}

func (h *ReconciliationHTTPHandler) ListLowStock(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.reconciliationClient.ListLowStock(ctx, &proto.ListLowStockRequest{})
	if err != nil {
		handleGRPCError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Low stock items retrieved successfully", resp.Items))
}
