// Package reconciliation is the gRPC contract of the reconciliation service.
// Messages travel as JSON, see internal/transport/jsoncodec.
package reconciliation

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-system/internal/transport/jsoncodec"
)

const (
	ServiceName = "clinic.reconciliation.v1.ReconciliationService"

	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
)

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

type DailyReport struct {
	ID               int64            `json:"id"`
	ReportDate       string           `json:"report_date"`
	CheckedInCount   int64            `json:"checked_in_count"`
	NewPatientsCount int64            `json:"new_patients_count"`
	TotalPayments    int64            `json:"total_payments"`
	TotalExpenses    int64            `json:"total_expenses"`
	NetAmount        int64            `json:"net_amount"`
	BalancesTotal    int64            `json:"balances_total"`
	Balances         []BalanceEntry   `json:"balances"`
	InventoryUsed    []InventoryUsage `json:"inventory_used"`
	ProductsSold     []ProductSale    `json:"products_sold"`
	AdditionalNote   *string          `json:"additional_note,omitempty"`
	SubmittedBy      string           `json:"submitted_by"`
	CreatedAt        time.Time        `json:"created_at"`
}

type SaleRecord struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	CostPrice   int64  `json:"cost_price"`
	TotalAmount int64  `json:"total_amount"`
	Profit      int64  `json:"profit"`
	SaleDate    string `json:"sale_date"`
}

type InventoryItem struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	StockQuantity int64     `json:"stock_quantity"`
	ReorderLevel  int64     `json:"reorder_level"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CloseDayRequest struct {
	ReportDate       string           `json:"report_date"`
	CheckedInCount   int64            `json:"checked_in_count"`
	NewPatientsCount int64            `json:"new_patients_count"`
	TotalPayments    int64            `json:"total_payments"`
	TotalExpenses    int64            `json:"total_expenses"`
	Balances         []BalanceEntry   `json:"balances"`
	InventoryUsed    []InventoryUsage `json:"inventory_used"`
	ProductsSold     []ProductSale    `json:"products_sold"`
	AdditionalNote   *string          `json:"additional_note,omitempty"`
	SubmittedBy      string           `json:"submitted_by"`
}

type CloseDayResponse struct {
	Report *DailyReport  `json:"report"`
	Sales  []*SaleRecord `json:"sales"`
}

type GetDailyReportRequest struct {
	ID int64 `json:"id"`
}

type GetDailyReportResponse struct {
	Report *DailyReport `json:"report"`
}

type ListDailyReportsRequest struct {
	Date string `json:"date"`
}

type ListDailyReportsResponse struct {
	Reports []*DailyReport `json:"reports"`
}

type ListSaleRecordsRequest struct {
	Date string `json:"date"`
}

type ListSaleRecordsResponse struct {
	Records []*SaleRecord `json:"records"`
}

type ListLowStockRequest struct{}

type ListLowStockResponse struct {
	Items []*InventoryItem `json:"items"`
}

type ReconciliationServiceServer interface {
	CloseDay(context.Context, *CloseDayRequest) (*CloseDayResponse, error)
	GetDailyReport(context.Context, *GetDailyReportRequest) (*GetDailyReportResponse, error)
	ListDailyReports(context.Context, *ListDailyReportsRequest) (*ListDailyReportsResponse, error)
	ListSaleRecords(context.Context, *ListSaleRecordsRequest) (*ListSaleRecordsResponse, error)
	ListLowStock(context.Context, *ListLowStockRequest) (*ListLowStockResponse, error)
}

// UnimplementedReconciliationServiceServer can be embedded for forward
// compatibility.
type UnimplementedReconciliationServiceServer struct{}

func (UnimplementedReconciliationServiceServer) CloseDay(context.Context, *CloseDayRequest) (*CloseDayResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CloseDay not implemented")
}

func (UnimplementedReconciliationServiceServer) GetDailyReport(context.Context, *GetDailyReportRequest) (*GetDailyReportResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetDailyReport not implemented")
}

func (UnimplementedReconciliationServiceServer) ListDailyReports(context.Context, *ListDailyReportsRequest) (*ListDailyReportsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListDailyReports not implemented")
}

func (UnimplementedReconciliationServiceServer) ListSaleRecords(context.Context, *ListSaleRecordsRequest) (*ListSaleRecordsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListSaleRecords not implemented")
}

func (UnimplementedReconciliationServiceServer) ListLowStock(context.Context, *ListLowStockRequest) (*ListLowStockResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListLowStock not implemented")
}

var ReconciliationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReconciliationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		jsoncodec.Unary(ServiceName, "CloseDay", ReconciliationServiceServer.CloseDay),
		jsoncodec.Unary(ServiceName, "GetDailyReport", ReconciliationServiceServer.GetDailyReport),
		jsoncodec.Unary(ServiceName, "ListDailyReports", ReconciliationServiceServer.ListDailyReports),
		jsoncodec.Unary(ServiceName, "ListSaleRecords", ReconciliationServiceServer.ListSaleRecords),
		jsoncodec.Unary(ServiceName, "ListLowStock", ReconciliationServiceServer.ListLowStock),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reconciliation",
}

func RegisterReconciliationServiceServer(s grpc.ServiceRegistrar, srv ReconciliationServiceServer) {
	s.RegisterService(&ReconciliationService_ServiceDesc, srv)
}

type ReconciliationServiceClient interface {
	CloseDay(ctx context.Context, in *CloseDayRequest, opts ...grpc.CallOption) (*CloseDayResponse, error)
	GetDailyReport(ctx context.Context, in *GetDailyReportRequest, opts ...grpc.CallOption) (*GetDailyReportResponse, error)
	ListDailyReports(ctx context.Context, in *ListDailyReportsRequest, opts ...grpc.CallOption) (*ListDailyReportsResponse, error)
	ListSaleRecords(ctx context.Context, in *ListSaleRecordsRequest, opts ...grpc.CallOption) (*ListSaleRecordsResponse, error)
	ListLowStock(ctx context.Context, in *ListLowStockRequest, opts ...grpc.CallOption) (*ListLowStockResponse, error)
}

type reconciliationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReconciliationServiceClient(cc grpc.ClientConnInterface) ReconciliationServiceClient {
	return &reconciliationServiceClient{cc}
}

func (c *reconciliationServiceClient) CloseDay(ctx context.Context, in *CloseDayRequest, opts ...grpc.CallOption) (*CloseDayResponse, error) {
	return jsoncodec.Invoke[CloseDayResponse](ctx, c.cc, ServiceName, "CloseDay", in, opts...)
}

func (c *reconciliationServiceClient) GetDailyReport(ctx context.Context, in *GetDailyReportRequest, opts ...grpc.CallOption) (*GetDailyReportResponse, error) {
	return jsoncodec.Invoke[GetDailyReportResponse](ctx, c.cc, ServiceName, "GetDailyReport", in, opts...)
}

func (c *reconciliationServiceClient) ListDailyReports(ctx context.Context, in *ListDailyReportsRequest, opts ...grpc.CallOption) (*ListDailyReportsResponse, error) {
	return jsoncodec.Invoke[ListDailyReportsResponse](ctx, c.cc, ServiceName, "ListDailyReports", in, opts...)
}

func (c *reconciliationServiceClient) ListSaleRecords(ctx context.Context, in *ListSaleRecordsRequest, opts ...grpc.CallOption) (*ListSaleRecordsResponse, error) {
	return jsoncodec.Invoke[ListSaleRecordsResponse](ctx, c.cc, ServiceName, "ListSaleRecords", in, opts...)
}

func (c *reconciliationServiceClient) ListLowStock(ctx context.Context, in *ListLowStockRequest, opts ...grpc.CallOption) (*ListLowStockResponse, error) {
	return jsoncodec.Invoke[ListLowStockResponse](ctx, c.cc, ServiceName, "ListLowStock", in, opts...)
}
