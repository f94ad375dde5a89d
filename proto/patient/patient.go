// Package patient is the gRPC contract of the patient service.
package patient

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-system/internal/transport/jsoncodec"
)

const ServiceName = "clinic.patient.v1.PatientService"

type Patient struct {
	ID            int64     `json:"id"`
	PatientNumber string    `json:"patient_number"`
	FullName      string    `json:"full_name"`
	Phone         *string   `json:"phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type PlanStatus struct {
	PlanID              int64    `json:"plan_id"`
	PatientID           int64    `json:"patient_id"`
	Patient             *Patient `json:"patient,omitempty"`
	Status              string   `json:"status"`
	PaymentFrequency    *string  `json:"payment_frequency,omitempty"`
	TotalAmount         int64    `json:"total_amount"`
	Scheduled           bool     `json:"scheduled"`
	ElapsedDays         int64    `json:"elapsed_days"`
	ElapsedInstallments int64    `json:"elapsed_installments"`
	ExpectedAmount      int64    `json:"expected_amount"`
	TotalPaid           int64    `json:"total_paid"`
	OverdueAmount       int64    `json:"overdue_amount"`
	RemainingAmount     int64    `json:"remaining_amount"`
}

type CreatePatientRequest struct {
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

type CreatePatientResponse struct {
	Patient *Patient `json:"patient"`
}

type GetPlanStatusRequest struct {
	PlanID int64 `json:"plan_id"`
}

type GetPlanStatusResponse struct {
	Plan *PlanStatus `json:"plan"`
}

type ListOverduePlansRequest struct {
	// Notify hands each overdue plan to the reminder channel.
	Notify bool `json:"notify"`
}

type ListOverduePlansResponse struct {
	Plans    []*PlanStatus `json:"plans"`
	Notified int           `json:"notified"`
}

type PatientServiceServer interface {
	CreatePatient(context.Context, *CreatePatientRequest) (*CreatePatientResponse, error)
	GetPlanStatus(context.Context, *GetPlanStatusRequest) (*GetPlanStatusResponse, error)
	ListOverduePlans(context.Context, *ListOverduePlansRequest) (*ListOverduePlansResponse, error)
}

type UnimplementedPatientServiceServer struct{}

func (UnimplementedPatientServiceServer) CreatePatient(context.Context, *CreatePatientRequest) (*CreatePatientResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreatePatient not implemented")
}

func (UnimplementedPatientServiceServer) GetPlanStatus(context.Context, *GetPlanStatusRequest) (*GetPlanStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPlanStatus not implemented")
}

func (UnimplementedPatientServiceServer) ListOverduePlans(context.Context, *ListOverduePlansRequest) (*ListOverduePlansResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListOverduePlans not implemented")
}

var PatientService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PatientServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		jsoncodec.Unary(ServiceName, "CreatePatient", PatientServiceServer.CreatePatient),
		jsoncodec.Unary(ServiceName, "GetPlanStatus", PatientServiceServer.GetPlanStatus),
		jsoncodec.Unary(ServiceName, "ListOverduePlans", PatientServiceServer.ListOverduePlans),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "patient",
}

func RegisterPatientServiceServer(s grpc.ServiceRegistrar, srv PatientServiceServer) {
	s.RegisterService(&PatientService_ServiceDesc, srv)
}

type PatientServiceClient interface {
	CreatePatient(ctx context.Context, in *CreatePatientRequest, opts ...grpc.CallOption) (*CreatePatientResponse, error)
	GetPlanStatus(ctx context.Context, in *GetPlanStatusRequest, opts ...grpc.CallOption) (*GetPlanStatusResponse, error)
	ListOverduePlans(ctx context.Context, in *ListOverduePlansRequest, opts ...grpc.CallOption) (*ListOverduePlansResponse, error)
}

type patientServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPatientServiceClient(cc grpc.ClientConnInterface) PatientServiceClient {
	return &patientServiceClient{cc}
}

func (c *patientServiceClient) CreatePatient(ctx context.Context, in *CreatePatientRequest, opts ...grpc.CallOption) (*CreatePatientResponse, error) {
	return jsoncodec.Invoke[CreatePatientResponse](ctx, c.cc, ServiceName, "CreatePatient", in, opts...)
}

func (c *patientServiceClient) GetPlanStatus(ctx context.Context, in *GetPlanStatusRequest, opts ...grpc.CallOption) (*GetPlanStatusResponse, error) {
	return jsoncodec.Invoke[GetPlanStatusResponse](ctx, c.cc, ServiceName, "GetPlanStatus", in, opts...)
}

func (c *patientServiceClient) ListOverduePlans(ctx context.Context, in *ListOverduePlansRequest, opts ...grpc.CallOption) (*ListOverduePlansResponse, error) {
	return jsoncodec.Invoke[ListOverduePlansResponse](ctx, c.cc, ServiceName, "ListOverduePlans", in, opts...)
}
