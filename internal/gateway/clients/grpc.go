package clients

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"clinic-system/config"
	patient "clinic-system/proto/patient"
	reconciliation "clinic-system/proto/reconciliation"
)

type GRPCClients struct {
	Reconciliation     reconciliation.ReconciliationServiceClient
	Patient            patient.PatientServiceClient
	reconciliationConn *grpc.ClientConn
	patientConn        *grpc.ClientConn
}

// NewGRPCClients creates lazy connections; a service that is down only fails
// the calls routed to it.
func NewGRPCClients(cfg config.Config, log *zap.Logger) (*GRPCClients, error) {
	reconciliationConn, err := grpc.NewClient(cfg.Reconciliation.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("reconciliation service connection failed: %w", err)
	}

	patientConn, err := grpc.NewClient(cfg.Patient.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		reconciliationConn.Close()
		return nil, fmt.Errorf("patient service connection failed: %w", err)
	}

	log.Info("gRPC clients ready",
		zap.String("reconciliation", cfg.Reconciliation.GRPCAddr),
		zap.String("patient", cfg.Patient.GRPCAddr),
	)

	return &GRPCClients{
		Reconciliation:     reconciliation.NewReconciliationServiceClient(reconciliationConn),
		Patient:            patient.NewPatientServiceClient(patientConn),
		reconciliationConn: reconciliationConn,
		patientConn:        patientConn,
	}, nil
}

func (c *GRPCClients) IsReconciliationServiceHealthy(ctx context.Context) bool {
	return isServing(ctx, c.reconciliationConn, reconciliation.ServiceName)
}

func (c *GRPCClients) IsPatientServiceHealthy(ctx context.Context) bool {
	return isServing(ctx, c.patientConn, patient.ServiceName)
}

func isServing(ctx context.Context, conn *grpc.ClientConn, service string) bool {
	if conn == nil {
		return false
	}
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (c *GRPCClients) Close() {
	if c.reconciliationConn != nil {
		c.reconciliationConn.Close()
	}
	if c.patientConn != nil {
		c.patientConn.Close()
	}
}
