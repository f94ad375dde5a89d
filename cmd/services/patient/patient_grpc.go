package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"clinic-system/config"
	"clinic-system/internal/database"
	"clinic-system/internal/logger"
	"clinic-system/internal/notify"
	"clinic-system/internal/patients"
	"clinic-system/internal/services/patient/handler"
	proto "clinic-system/proto/patient"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zl = zl.With(zap.String("service", "patient"))

	redisClient, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		zl.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	db, err := database.NewConnection(cfg.Patient.DSN)
	if err != nil {
		zl.Fatal("Failed to connect to db", zap.Error(err))
	}

	if err := database.MigratePatientDB(db); err != nil {
		zl.Fatal("Failed to migrate patient database", zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.Patient.GRPCAddr)
	if err != nil {
		zl.Fatal("Failed to listen", zap.Error(err))
	}

	s := grpc.NewServer()

	registry := patients.NewRegistry(db, zl)
	patientHandler := handler.NewPatientHandler(registry, redisClient, notify.NewRedisNotifier(redisClient), zl, cfg.Billing.OverdueCacheTTL)
	proto.RegisterPatientServiceServer(s, patientHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(proto.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	reflection.Register(s)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		zl.Info("Shutting down")
		healthServer.Shutdown()
		s.GracefulStop()
	}()

	zl.Info("patient service listening", zap.String("addr", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		zl.Fatal("Failed to serve", zap.Error(err))
	}
}
