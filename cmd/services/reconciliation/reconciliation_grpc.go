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
	"clinic-system/internal/dayclose"
	"clinic-system/internal/logger"
	"clinic-system/internal/notify"
	"clinic-system/internal/services/reconciliation/handler"
	proto "clinic-system/proto/reconciliation"
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
	zl = zl.With(zap.String("service", "reconciliation"))

	redisClient, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		zl.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	db, err := database.NewConnection(cfg.Reconciliation.DSN)
	if err != nil {
		zl.Fatal("Failed to connect to db", zap.Error(err))
	}

	if err := database.MigrateReconciliationDB(db); err != nil {
		zl.Fatal("Failed to migrate reconciliation database", zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.Reconciliation.GRPCAddr)
	if err != nil {
		zl.Fatal("Failed to listen", zap.Error(err))
	}

	s := grpc.NewServer()

	service := dayclose.NewService(db, zl, cfg.DayClose.Timeout)
	reconciliationHandler := handler.NewReconciliationHandler(service, redisClient, notify.NewRedisNotifier(redisClient), zl, cfg.DayClose.LowStockTTL)
	proto.RegisterReconciliationServiceServer(s, reconciliationHandler)

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

	zl.Info("reconciliation service listening", zap.String("addr", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		zl.Fatal("Failed to serve", zap.Error(err))
	}
}
