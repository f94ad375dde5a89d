package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-system/config"
	"clinic-system/internal/authz"
	"clinic-system/internal/gateway/clients"
	"clinic-system/internal/gateway/handlers"
	"clinic-system/internal/gateway/middleware"
	"clinic-system/internal/logger"
	patient "clinic-system/proto/patient"
	reconciliation "clinic-system/proto/reconciliation"
)

// backends is what the router needs from the gRPC side. A nil client means the
// service could not be dialled and its routes answer 503.
type backends struct {
	reconciliation reconciliation.ReconciliationServiceClient
	patient        patient.PatientServiceClient
	health         map[string]func(context.Context) bool
}

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

	b := backends{health: map[string]func(context.Context) bool{}}
	grpcClients, err := clients.NewGRPCClients(cfg, zl)
	if err != nil {
		zl.Warn("gRPC services unavailable", zap.Error(err))
	} else {
		defer grpcClients.Close()
		b.reconciliation = grpcClients.Reconciliation
		b.patient = grpcClients.Patient
		b.health["reconciliation"] = grpcClients.IsReconciliationServiceHealthy
		b.health["patient"] = grpcClients.IsPatientServiceHealthy
	}

	r, err := setupRouter(cfg, b, zl)
	if err != nil {
		zl.Fatal("Failed to set up router", zap.Error(err))
	}

	port := ":" + cfg.HTTP.Port
	zl.Info("Starting server", zap.String("port", port))
	if err := r.Run(port); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}

func setupRouter(cfg config.Config, b backends, zl *zap.Logger) (*gin.Engine, error) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	limit, err := middleware.RateLimit(cfg.HTTP.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(zl))
	r.Use(gin.Recovery())
	r.Use(limit)

	policy := authz.DefaultPolicy()
	can := func(action string) gin.HandlerFunc {
		return middleware.RequirePermission(policy, action)
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	{
		if b.reconciliation != nil {
			h := handlers.NewReconciliationHTTPHandler(b.reconciliation)
			protected.POST("/day-close", can(authz.ActionDayCloseSubmit), h.CloseDay)
			protected.GET("/daily-reports", can(authz.ActionReportsRead), h.ListDailyReports)
			protected.GET("/daily-reports/:id", can(authz.ActionReportsRead), h.GetDailyReport)
			protected.GET("/sales", can(authz.ActionReportsRead), h.ListSaleRecords)
			protected.GET("/inventory/low-stock", can(authz.ActionReportsRead), h.ListLowStock)
		} else {
			unavailable := serviceUnavailableHandler("Reconciliation service")
			protected.POST("/day-close", unavailable)
			protected.GET("/daily-reports", unavailable)
			protected.GET("/daily-reports/:id", unavailable)
			protected.GET("/sales", unavailable)
			protected.GET("/inventory/low-stock", unavailable)
		}

		if b.patient != nil {
			h := handlers.NewPatientHTTPHandler(b.patient)
			protected.POST("/patients", can(authz.ActionPatientsCreate), h.CreatePatient)
			protected.GET("/payment-plans/overdue", can(authz.ActionBillingRead), h.ListOverduePlans)
			protected.POST("/payment-plans/overdue/reminders", can(authz.ActionBillingRemind), h.SendOverdueReminders)
			protected.GET("/payment-plans/:id/status", can(authz.ActionBillingRead), h.GetPlanStatus)
		} else {
			unavailable := serviceUnavailableHandler("Patient service")
			protected.POST("/patients", unavailable)
			protected.GET("/payment-plans/overdue", unavailable)
			protected.POST("/payment-plans/overdue/reminders", unavailable)
			protected.GET("/payment-plans/:id/status", unavailable)
		}
	}

	r.GET("/health", healthCheckHandler(b))
	r.GET("/health/detailed", detailedHealthCheckHandler(b))

	return r, nil
}

func serviceUnavailableHandler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": serviceName + " is currently unavailable",
			"error":   gin.H{"reason": "SERVICE_UNAVAILABLE", "retryable": true},
		})
	}
}

func healthCheckHandler(b backends) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		unavailableServices := []string{}
		if b.reconciliation == nil {
			unavailableServices = append(unavailableServices, "reconciliation")
		}
		if b.patient == nil {
			unavailableServices = append(unavailableServices, "patient")
		}

		if len(unavailableServices) > 0 {
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":               status,
			"message":              "Server is running",
			"unavailable_services": unavailableServices,
			"timestamp":            time.Now(),
		})
	}
}

func detailedHealthCheckHandler(b backends) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		services := map[string]interface{}{}
		overallStatus := "healthy"
		for _, name := range []string{"reconciliation", "patient"} {
			check, ok := b.health[name]
			healthy := ok && check(ctx)
			services[name] = checkServiceHealth(healthy)
			if !healthy {
				overallStatus = "degraded"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"overall_status": overallStatus,
			"services":       services,
			"timestamp":      time.Now(),
		})
	}
}

func checkServiceHealth(isHealthy bool) map[string]interface{} {
	if !isHealthy {
		return map[string]interface{}{
			"status":  "unavailable",
			"message": "Service client not initialized or connection lost",
		}
	}
	return map[string]interface{}{
		"status":  "healthy",
		"message": "Service is responding",
	}
}
