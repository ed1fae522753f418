package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/internal/timesheet/handler"
	"github.com/tms/tms-backend/internal/timesheet/repository"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/config"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/messaging"
	"github.com/tms/tms-backend/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("timesheet-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("timesheet-service", cfg.Server.Environment)
	log.Info().Msg("starting Timesheet Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// Connect to RabbitMQ when enabled
	var rmq *messaging.RabbitMQ
	publisher := events.NewPublisher(messaging.NopPublisher{}, log)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewRabbitPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	// Initialize repositories
	employeeRepo := repository.NewEmployeeRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	dailyLogRepo := repository.NewDailyLogRepository(db)
	changeRepo := repository.NewChangeRepository(db)

	// Initialize services
	employeeService := service.NewEmployeeService(db, employeeRepo, publisher, log)
	timesheetService := service.NewTimesheetService(db, employeeRepo, timesheetRepo, publisher, log)
	dailyLogService := service.NewDailyLogService(db, employeeRepo, timesheetRepo, dailyLogRepo, changeRepo, publisher, log)
	changeService := service.NewChangeService(db, dailyLogRepo, changeRepo, publisher, log)
	dashboardService := service.NewDashboardService(db, employeeRepo, timesheetRepo, dailyLogRepo, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		broker := map[string]string{"status": "disabled"}
		if rmq != nil {
			broker = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, map[string]any{
			"status":   "healthy",
			"service":  "timesheet-service",
			"database": db.Health(r.Context()),
			"rabbitmq": broker,
		})
	})
	r.Handle("/metrics", metrics.Handler())

	// API routes
	handler.Register(r, handler.Handlers{
		Employees:  handler.NewEmployeeHandler(employeeService, log),
		Timesheets: handler.NewTimesheetHandler(timesheetService, log),
		DailyLogs:  handler.NewDailyLogHandler(dailyLogService, log),
		Changes:    handler.NewChangeHandler(changeService, log),
		Dashboard:  handler.NewDashboardHandler(dashboardService, log),
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
