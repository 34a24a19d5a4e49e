package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	enrollmentsHandler "github.com/m04kA/SMC-FacilityService/internal/api/handlers/enrollments"
	maintenanceHandler "github.com/m04kA/SMC-FacilityService/internal/api/handlers/maintenance"
	reservationsHandler "github.com/m04kA/SMC-FacilityService/internal/api/handlers/reservations"
	tariffsHandler "github.com/m04kA/SMC-FacilityService/internal/api/handlers/tariffs"
	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityService/internal/config"
	"github.com/m04kA/SMC-FacilityService/internal/domain"
	courtRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/court"
	enrollmentRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/enrollment"
	maintenanceRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/maintenance"
	outboxRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/outbox"
	reservationRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/reservation"
	tariffRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/tariff"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	enrollmentsService "github.com/m04kA/SMC-FacilityService/internal/service/enrollments"
	maintenanceService "github.com/m04kA/SMC-FacilityService/internal/service/maintenance"
	"github.com/m04kA/SMC-FacilityService/internal/service/notifier"
	reservationsService "github.com/m04kA/SMC-FacilityService/internal/service/reservations"
	tariffsService "github.com/m04kA/SMC-FacilityService/internal/service/tariffs"
	createReservationUC "github.com/m04kA/SMC-FacilityService/internal/usecase/create_reservation"
	outboxRelay "github.com/m04kA/SMC-FacilityService/internal/worker/outbox"
	"github.com/m04kA/SMC-FacilityService/pkg/auth"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
	"github.com/m04kA/SMC-FacilityService/pkg/metrics"
	"github.com/m04kA/SMC-FacilityService/pkg/mq"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-FacilityService...")

	// Метрики (если включены). nil отключает сбор в dbmetrics и relay
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Репозитории
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	userRepository := userRepo.NewRepository(wrappedDB)
	courtRepository := courtRepo.NewRepository(wrappedDB)
	maintenanceRepository := maintenanceRepo.NewRepository(wrappedDB)
	tariffRepository := tariffRepo.NewRepository(wrappedDB)
	enrollmentRepository := enrollmentRepo.NewRepository(wrappedDB)
	outboxRepository := outboxRepo.NewRepository(wrappedDB)

	notify := notifier.NewNotifier(outboxRepository, log)

	// Сервисы
	reservationSvc := reservationsService.NewService(
		reservationRepository,
		courtRepository,
		userRepository,
		notify,
		txMgr,
		log,
		reservationsService.Config{
			CheckInTolerance: time.Duration(cfg.Reservations.CheckInToleranceMinutes) * time.Minute,
		},
	)
	maintenanceSvc := maintenanceService.NewService(
		maintenanceRepository,
		courtRepository,
		userRepository,
		notify,
		txMgr,
		log,
		maintenanceService.Config{
			ConflictBuffer: time.Duration(cfg.Maintenance.ConflictBufferHours) * time.Hour,
		},
	)
	tariffSvc := tariffsService.NewService(
		tariffRepository,
		courtRepository,
		enrollmentRepository,
		txMgr,
		log,
	)
	enrollmentSvc := enrollmentsService.NewService(
		enrollmentRepository,
		tariffRepository,
		userRepository,
		notify,
		txMgr,
		log,
	)

	// Use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		maintenanceRepository,
		courtRepository,
		userRepository,
		notify,
		txMgr,
		log,
	)

	// Handlers
	reservations := reservationsHandler.NewHandler(reservationSvc, createReservationUseCase, log)
	maintenance := maintenanceHandler.NewHandler(maintenanceSvc, log)
	tariffs := tariffsHandler.NewHandler(tariffSvc, log)
	enrollments := enrollmentsHandler.NewHandler(enrollmentSvc, log)

	// Outbox relay публикует уведомления в RabbitMQ
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	if cfg.Outbox.Enabled {
		publisher, err := mq.NewPublisher(cfg.Outbox.RabbitURL, cfg.Outbox.Exchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()

		relay := outboxRelay.NewRelay(outboxRepository, publisher, txMgr, metricsCollector, log.With("component", "outbox_relay"), outboxRelay.Config{
			PollInterval: time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		})
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
		log.Info("Outbox relay enabled (exchange=%s)", cfg.Outbox.Exchange)
	} else {
		close(relayDone)
	}

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := wrappedDB.PingContext(r.Context()); err != nil {
			handlers.RespondError(w, http.StatusServiceUnavailable, "база данных недоступна")
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (JWT)
	// ============================================================

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(auth.NewSigner(cfg.Auth.JWTSecret)))

	staff := middleware.RequireRole(domain.RoleStaff, domain.RoleAdmin)
	admin := middleware.RequireRole(domain.RoleAdmin)

	// --- Бронирования ---
	api.HandleFunc("/reservations", reservations.Create).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}", reservations.Get).Methods(http.MethodGet)
	api.Handle("/reservations/{id}/history", staff(http.HandlerFunc(reservations.History))).Methods(http.MethodGet)
	api.Handle("/reservations/{id}/confirm-payment", staff(http.HandlerFunc(reservations.ConfirmPayment))).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/cancel", reservations.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/check-in", reservations.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/check-out", reservations.CheckOut).Methods(http.MethodPost)
	api.Handle("/reservations/{id}/no-show", staff(http.HandlerFunc(reservations.NoShow))).Methods(http.MethodPost)

	// --- Обслуживание кортов (сотрудники) ---
	maint := api.PathPrefix("/maintenance").Subrouter()
	maint.Use(staff)
	maint.HandleFunc("", maintenance.Create).Methods(http.MethodPost)
	maint.HandleFunc("", maintenance.List).Methods(http.MethodGet)
	maint.HandleFunc("/stats", maintenance.Stats).Methods(http.MethodGet)
	maint.HandleFunc("/{id:[0-9]+}", maintenance.Get).Methods(http.MethodGet)
	maint.HandleFunc("/{id:[0-9]+}", maintenance.Update).Methods(http.MethodPut)
	maint.HandleFunc("/{id:[0-9]+}/start", maintenance.Start).Methods(http.MethodPost)
	maint.HandleFunc("/{id:[0-9]+}/complete", maintenance.Complete).Methods(http.MethodPost)
	maint.HandleFunc("/{id:[0-9]+}/cancel", maintenance.Cancel).Methods(http.MethodPost)

	// --- Тарифы и заявки ---
	api.HandleFunc("/tariffs", tariffs.List).Methods(http.MethodGet)
	api.HandleFunc("/tariffs/{id}", tariffs.Get).Methods(http.MethodGet)
	api.HandleFunc("/enrollments", enrollments.Create).Methods(http.MethodPost)

	// --- Администрирование ---
	adm := api.PathPrefix("/admin").Subrouter()

	adm.Handle("/reservations/{id}/resend-confirmation", staff(http.HandlerFunc(reservations.ResendConfirmation))).Methods(http.MethodPost)
	adm.Handle("/reservations/{id}/payment-link", staff(http.HandlerFunc(reservations.PaymentLink))).Methods(http.MethodPost)
	adm.Handle("/reservations/{id}/status", admin(http.HandlerFunc(reservations.SetStatus))).Methods(http.MethodPatch)
	adm.Handle("/reservations/{id}/refund", admin(http.HandlerFunc(reservations.Refund))).Methods(http.MethodPost)

	adm.Handle("/tariffs", admin(http.HandlerFunc(tariffs.Create))).Methods(http.MethodPost)
	adm.Handle("/tariffs/{id}", admin(http.HandlerFunc(tariffs.Update))).Methods(http.MethodPut)
	adm.Handle("/tariffs/{id}", admin(http.HandlerFunc(tariffs.Delete))).Methods(http.MethodDelete)

	adm.Handle("/enrollments", admin(http.HandlerFunc(enrollments.List))).Methods(http.MethodGet)
	adm.Handle("/enrollments/{id}/history", admin(http.HandlerFunc(enrollments.History))).Methods(http.MethodGet)
	adm.Handle("/enrollments/{id}/approve", admin(http.HandlerFunc(enrollments.Approve))).Methods(http.MethodPost)
	adm.Handle("/enrollments/{id}/reject", admin(http.HandlerFunc(enrollments.Reject))).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopRelay()
	<-relayDone

	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
